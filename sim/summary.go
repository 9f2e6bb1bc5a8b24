package sim

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"

	"github.com/sarchlab/runnersim/accel"
	"github.com/sarchlab/runnersim/emu"
)

// StallSummary aggregates the stalls of one cause.
type StallSummary struct {
	Cause  emu.StallCause
	Count  uint64
	Clocks uint64
	Mean   float64
	StdDev float64
}

// RunnerSummary aggregates the statistics of one runner.
type RunnerSummary struct {
	ID              int
	Clocks          uint64
	Instructions    uint64
	ContextSwitches uint64
	CallOverflows   uint64
	CallUnderflows  uint64
	Err             error
	Stalls          []StallSummary
	HighWater       accel.Occupancy

	// MeanOccupancy is the mean number of in-flight operations per unit
	// over the recorded samples. It is zero without sampling.
	MeanOccupancy map[string]float64
}

// IPC returns instructions per clock.
func (s RunnerSummary) IPC() float64 {
	if s.Clocks == 0 {
		return 0
	}
	return float64(s.Instructions) / float64(s.Clocks)
}

// Summary aggregates a whole run.
type Summary struct {
	RunID   string
	Mode    Mode
	Runners []RunnerSummary
	Hash    accel.HashTableStats
}

// DurationStats returns the mean and sample standard deviation of
// durations. The deviation is zero with fewer than two values.
func DurationStats(durations []uint64) (mean, std float64) {
	if len(durations) == 0 {
		return 0, 0
	}
	xs := make([]float64, len(durations))
	for i, d := range durations {
		xs[i] = float64(d)
	}
	if len(xs) < 2 {
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}

type unitValue struct {
	Name  string
	Value int
}

// unitSeries lists the occupancy of every unit by name.
func unitSeries(o accel.Occupancy) []unitValue {
	return []unitValue{
		{"dma", o.DMA},
		{"bbtx", o.BBTX},
		{"bbmsg", o.BBMSG},
		{"hash", o.Hash},
		{"counter", o.Counter},
		{"ramman", o.Ramman},
		{"crypt", o.Crypt},
	}
}

func meanOccupancy(samples []Sample) map[string]float64 {
	if len(samples) == 0 {
		return nil
	}
	values := map[string][]float64{}
	for _, s := range samples {
		for _, u := range unitSeries(s.Occupancy) {
			values[u.Name] = append(values[u.Name], float64(u.Value))
		}
	}
	means := make(map[string]float64, len(values))
	for name, xs := range values {
		means[name] = stat.Mean(xs, nil)
	}
	return means
}

// Summary collects the statistics of the runners that have a program.
func (s *Simulator) Summary() Summary {
	sum := Summary{
		RunID: s.ID(),
		Mode:  s.mode,
		Hash:  s.shared.HashTables.Stats(),
	}

	for _, i := range s.activeRunners() {
		r := s.runners[i]
		st := r.Stats()
		rs := RunnerSummary{
			ID:              i,
			Clocks:          st.Clocks,
			Instructions:    st.Instructions,
			ContextSwitches: st.ContextSwitches,
			CallOverflows:   st.CallOverflows,
			CallUnderflows:  st.CallUnderflows,
			Err:             r.Err(),
			HighWater:       st.HighWater,
			MeanOccupancy:   meanOccupancy(s.samples[i]),
		}
		for _, c := range emu.StallCauses() {
			if st.Stalls[c] == 0 && st.StallClocks[c] == 0 {
				continue
			}
			mean, std := DurationStats(st.StallDurations[c])
			rs.Stalls = append(rs.Stalls, StallSummary{
				Cause:  c,
				Count:  st.Stalls[c],
				Clocks: st.StallClocks[c],
				Mean:   mean,
				StdDev: std,
			})
		}
		sum.Runners = append(sum.Runners, rs)
	}

	return sum
}

// Print writes the summary as aligned tables.
func (s Summary) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintf(tw, "run\t%s\t(%s)\n", s.RunID, s.Mode)
	for _, r := range s.Runners {
		fmt.Fprintf(tw, "\nrunner %d\n", r.ID)
		fmt.Fprintf(tw, "  clocks\t%d\n", r.Clocks)
		fmt.Fprintf(tw, "  instructions\t%d\n", r.Instructions)
		fmt.Fprintf(tw, "  ipc\t%.3f\n", r.IPC())
		fmt.Fprintf(tw, "  context switches\t%d\n", r.ContextSwitches)
		if r.CallOverflows > 0 || r.CallUnderflows > 0 {
			fmt.Fprintf(tw, "  call overflows/underflows\t%d/%d\n", r.CallOverflows, r.CallUnderflows)
		}
		if r.Err != nil {
			fmt.Fprintf(tw, "  halted\t%v\n", r.Err)
		}

		if len(r.Stalls) > 0 {
			fmt.Fprintf(tw, "  stall\tcount\tclocks\tmean\tstddev\n")
			for _, st := range r.Stalls {
				fmt.Fprintf(tw, "  %s\t%d\t%d\t%.2f\t%.2f\n",
					st.Cause, st.Count, st.Clocks, st.Mean, st.StdDev)
			}
		}

		fmt.Fprintf(tw, "  unit\thigh water\tmean\n")
		for _, u := range unitSeries(r.HighWater) {
			fmt.Fprintf(tw, "  %s\t%d\t%.2f\n", u.Name, u.Value, r.MeanOccupancy[u.Name])
		}
	}

	fmt.Fprintf(tw, "\nhash\thits=%d misses=%d evictions=%d\n", s.Hash.Hits, s.Hash.Misses, s.Hash.Evictions)

	return tw.Flush()
}
