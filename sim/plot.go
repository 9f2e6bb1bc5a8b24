package sim

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ErrNoSamples is returned when plotting a run recorded without sampling.
var ErrNoSamples = errors.New("no occupancy samples recorded")

// OccupancyPlot renders the accelerator occupancy of runner i over time.
func (s *Simulator) OccupancyPlot(i int) (*plot.Plot, error) {
	samples := s.samples[i]
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	series := map[string]plotter.XYs{}
	var names []string
	for _, sample := range samples {
		for _, u := range unitSeries(sample.Occupancy) {
			if _, ok := series[u.Name]; !ok {
				names = append(names, u.Name)
			}
			series[u.Name] = append(series[u.Name], plotter.XY{
				X: float64(sample.Clock),
				Y: float64(u.Value),
			})
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("runner %d accelerator occupancy", i)
	p.X.Label.Text = "clock"
	p.Y.Label.Text = "in flight"

	lines := make([]any, 0, 2*len(names))
	for _, name := range names {
		lines = append(lines, name, series[name])
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, fmt.Errorf("failed to add occupancy lines: %w", err)
	}

	return p, nil
}

// PlotOccupancy saves the occupancy plot of every runner with a program
// as prefix followed by the runner id and ext.
// The image format follows the extension of ext, e.g. ".png" or ".svg".
func (s *Simulator) PlotOccupancy(prefix, ext string) ([]string, error) {
	var paths []string
	for _, i := range s.activeRunners() {
		p, err := s.OccupancyPlot(i)
		if err != nil {
			return paths, err
		}
		path := fmt.Sprintf("%s%d%s", prefix, i, ext)
		if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("failed to save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
