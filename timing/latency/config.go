package latency

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Window is an inclusive [Min, Max] latency range in clocks.
type Window struct {
	Min uint64 `json:"min" yaml:"min"`
	Max uint64 `json:"max" yaml:"max"`
}

// Depths holds the accelerator FIFO depths.
type Depths struct {
	DMA     int `json:"dma" yaml:"dma"`
	BBTX    int `json:"bbtx" yaml:"bbtx"`
	BBMSG   int `json:"bbmsg" yaml:"bbmsg"`
	Hash    int `json:"hash" yaml:"hash"`
	Counter int `json:"counter" yaml:"counter"`
}

// Config holds the accelerator timing and machine sizing of a Runner.
type Config struct {
	// DMARead covers DDR/common to SRAM transfers and lookups.
	// Default: 40..100 clocks.
	DMARead Window `json:"dma_read" yaml:"dma_read"`

	// DMAWrite covers SRAM to DDR/common transfers. Default: 15..100.
	DMAWrite Window `json:"dma_write" yaml:"dma_write"`

	// BBTX is the buffer-transmit latency. Default: 15..60.
	BBTX Window `json:"bbtx" yaml:"bbtx"`

	// BBMSG is the buffer-message latency. Default: 2..40.
	BBMSG Window `json:"bbmsg" yaml:"bbmsg"`

	// Counter is the counter-update latency. Default: 5..15.
	Counter Window `json:"counter" yaml:"counter"`

	// Hash is the hash lookup latency. Default: 5..15.
	Hash Window `json:"hash" yaml:"hash"`

	// Crypt is the crypto chunk latency. Default: 5..15.
	Crypt Window `json:"crypt" yaml:"crypt"`

	// CAM is the associative lookup latency. Default: 5..6.
	CAM Window `json:"cam" yaml:"cam"`

	// CRCMin is the fixed part of the CRC latency. Default: 5.
	CRCMin uint64 `json:"crc_min" yaml:"crc_min"`

	// CRCPer8Bytes widens the CRC window per 8 bytes of input.
	// Default: 1.25.
	CRCPer8Bytes float64 `json:"crc_per_8_bytes" yaml:"crc_per_8_bytes"`

	// Depths are the FIFO depths. Default: DMA 7, others 4.
	Depths Depths `json:"depths" yaml:"depths"`

	// SchedulerPeriod is the number of clocks between arbitrations.
	// Default: 16.
	SchedulerPeriod uint64 `json:"scheduler_period" yaml:"scheduler_period"`

	// TimerTick is the number of clocks per millisecond-counter tick.
	// Default: 300.
	TimerTick uint64 `json:"timer_tick" yaml:"timer_tick"`

	// DDRSize is the DDR size in bytes. Default: 64MB.
	DDRSize uint32 `json:"ddr_size" yaml:"ddr_size"`

	// PacketSRAMSize is the packet SRAM size in bytes. Default: 512KB.
	PacketSRAMSize uint32 `json:"packet_sram_size" yaml:"packet_sram_size"`

	// InitialMask has one bit per thread; a set bit starts masked.
	InitialMask uint32 `json:"initial_mask" yaml:"initial_mask"`

	// Seed seeds the random latency source.
	Seed uint64 `json:"seed" yaml:"seed"`
}

// DefaultConfig returns the reference Runner timing.
func DefaultConfig() *Config {
	return &Config{
		DMARead:      Window{Min: 40, Max: 100},
		DMAWrite:     Window{Min: 15, Max: 100},
		BBTX:         Window{Min: 15, Max: 60},
		BBMSG:        Window{Min: 2, Max: 40},
		Counter:      Window{Min: 5, Max: 15},
		Hash:         Window{Min: 5, Max: 15},
		Crypt:        Window{Min: 5, Max: 15},
		CAM:          Window{Min: 5, Max: 6},
		CRCMin:       5,
		CRCPer8Bytes: 1.25,
		Depths: Depths{
			DMA:     7,
			BBTX:    4,
			BBMSG:   4,
			Hash:    4,
			Counter: 4,
		},
		SchedulerPeriod: 16,
		TimerTick:       300,
		DDRSize:         64 << 20,
		PacketSRAMSize:  512 << 10,
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig loads a Config from a JSON or YAML file, chosen by the file
// extension. Fields missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read latency config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse latency config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config as JSON or YAML, chosen by extension.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize latency config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write latency config file: %w", err)
	}

	return nil
}

// Validate checks windows, depths and sizes.
func (c *Config) Validate() error {
	windows := map[string]Window{
		"dma_read":  c.DMARead,
		"dma_write": c.DMAWrite,
		"bbtx":      c.BBTX,
		"bbmsg":     c.BBMSG,
		"counter":   c.Counter,
		"hash":      c.Hash,
		"crypt":     c.Crypt,
		"cam":       c.CAM,
	}
	for name, w := range windows {
		if w.Min == 0 {
			return fmt.Errorf("%s.min must be > 0", name)
		}
		if w.Min > w.Max {
			return fmt.Errorf("%s.min must be <= %s.max", name, name)
		}
	}
	if c.CRCMin == 0 {
		return fmt.Errorf("crc_min must be > 0")
	}
	if c.CRCPer8Bytes < 0 {
		return fmt.Errorf("crc_per_8_bytes must be >= 0")
	}
	if c.Depths.DMA <= 0 || c.Depths.BBTX <= 0 || c.Depths.BBMSG <= 0 ||
		c.Depths.Hash <= 0 || c.Depths.Counter <= 0 {
		return fmt.Errorf("fifo depths must be > 0")
	}
	if c.SchedulerPeriod == 0 {
		return fmt.Errorf("scheduler_period must be > 0")
	}
	if c.TimerTick == 0 {
		return fmt.Errorf("timer_tick must be > 0")
	}
	if c.DDRSize == 0 || c.PacketSRAMSize == 0 {
		return fmt.Errorf("memory sizes must be > 0")
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
