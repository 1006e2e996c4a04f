// Package config decodes the single YAML configuration file a tail2
// process reads at startup. There is no other process-wide mutable
// configuration state: everything else is threaded explicitly through
// constructors.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/0b01/tail2-go/pkg/pywalk"
)

// Config is the root of the YAML configuration file.
type Config struct {
	// ServerEndpoint is where pkg/sample.Client posts batches of samples.
	ServerEndpoint string `yaml:"server_endpoint"`

	// SampleRateHz is a perf sampling frequency. The sample subcommand
	// does not read it: it takes its sampling period from --period
	// (default 10ms).
	SampleRateHz uint64 `yaml:"sample_rate_hz"`

	// MaxBatchSize and FlushIntervalMs tune pkg/sample.Client's batching.
	MaxBatchSize    int `yaml:"max_batch_size"`
	FlushIntervalMs int `yaml:"flush_interval_ms"`

	// LogFields enables per-subsystem debug logging, a comma-separated
	// list consumed by internal/logflags.Setup.
	LogFields string `yaml:"log_fields"`
	Verbose   bool   `yaml:"verbose"`

	// TLSOffsets overrides pywalk.DefaultTLSOffsets for targets whose
	// kernel or libc has moved the fields the AArch64 walker reads.
	TLSOffsets *TLSOffsetsConfig `yaml:"tls_offsets"`
}

// TLSOffsetsConfig mirrors pywalk.TLSOffsets for YAML decoding; a nil
// (omitted) field keeps the default for that field, and an explicit
// value, including 0, is used as given.
type TLSOffsetsConfig struct {
	GlibcSelfOffset        *int64 `yaml:"glibc_self_offset"`
	MuslSelfOffset         *int64 `yaml:"musl_self_offset"`
	AArch64ThreadOffset    *int64 `yaml:"aarch64_thread_offset"`
	AArch64UwTpValueOffset *int64 `yaml:"aarch64_uw_tp_value_offset"`
}

// Default returns the configuration a CLI invocation falls back to
// when no file is given.
func Default() Config {
	return Config{
		SampleRateHz:    99,
		MaxBatchSize:    256,
		FlushIntervalMs: 1000,
	}
}

// Load reads and decodes a YAML config file at path, applying
// Default() for any field the file leaves unset by decoding on top of
// it.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ResolveTLSOffsets merges c.TLSOffsets on top of pywalk's defaults,
// so a config file only needs to name the fields it actually wants to
// override.
func (c Config) ResolveTLSOffsets() pywalk.TLSOffsets {
	offsets := pywalk.DefaultTLSOffsets()
	if c.TLSOffsets == nil {
		return offsets
	}
	if v := c.TLSOffsets.GlibcSelfOffset; v != nil {
		offsets.GlibcSelfOffset = *v
	}
	if v := c.TLSOffsets.MuslSelfOffset; v != nil {
		offsets.MuslSelfOffset = *v
	}
	if v := c.TLSOffsets.AArch64ThreadOffset; v != nil {
		offsets.AArch64ThreadOffset = *v
	}
	if v := c.TLSOffsets.AArch64UwTpValueOffset; v != nil {
		offsets.AArch64UwTpValueOffset = *v
	}
	return offsets
}
