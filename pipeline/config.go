// CLAUDE:SUMMARY Pipeline configuration: concurrency budgets, rate limits, timeouts, YAML loading.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures the processing pipeline.
type Config struct {
	// MaxDownloads bounds simultaneous archive downloads. Default: 5.
	MaxDownloads int64 `yaml:"max_downloads"`
	// MaxExtractions bounds simultaneous archive extractions. Default: 3.
	MaxExtractions int64 `yaml:"max_extractions"`
	// MaxCompilations bounds simultaneous typesetting runs. Default: 2.
	MaxCompilations int64 `yaml:"max_compilations"`

	// RequestsPerSecond feeds the download rate limiter. Default: 2.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// BurstSize is the downloader's own concurrency slot count. Default: 5.
	BurstSize int64 `yaml:"burst_size"`

	// DownloadTimeout bounds a single network call. Default: 60s.
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	// CompilationTimeout bounds each typesetting pass. Default: 300s.
	CompilationTimeout time.Duration `yaml:"compilation_timeout"`

	// MaxFilesPerArchive caps archive member counts. Default: 1000.
	MaxFilesPerArchive int `yaml:"max_files_per_archive"`

	// SourceBaseURL is the archive endpoint prefix. Default: arXiv e-print.
	SourceBaseURL string `yaml:"source_base_url"`
	// CompileBinary is the typesetting executable. Default: pdflatex.
	CompileBinary string `yaml:"compile_binary"`
	// EnableSandboxing confines compilation to its private temp directory.
	// No stronger isolation is implemented behind this flag.
	EnableSandboxing bool `yaml:"enable_sandboxing"`
	// PDFTextExtraction selects the real PDF reader; when false the null
	// reader answers with its unavailability sentinel. Default: true.
	PDFTextExtraction bool `yaml:"pdf_text_extraction"`

	// Metrics receives stage counters in addition to the built-in
	// collector. Optional.
	Metrics Sink `yaml:"-"`
	// Logger for pipeline events.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() *Config {
	cfg := &Config{PDFTextExtraction: true}
	cfg.defaults()
	return cfg
}

func (c *Config) defaults() {
	if c.MaxDownloads <= 0 {
		c.MaxDownloads = 5
	}
	if c.MaxExtractions <= 0 {
		c.MaxExtractions = 3
	}
	if c.MaxCompilations <= 0 {
		c.MaxCompilations = 2
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 2
	}
	if c.BurstSize <= 0 {
		c.BurstSize = 5
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = 60 * time.Second
	}
	if c.CompilationTimeout <= 0 {
		c.CompilationTimeout = 300 * time.Second
	}
	if c.MaxFilesPerArchive <= 0 {
		c.MaxFilesPerArchive = 1000
	}
	if c.CompileBinary == "" {
		c.CompileBinary = "pdflatex"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Validate checks configured values for sanity.
func (c *Config) Validate() error {
	if c.MaxDownloads < 1 {
		return fmt.Errorf("max_downloads must be at least 1")
	}
	if c.MaxExtractions < 1 {
		return fmt.Errorf("max_extractions must be at least 1")
	}
	if c.MaxCompilations < 1 {
		return fmt.Errorf("max_compilations must be at least 1")
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if c.DownloadTimeout < time.Second {
		return fmt.Errorf("download_timeout must be at least 1 second")
	}
	if c.CompilationTimeout < time.Second {
		return fmt.Errorf("compilation_timeout must be at least 1 second")
	}
	if c.MaxFilesPerArchive < 1 {
		return fmt.Errorf("max_files_per_archive must be at least 1")
	}
	return nil
}

// LoadConfig reads a YAML config file merged over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, cfg.Validate()
}
