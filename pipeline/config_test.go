package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxDownloads != 5 || cfg.MaxExtractions != 3 || cfg.MaxCompilations != 2 {
		t.Errorf("budgets = %d/%d/%d", cfg.MaxDownloads, cfg.MaxExtractions, cfg.MaxCompilations)
	}
	if cfg.RequestsPerSecond != 2 {
		t.Errorf("rps = %v", cfg.RequestsPerSecond)
	}
	if cfg.DownloadTimeout != 60*time.Second || cfg.CompilationTimeout != 300*time.Second {
		t.Errorf("timeouts = %v/%v", cfg.DownloadTimeout, cfg.CompilationTimeout)
	}
	if cfg.MaxFilesPerArchive != 1000 {
		t.Errorf("max files = %d", cfg.MaxFilesPerArchive)
	}
	if cfg.CompileBinary != "pdflatex" {
		t.Errorf("binary = %q", cfg.CompileBinary)
	}
	if !cfg.PDFTextExtraction {
		t.Error("pdf text extraction should default on")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
max_downloads: 8
requests_per_second: 0.5
compilation_timeout: 2m
compile_binary: lualatex
pdf_text_extraction: false
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxDownloads != 8 {
		t.Errorf("max_downloads = %d", cfg.MaxDownloads)
	}
	if cfg.RequestsPerSecond != 0.5 {
		t.Errorf("requests_per_second = %v", cfg.RequestsPerSecond)
	}
	if cfg.CompilationTimeout != 2*time.Minute {
		t.Errorf("compilation_timeout = %v", cfg.CompilationTimeout)
	}
	if cfg.CompileBinary != "lualatex" {
		t.Errorf("compile_binary = %q", cfg.CompileBinary)
	}
	if cfg.PDFTextExtraction {
		t.Error("pdf_text_extraction should be off")
	}
	// Unset keys keep their defaults.
	if cfg.MaxExtractions != 3 {
		t.Errorf("max_extractions = %d", cfg.MaxExtractions)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("download_timeout: 10ms\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected validation error for sub-second download timeout")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
