// CLAUDE:SUMMARY Two-pass sandboxed typesetting: temp-dir file layout, pdflatex subprocess, kinded errors.
// Package compile runs the external typesetting binary over an extracted
// file set and returns the rendered PDF.
//
// Compilation always happens inside a fresh temporary directory that is
// removed on every exit path. The binary runs twice so cross-references
// resolve; only the second pass has to exit cleanly.
package compile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrorKind discriminates compilation failures.
type ErrorKind string

const (
	KindTimeout         ErrorKind = "timeout"
	KindBinaryNotFound  ErrorKind = "binary_not_found"
	KindNonZeroExit     ErrorKind = "non_zero_exit"
	KindArtifactMissing ErrorKind = "artifact_missing"
	KindWorkspace       ErrorKind = "workspace"
)

// Error is a compilation failure with a kind discriminator.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("compile: %s: %s", e.Kind, e.Message)
}

// Config configures the Compiler.
type Config struct {
	// Binary is the typesetting executable. Default: pdflatex.
	Binary string
	// Timeout bounds each of the two invocations independently. Default: 300s.
	Timeout time.Duration
	// EnableSandboxing only confines work to the private temporary
	// directory. No process-level isolation is implemented; do not treat
	// this as a security boundary.
	EnableSandboxing bool
	// Logger for compilation progress.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Binary == "" {
		c.Binary = "pdflatex"
	}
	if c.Timeout <= 0 {
		c.Timeout = 300 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Compiler invokes the typesetting binary over in-memory file sets.
type Compiler struct {
	config Config
}

// New creates a Compiler.
func New(cfg Config) *Compiler {
	cfg.defaults()
	return &Compiler{config: cfg}
}

// Compile writes files into a fresh working directory, runs the binary
// twice against mainFile and returns the produced PDF bytes.
func (c *Compiler) Compile(ctx context.Context, files map[string][]byte, mainFile string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "arxpipe-compile-")
	if err != nil {
		return nil, &Error{Kind: KindWorkspace, Message: fmt.Sprintf("create workspace: %v", err)}
	}
	defer os.RemoveAll(dir)

	for name, content := range files {
		target := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, &Error{Kind: KindWorkspace, Message: fmt.Sprintf("create %s: %v", name, err)}
		}
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return nil, &Error{Kind: KindWorkspace, Message: fmt.Sprintf("write %s: %v", name, err)}
		}
	}

	mainPath := filepath.Join(dir, filepath.FromSlash(mainFile))

	// Two passes; a first-pass failure is normal while references settle.
	for pass := 1; pass <= 2; pass++ {
		if err := c.runPass(ctx, dir, mainPath, pass); err != nil {
			return nil, err
		}
	}

	stem := strings.TrimSuffix(filepath.Base(mainPath), filepath.Ext(mainPath))
	pdfPath := filepath.Join(dir, stem+".pdf")
	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, &Error{Kind: KindArtifactMissing, Message: "PDF artifact was not generated"}
	}

	c.config.Logger.Info("compiled document", "main", mainFile, "pdf_bytes", len(pdf))
	return pdf, nil
}

// runPass runs one invocation under its own timeout. Only the second
// pass's exit status is fatal.
func (c *Compiler) runPass(ctx context.Context, dir, mainPath string, pass int) error {
	passCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(passCtx, c.config.Binary,
		"-interaction=nonstopmode",
		"-output-directory", dir,
		mainPath)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	if passCtx.Err() == context.DeadlineExceeded {
		return &Error{Kind: KindTimeout,
			Message: fmt.Sprintf("pass %d exceeded %s", pass, c.config.Timeout)}
	}
	if ctx.Err() != nil {
		// Caller cancellation is not a compile failure; surface it as such.
		return fmt.Errorf("pass %d: %w", pass, ctx.Err())
	}
	if errors.Is(err, exec.ErrNotFound) {
		return &Error{Kind: KindBinaryNotFound,
			Message: fmt.Sprintf("%s not found, install a TeX distribution", c.config.Binary)}
	}
	if pass == 2 {
		return &Error{Kind: KindNonZeroExit,
			Message: fmt.Sprintf("pass %d failed: %s", pass, tail(out, 512))}
	}
	c.config.Logger.Debug("first compile pass failed, continuing", "error", err)
	return nil
}

// tail returns the last n bytes of output, where the useful error lives.
func tail(out []byte, n int) string {
	s := strings.TrimSpace(string(out))
	if len(s) > n {
		s = "…" + s[len(s)-n:]
	}
	return s
}
