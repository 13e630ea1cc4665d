// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ctypesgen runs the ctypesgen header parser and captures its JSON
// declaration list. The parser runs either as a host binary or inside a
// container image.
package ctypesgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pdiddy/pxdgen/internal/container"
	"github.com/pdiddy/pxdgen/pkg/types"
)

const (
	defaultBinary  = "ctypesgen"
	defaultTimeout = 30 * time.Second
)

// jsonArgs follow any user-supplied arguments on every run.
var jsonArgs = []string{"--output-language=json", "/dev/stdin"}

// ErrTimeout matches a run that exceeded the configured timeout.
var ErrTimeout = errors.New("ctypesgen timed out")

// Extractor turns C header text into a JSON declaration list.
type Extractor interface {
	Extract(ctx context.Context, header []byte) ([]byte, error)
}

// executor abstracts command execution for testing.
type executor interface {
	Run(ctx context.Context, name string, args []string, s container.Streams) error
}

type osExecutor struct{}

func (osExecutor) Run(ctx context.Context, name string, args []string, s container.Streams) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = s.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	return cmd.Run()
}

// containerExecutor runs the command inside image.
type containerExecutor struct {
	rt    container.Runtime
	image string
}

func (c containerExecutor) Run(ctx context.Context, name string, args []string, s container.Streams) error {
	full := append([]string{name}, args...)
	return c.rt.Run(ctx, c.image, full, s.Stdin, s.Stdout, s.Stderr)
}

// Runner implements Extractor.
type Runner struct {
	cfg    types.ExtractorConfig
	exec   executor
	stderr io.Writer
}

// NewRunner returns a Runner that executes the ctypesgen binary on the host.
func NewRunner(cfg types.ExtractorConfig) *Runner {
	return newRunner(cfg, osExecutor{})
}

// NewContainerRunner returns a Runner that executes ctypesgen inside
// cfg.Image using rt. It fails when the image is not present locally.
func NewContainerRunner(ctx context.Context, rt container.Runtime, cfg types.ExtractorConfig) (*Runner, error) {
	if cfg.Image == "" {
		return nil, errors.New("no extractor image configured")
	}
	if err := rt.ImageExists(ctx, cfg.Image); err != nil {
		return nil, fmt.Errorf("extractor image not available in %s: %w", rt.Name(), err)
	}
	return newRunner(cfg, containerExecutor{rt: rt, image: cfg.Image}), nil
}

func newRunner(cfg types.ExtractorConfig, exec executor) *Runner {
	if cfg.Binary == "" {
		cfg.Binary = defaultBinary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Runner{cfg: cfg, exec: exec, stderr: os.Stderr}
}

// Args returns the full argument list passed to the binary.
func (r *Runner) Args() []string {
	args := make([]string, 0, len(r.cfg.Args)+len(jsonArgs))
	args = append(args, r.cfg.Args...)
	return append(args, jsonArgs...)
}

// Extract pipes header into ctypesgen and returns its standard output. In
// quiet mode the parser's diagnostics are attached to a returned error and
// otherwise discarded.
func (r *Runner) Extract(ctx context.Context, header []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	var out, diag bytes.Buffer
	stderr := r.stderr
	if r.cfg.Quiet {
		stderr = &diag
	}

	err := r.exec.Run(ctx, r.cfg.Binary, r.Args(), container.Streams{
		Stdin:  bytes.NewReader(header),
		Stdout: &out,
		Stderr: stderr,
	})
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", ErrTimeout, r.cfg.Timeout)
	}
	if err != nil {
		if msg := strings.TrimSpace(diag.String()); msg != "" {
			return nil, fmt.Errorf("running %s: %w\n%s", r.cfg.Binary, err, msg)
		}
		return nil, fmt.Errorf("running %s: %w", r.cfg.Binary, err)
	}
	if len(bytes.TrimSpace(out.Bytes())) == 0 {
		return nil, fmt.Errorf("%s produced empty output", r.cfg.Binary)
	}
	return out.Bytes(), nil
}
