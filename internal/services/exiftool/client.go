package exiftool

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// extractFields is the tag list requested on every extraction run. The
// builder in internal/exposure resolves fallbacks between related tags, so
// both members of each pair are requested here.
var extractFields = []string{
	"-DateTimeOriginal",
	"-CreateDate",
	"-SubSecDateTimeOriginal",
	"-ExposureBiasValue",
	"-ExposureCompensation",
	"-ExposureTime",
	"-ShutterSpeed",
	"-ISO",
	"-FNumber",
	"-Aperture",
	"-FocalLength",
	"-LensID",
	"-LensModel",
	"-Model",
	"-SerialNumber",
	"-SequenceNumber",
	"-BurstUUID",
	"-BracketSequence",
	"-BracketShotNumber",
	"-FileName",
	"-Directory",
}

const defaultBatchSize = 100

// Extractor defines the behaviour required by the scanning stage.
type Extractor interface {
	Extract(ctx context.Context, files []string) ([]map[string]any, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps exiftool CLI interactions.
type Client struct {
	binary         string
	batchSize      int
	extractTimeout time.Duration
	exec           Executor
}

// New constructs an exiftool client.
func New(binary string, batchSize, extractTimeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("exiftool binary required")
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	client := &Client{
		binary:         binary,
		batchSize:      batchSize,
		extractTimeout: time.Duration(extractTimeoutSeconds) * time.Second,
		exec:           commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Extract reads camera metadata for the given files and returns one loose
// field map per file, preserving input order. Files are processed in batches;
// the timeout covers each batch individually so large cards do not starve.
func (c *Client) Extract(ctx context.Context, files []string) ([]map[string]any, error) {
	if len(files) == 0 {
		return nil, nil
	}
	results := make([]map[string]any, 0, len(files))
	for start := 0; start < len(files); start += c.batchSize {
		end := min(start+c.batchSize, len(files))
		batch, err := c.extractBatch(ctx, files[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("exiftool returned %d entries for %d files", len(batch), end-start)
		}
		results = append(results, batch...)
	}
	return results, nil
}

func (c *Client) extractBatch(ctx context.Context, files []string) ([]map[string]any, error) {
	batchCtx := ctx
	if c.extractTimeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, c.extractTimeout)
		defer cancel()
	}

	args := make([]string, 0, 1+len(extractFields)+len(files))
	args = append(args, "-json")
	args = append(args, extractFields...)
	args = append(args, files...)

	output, err := c.exec.Run(batchCtx, c.binary, args)
	if err != nil {
		return nil, describeFailure(err, output)
	}

	var entries []map[string]any
	if err := json.Unmarshal(output, &entries); err != nil {
		return nil, fmt.Errorf("decode exiftool output: %w", err)
	}
	return entries, nil
}

// Version reports the installed exiftool version, used by preflight checks.
func (c *Client) Version(ctx context.Context) (string, error) {
	output, err := c.exec.Run(ctx, c.binary, []string{"-ver"})
	if err != nil {
		return "", describeFailure(err, output)
	}
	version := strings.TrimSpace(string(output))
	if version == "" {
		return "", errors.New("exiftool reported no version")
	}
	return version, nil
}

func describeFailure(err error, output []byte) error {
	type exitCoder interface{ ExitCode() int }
	var exitErr exitCoder
	if errors.As(err, &exitErr) {
		if detail := firstNonEmptyLine(commandStderr(err), output); detail != "" {
			return fmt.Errorf("exiftool failed (exit status %d): %s: %w", exitErr.ExitCode(), detail, err)
		}
		return fmt.Errorf("exiftool failed (exit status %d): %w", exitErr.ExitCode(), err)
	}
	return fmt.Errorf("exiftool: %w", err)
}

func commandStderr(err error) []byte {
	type stderrProvider interface {
		Stderr() []byte
	}
	var provider stderrProvider
	if errors.As(err, &provider) {
		return provider.Stderr()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Stderr
	}
	return nil
}

func firstNonEmptyLine(sources ...[]byte) string {
	for _, data := range sources {
		if len(data) == 0 {
			continue
		}
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				return line
			}
		}
	}
	return ""
}

// commandExecutor executes commands using os/exec.
type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.Output()
}
