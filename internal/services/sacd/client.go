package sacd

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"autosplit/internal/services"
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithTimeout bounds a single extraction run.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client wraps sacd_extract CLI interactions.
type Client struct {
	binary  string
	exec    services.Executor
	timeout time.Duration
}

// New constructs a sacd_extract client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("sacd_extract binary required")
	}
	client := &Client{binary: binary, exec: services.CommandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Extract runs the stereo DSF extraction of image inside workDir and returns
// the produced .dsf files, sorted by path.
func (c *Client) Extract(ctx context.Context, image, workDir string) ([]string, error) {
	if strings.TrimSpace(image) == "" {
		return nil, services.Wrap(services.ErrValidation, "sacd", "extract", "image path required", nil)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrExtraction, "sacd", "prepare work dir", "", err)
	}
	absImage, err := filepath.Abs(image)
	if err != nil {
		absImage = image
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// -2 stereo area, -s DSF output, -c convert DST to DSD.
	args := []string{"-2", "-s", "-c", "-i", absImage}
	if _, err := c.exec.Run(runCtx, services.Command{Binary: c.binary, Args: args, Dir: workDir}); err != nil {
		return nil, services.Wrap(services.ErrExtraction, "sacd", "extract", "", err)
	}

	files, err := FindDSF(workDir)
	if err != nil {
		return nil, services.Wrap(services.ErrExtraction, "sacd", "collect outputs", "", err)
	}
	return files, nil
}

// FindDSF walks dir recursively and returns .dsf files sorted by path.
func FindDSF(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".dsf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}
