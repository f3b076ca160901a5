package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ImagePlaceholder is replaced by the image path in a command line.
const ImagePlaceholder = "{image}"

// Recognizer extracts text from an image file.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// CommandRecognizer runs an external OCR program and reads its stdout.
type CommandRecognizer struct {
	name    string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

var _ Recognizer = (*CommandRecognizer)(nil)

// Option configures a CommandRecognizer.
type Option func(*CommandRecognizer)

// WithTimeout bounds one recognition run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *CommandRecognizer) {
		r.timeout = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *CommandRecognizer) {
		r.logger = logger
	}
}

// NewCommandRecognizer parses a command line such as "tesseract {image} stdout".
// Arguments are split on whitespace. When no argument holds the
// placeholder, the image path is appended as the last argument.
func NewCommandRecognizer(command string, opts ...Option) (*CommandRecognizer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, ErrEmptyCommand
	}

	r := &CommandRecognizer{
		name:   fields[0],
		args:   fields[1:],
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Recognize runs the command on path and returns the recognized text with
// all whitespace runs collapsed to single spaces.
func (r *CommandRecognizer) Recognize(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrImageNotFound, path)
		}
		return "", fmt.Errorf("failed to stat image: %w", err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := r.argsFor(path)
	r.logger.Debug("running ocr", "command", r.name, "image", path)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.name, args...) //nolint:gosec // command comes from user configuration
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("ocr command %s: %w", r.name, ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("ocr command %s failed: %w: %s", r.name, err, msg)
		}
		return "", fmt.Errorf("ocr command %s failed: %w", r.name, err)
	}

	text := CleanText(stdout.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func (r *CommandRecognizer) argsFor(path string) []string {
	args := make([]string, 0, len(r.args)+1)
	replaced := false
	for _, a := range r.args {
		if strings.Contains(a, ImagePlaceholder) {
			a = strings.ReplaceAll(a, ImagePlaceholder, path)
			replaced = true
		}
		args = append(args, a)
	}
	if !replaced {
		args = append(args, path)
	}
	return args
}

// CleanText collapses every whitespace run to one space and trims the ends.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
