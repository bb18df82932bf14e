package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
)

// TextRunner turns the raw bytes of a document into plain text.
type TextRunner interface {
	Text(ctx context.Context, r io.Reader) (string, error)
}

// PdftotextRunner shells out to the pdftotext binary, streaming the
// document through stdin and reading the text from stdout.
type PdftotextRunner struct {
	// Bin is the binary name or absolute path. Empty means "pdftotext".
	Bin string
}

func (p PdftotextRunner) Text(ctx context.Context, r io.Reader) (string, error) {
	bin := p.Bin
	if bin == "" {
		bin = "pdftotext"
	}

	cmd := exec.CommandContext(ctx, bin, "-layout", "-enc", "UTF-8", "-eol", "unix", "-", "-")
	cmd.Stdin = r

	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %v: %s", bin, err, errb.String())
	}

	return out.String(), nil
}

// TextFunc adapts a function to the TextRunner interface, mostly for
// tests.
type TextFunc func(ctx context.Context, r io.Reader) (string, error)

func (f TextFunc) Text(ctx context.Context, r io.Reader) (string, error) {
	return f(ctx, r)
}
