package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// defaultPlaceholder is replaced by the item in command arguments.
const defaultPlaceholder = "{}"

// commandWorker runs one external command per item. The item is substituted
// for the placeholder in the arguments, or appended when no argument holds
// it, and is also written to the command's stdin.
type commandWorker struct {
	name        string
	args        []string
	placeholder string
}

func newCommandWorker(argv []string, placeholder string) (*commandWorker, error) {
	if len(argv) == 0 {
		return nil, errors.New("no command given")
	}
	if placeholder == "" {
		placeholder = defaultPlaceholder
	}
	return &commandWorker{name: argv[0], args: argv[1:], placeholder: placeholder}, nil
}

// argsFor returns the argument list for item.
func (w *commandWorker) argsFor(item string) []string {
	args := make([]string, 0, len(w.args)+1)
	substituted := false
	for _, a := range w.args {
		if strings.Contains(a, w.placeholder) {
			a = strings.ReplaceAll(a, w.placeholder, item)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, item)
	}
	return args
}

// Run executes the command and returns its trimmed stdout. A non-zero exit
// status is an error carrying the trimmed stderr.
func (w *commandWorker) Run(ctx context.Context, item string) (string, error) {
	c := exec.CommandContext(ctx, w.name, w.argsFor(item)...)
	c.Stdin = strings.NewReader(item)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", w.name, err, msg)
		}
		return "", fmt.Errorf("%s: %w", w.name, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
