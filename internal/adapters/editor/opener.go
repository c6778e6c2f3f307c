package editor

import (
	"errors"
	"os"
	"os/exec"
	"strings"
)

// ErrNoEditor is returned when neither $VISUAL, $EDITOR nor a known editor
// on $PATH is available
var ErrNoEditor = errors.New("no editor found: set $EDITOR")

// fallbacks are tried in order when no environment variable is set
var fallbacks = []string{"nvim", "vim", "vi", "nano"}

// Opener implements ports.EditorOpener
type Opener struct {
	getenv   func(string) string
	lookPath func(string) (string, error)
}

// Option configures an Opener
type Option func(*Opener)

// WithEnv replaces os.Getenv
func WithEnv(getenv func(string) string) Option {
	return func(o *Opener) { o.getenv = getenv }
}

// WithLookPath replaces exec.LookPath
func WithLookPath(lookPath func(string) (string, error)) Option {
	return func(o *Opener) { o.lookPath = lookPath }
}

// NewOpener creates a new editor opener
func NewOpener(opts ...Option) *Opener {
	o := &Opener{getenv: os.Getenv, lookPath: exec.LookPath}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OpenFile opens a file in the user's preferred editor
func (o *Opener) OpenFile(path string) error {
	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	return cmd.Run()
}

// Command returns the editor process for path. $VISUAL and $EDITOR may
// carry arguments, e.g. "code --wait".
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	argv := o.editorArgs()
	if len(argv) == 0 {
		return nil, ErrNoEditor
	}

	cmd := exec.Command(argv[0], append(argv[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd, nil
}

func (o *Opener) editorArgs() []string {
	for _, key := range []string{"VISUAL", "EDITOR"} {
		if fields := strings.Fields(o.getenv(key)); len(fields) > 0 {
			return fields
		}
	}

	for _, name := range fallbacks {
		if path, err := o.lookPath(name); err == nil {
			return []string{path}
		}
	}

	return nil
}
