package ports

import "os/exec"

// EditorOpener opens data files in the user's editor
type EditorOpener interface {
	// OpenFile runs the editor on path and waits for it to exit
	OpenFile(path string) error

	// Command builds the editor process without starting it, for
	// bubbletea's ExecProcess
	Command(path string) (*exec.Cmd, error)
}
