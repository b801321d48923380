package executil

import (
	"context"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Dir  string
	Cmd  string
	Args []string
}

// RecordingExecutor captures commands for testing.
// Configure Outputs and Errors to control return values; keys are
// the command name followed by its arguments, space-joined, with a
// bare command name as fallback.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	// Outputs maps command keys to their output.
	Outputs map[string][]byte

	// Errors maps command keys to their error.
	Errors map[string]error
}

// Run records the command and returns configured output/error.
func (e *RecordingExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	return e.record("", cmd, args...)
}

// RunDir records the command with directory and returns configured output/error.
func (e *RecordingExecutor) RunDir(ctx context.Context, dir, cmd string, args ...string) ([]byte, error) {
	return e.record(dir, cmd, args...)
}

func (e *RecordingExecutor) record(dir, cmd string, args ...string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, RecordedCommand{
		Dir:  dir,
		Cmd:  cmd,
		Args: args,
	})

	key := commandKey(cmd, args)

	var out []byte
	var err error

	if e.Outputs != nil {
		if v, ok := e.Outputs[key]; ok {
			out = v
		} else {
			out = e.Outputs[cmd]
		}
	}
	if e.Errors != nil {
		if v, ok := e.Errors[key]; ok {
			err = v
		} else {
			err = e.Errors[cmd]
		}
	}

	return out, err
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}

func commandKey(cmd string, args []string) string {
	key := cmd
	for _, a := range args {
		key += " " + a
	}
	return key
}
