package launch

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Command describes one external process to start.
type Command struct {
	Path   string
	Args   []string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Process is the handle returned by a successful spawn.
type Process interface {
	Pid() int
}

// Spawner starts processes without waiting for them to finish.
type Spawner interface {
	Spawn(cmd Command) (Process, error)
}

var ErrEmptyCommand = errors.New("empty command")

// Exec spawns real child processes through os/exec. Children are detached
// from the caller: their exit status is collected in the background only to
// release the process table entry and is never inspected.
type Exec struct{}

func (Exec) Spawn(c Command) (Process, error) {
	if c.Path == "" {
		return nil, ErrEmptyCommand
	}
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Env = c.Env
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	cmd.SysProcAttr = sysProcAttr()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", c.Path, err)
	}
	go cmd.Wait()
	return execProcess{cmd.Process.Pid}, nil
}

type execProcess struct{ pid int }

func (p execProcess) Pid() int { return p.pid }

// Recorder captures spawn requests instead of running them.
type Recorder struct {
	mu       sync.Mutex
	Commands []Command
	Err      error
}

func (r *Recorder) Spawn(c Command) (Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	r.Commands = append(r.Commands, c)
	return execProcess{pid: 1000 + len(r.Commands)}, nil
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Commands)
}
