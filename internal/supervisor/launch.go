package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"cardiod/internal/models"
)

// launch starts the OS process for m. Caller holds s.mu. On success the
// service transitions to Running and a wait goroutine is armed to deliver the
// exit event to the monitor loop.
func (s *Supervisor) launch(m *managed) error {
	m.state = StateStarting

	cmd := exec.Command(m.spec.Command, m.spec.Args...)
	if m.spec.Directory != "" {
		cmd.Dir = m.spec.Directory
	}
	cmd.Env = os.Environ()
	for k, v := range m.spec.Environment {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	type streamPipe struct {
		r      io.ReadCloser
		stderr bool
	}
	var pipes []streamPipe
	for _, stream := range []struct {
		target string
		stderr bool
	}{
		{m.spec.Stdout, false},
		{m.spec.Stderr, true},
	} {
		pipe, file, err := s.wireStream(cmd, stream.target, stream.stderr)
		if err != nil {
			closeFiles(m)
			m.state = StateCrashed
			return err
		}
		if pipe != nil {
			pipes = append(pipes, streamPipe{r: pipe, stderr: stream.stderr})
		}
		if file != nil {
			m.files = append(m.files, file)
		}
	}

	if err := cmd.Start(); err != nil {
		closeFiles(m)
		m.state = StateCrashed
		return err
	}

	m.proc = cmd.Process
	m.pid = cmd.Process.Pid
	m.startedAt = time.Now()
	m.exitCode = -1
	m.state = StateRunning

	s.logger.Info("service started", "service", m.spec.Name, "pid", m.pid, "restarts", m.restarts)
	s.record("info", m.spec.Name, fmt.Sprintf("started with pid %d", m.pid))

	for _, p := range pipes {
		dest := s.stdout
		if p.stderr {
			dest = s.stderr
		}
		go s.forward(m.spec.Name, p.r, dest, p.stderr)
	}

	name := m.spec.Name
	go func() {
		err := cmd.Wait()
		s.events <- exitEvent{name: name, code: exitCode(cmd, err), err: err}
	}()
	return nil
}

// wireStream configures one output stream: "inherit" yields a pipe that is
// line-multiplexed onto the supervisor's stream, anything else appends to
// that file path.
func (s *Supervisor) wireStream(cmd *exec.Cmd, target string, isStderr bool) (io.ReadCloser, *os.File, error) {
	if target == "" || target == "inherit" {
		var (
			pipe io.ReadCloser
			err  error
		)
		if isStderr {
			pipe, err = cmd.StderrPipe()
		} else {
			pipe, err = cmd.StdoutPipe()
		}
		if err != nil {
			return nil, nil, fmt.Errorf("pipe: %w", err)
		}
		return pipe, nil, nil
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", target, err)
	}
	if isStderr {
		cmd.Stderr = f
	} else {
		cmd.Stdout = f
	}
	return nil, f, nil
}

// forward copies one child stream line by line onto the supervisor's own
// stream, prefixed with the service name, and retains each line for the
// dashboard. Hosting platforms collect a single log stream per container, so
// both children end up in one place.
func (s *Supervisor) forward(name string, r io.Reader, w io.Writer, isStderr bool) {
	level := "info"
	if isStderr {
		level = "error"
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		fmt.Fprintf(w, "%s | %s\n", name, line)
		s.logs.Add(models.LogEntry{
			Timestamp: time.Now().Format(time.RFC3339),
			Level:     level,
			Service:   name,
			Message:   line,
		})
	}
}

func closeFiles(m *managed) {
	for _, f := range m.files {
		_ = f.Close()
	}
	m.files = nil
}

func stopSignal(name string) os.Signal {
	switch name {
	case "SIGKILL":
		return syscall.SIGKILL
	case "SIGINT":
		return syscall.SIGINT
	case "SIGQUIT":
		return syscall.SIGQUIT
	case "SIGHUP":
		return syscall.SIGHUP
	default:
		return syscall.SIGTERM
	}
}

// exitCode normalizes the exit status: 0 for clean exits, the child's code
// for failures, and -1 when the process died to a signal or never reported.
func exitCode(cmd *exec.Cmd, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return -1
}
