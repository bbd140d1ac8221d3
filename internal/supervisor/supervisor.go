package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"cardiod/internal/config"
	"cardiod/internal/models"
)

var (
	ErrServiceNotFound       = errors.New("service not found")
	ErrServiceAlreadyRunning = errors.New("service already running")
	ErrServiceNotRunning     = errors.New("service not running")
)

// exitEvent is the control message a child's wait goroutine delivers to the
// monitor loop. All registry mutation happens on the receiving side.
type exitEvent struct {
	name string
	code int
	err  error
}

// managed is the runtime instance of one program spec. Owned exclusively by
// the Supervisor; callers only ever see value snapshots.
type managed struct {
	spec           config.ProgramConfig
	state          State
	pid            int
	startedAt      time.Time
	exitCode       int
	restarts       int
	manualStop     bool
	restartPending bool
	proc           *os.Process
	files          []*os.File
}

// Supervisor launches the configured programs, restarts them on unexpected
// exit and multiplexes their output onto its own streams.
type Supervisor struct {
	logger *slog.Logger
	grace  time.Duration
	logs   *LogBuffer

	// Child output lands here; defaults to the supervisor's own streams.
	stdout io.Writer
	stderr io.Writer

	mu           sync.RWMutex
	services     map[string]*managed
	order        []string
	shuttingDown bool

	events   chan exitEvent
	restartq chan string
	done     chan struct{}
	stopOnce sync.Once

	startErr error
}

type Option func(*Supervisor)

// WithOutput redirects multiplexed child output, used by tests.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *Supervisor) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

func New(cfg *config.SupervisorConfig, logger *slog.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		logger:   logger,
		grace:    cfg.Global.GracePeriod.Std(),
		logs:     NewLogBuffer(1000),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		services: make(map[string]*managed, len(cfg.Programs)),
		events:   make(chan exitEvent, 2*len(cfg.Programs)+4),
		restartq: make(chan string, len(cfg.Programs)+1),
		done:     make(chan struct{}),
	}
	for _, prog := range cfg.Programs {
		s.services[prog.Name] = &managed{
			spec:     prog,
			state:    StateNotStarted,
			exitCode: -1,
		}
		s.order = append(s.order, prog.Name)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches every autostart program. A launch failure is recorded and
// reported but does not abort the remaining launches; the joined error makes
// the supervisor's eventual exit code non-zero.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, name := range s.order {
		m := s.services[name]
		if !m.spec.AutoStart {
			continue
		}
		if err := s.launch(m); err != nil {
			s.logger.Error("service failed to launch", "service", name, "error", err)
			errs = append(errs, fmt.Errorf("launch %s: %w", name, err))
		}
	}
	s.startErr = errors.Join(errs...)
	return s.startErr
}

// Run blocks, processing child exits until ctx is cancelled, then shuts all
// children down. It returns the startup error, if any, so the caller can exit
// non-zero when a program never launched.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.Shutdown()
			return s.startErr
		case <-s.done:
			return s.startErr
		case ev := <-s.events:
			s.handleExit(ev)
		case name := <-s.restartq:
			s.relaunch(name)
		}
	}
}

// handleExit processes one child exit. Each exit is handled independently;
// one service's exit never blocks another's.
func (s *Supervisor) handleExit(ev exitEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.services[ev.name]
	if !ok {
		return
	}

	m.pid = 0
	m.exitCode = ev.code
	m.proc = nil
	closeFiles(m)

	if ev.code == 0 {
		m.state = StateExited
		s.logger.Info("service exited", "service", ev.name, "exit_code", ev.code)
	} else {
		m.state = StateCrashed
		s.logger.Warn("service crashed", "service", ev.name, "exit_code", ev.code, "error", ev.err)
	}
	s.record("warning", ev.name, fmt.Sprintf("exited with code %d", ev.code))

	restart := m.restartPending || m.spec.AutoRestart
	m.restartPending = false
	if s.shuttingDown || m.manualStop || !restart {
		m.state = StateStopped
		return
	}

	m.state = StateRestarting
	delay := m.spec.RestartDelay.Std()
	s.logger.Info("scheduling restart", "service", ev.name, "delay", delay)
	name := ev.name
	time.AfterFunc(delay, func() {
		select {
		case s.restartq <- name:
		case <-s.done:
		}
	})
}

// relaunch restarts a service whose restart delay has elapsed.
func (s *Supervisor) relaunch(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.services[name]
	if !ok || s.shuttingDown || m.state != StateRestarting {
		return
	}
	m.restarts++
	if err := s.launch(m); err != nil {
		// A vanished executable would otherwise relaunch in a tight loop;
		// leave the service crashed until an operator intervenes.
		m.state = StateCrashed
		s.logger.Error("service failed to relaunch", "service", name, "error", err)
		s.record("error", name, fmt.Sprintf("relaunch failed: %v", err))
	}
}

// StartService launches one service by hand, clearing any manual-stop mark.
func (s *Supervisor) StartService(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.services[name]
	if !ok {
		return ErrServiceNotFound
	}
	if m.state.live() {
		return ErrServiceAlreadyRunning
	}
	m.manualStop = false
	return s.launch(m)
}

// StopService signals one service and marks it stopped so it is not
// relaunched. The exit itself is observed by the monitor loop.
func (s *Supervisor) StopService(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.services[name]
	if !ok {
		return ErrServiceNotFound
	}
	if m.state == StateRestarting {
		// A crash-looping service spends most of its time here, waiting out
		// the restart delay with no process to signal. Settle it now; the
		// state check in relaunch discards the queued restart.
		m.manualStop = true
		m.restartPending = false
		m.state = StateStopped
		s.logger.Info("stopping service", "service", name, "pending_restart_cancelled", true)
		s.record("info", name, "pending restart cancelled")
		return nil
	}
	if !m.state.live() || m.proc == nil {
		return ErrServiceNotRunning
	}
	m.manualStop = true
	s.logger.Info("stopping service", "service", name, "signal", m.spec.StopSignal, "pid", m.pid)
	if err := m.proc.Signal(stopSignal(m.spec.StopSignal)); err != nil {
		return fmt.Errorf("signal %s: %w", name, err)
	}

	proc := m.proc
	timeout := m.spec.StopTimeout.Std()
	go func() {
		time.Sleep(timeout)
		// Signal on a reaped process fails with ErrProcessDone; harmless.
		_ = proc.Kill()
	}()
	return nil
}

func (s *Supervisor) RestartService(name string) error {
	s.mu.Lock()
	m, ok := s.services[name]
	if !ok {
		s.mu.Unlock()
		return ErrServiceNotFound
	}
	if m.state.live() && m.proc != nil {
		// The monitor loop observes the exit and relaunches because of the
		// pending mark, regardless of the autorestart flag.
		m.manualStop = false
		m.restartPending = true
		proc := m.proc
		sig := stopSignal(m.spec.StopSignal)
		timeout := m.spec.StopTimeout.Std()
		s.mu.Unlock()
		if err := proc.Signal(sig); err != nil {
			return fmt.Errorf("signal %s: %w", name, err)
		}
		go func() {
			time.Sleep(timeout)
			// Signal on a reaped process fails with ErrProcessDone; harmless.
			_ = proc.Kill()
		}()
		return nil
	}
	s.mu.Unlock()
	return s.StartService(name)
}

// Shutdown terminates every live child: stop signal first, then a force kill
// for anything still alive after the grace period. Safe to call more than
// once and after Run has returned.
func (s *Supervisor) Shutdown() {
	s.stopOnce.Do(s.shutdownAll)
}

func (s *Supervisor) shutdownAll() {
	s.mu.Lock()
	s.shuttingDown = true
	var live []*managed
	for _, name := range s.order {
		m := s.services[name]
		switch {
		case m.state.live() && m.proc != nil:
			s.logger.Info("stopping service", "service", name, "signal", m.spec.StopSignal, "pid", m.pid)
			if err := m.proc.Signal(stopSignal(m.spec.StopSignal)); err != nil {
				s.logger.Warn("stop signal failed", "service", name, "error", err)
			}
			live = append(live, m)
		case !m.state.settled():
			// Restarting or crashed-with-pending-restart; nothing to signal.
			m.state = StateStopped
		}
	}
	s.mu.Unlock()

	if len(live) > 0 {
		if !s.drainUntilSettled(s.grace) {
			s.mu.Lock()
			for _, m := range live {
				if m.state.live() && m.proc != nil {
					s.logger.Warn("grace period elapsed, killing", "service", m.spec.Name, "pid", m.pid)
					_ = m.proc.Kill()
				}
			}
			s.mu.Unlock()
			s.drainUntilSettled(2 * time.Second)
		}
	}

	close(s.done)
	s.logger.Info("supervisor stopped")
}

// drainUntilSettled consumes exit events until no service is live or
// restart-pending, or the timeout elapses.
func (s *Supervisor) drainUntilSettled(timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for {
		if s.allSettled() {
			return true
		}
		select {
		case ev := <-s.events:
			s.handleExit(ev)
		case <-tick.C:
		case <-deadline.C:
			return s.allSettled()
		}
	}
}

func (s *Supervisor) allSettled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.services {
		if !m.state.settled() && m.state != StateCrashed {
			return false
		}
	}
	return true
}

// Status returns a snapshot of every service, in configuration order.
func (s *Supervisor) Status() []models.Process {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Process, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, snapshot(s.services[name]))
	}
	return out
}

func (s *Supervisor) Service(name string) (models.Process, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.services[name]
	if !ok {
		return models.Process{}, false
	}
	return snapshot(m), true
}

// Logs exposes the ring buffer for the dashboard handlers.
func (s *Supervisor) Logs() *LogBuffer { return s.logs }

func (s *Supervisor) record(level, service, message string) {
	s.logs.Add(models.LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level,
		Service:   service,
		Message:   message,
	})
}

func snapshot(m *managed) models.Process {
	uptime := "n/a"
	if m.state == StateRunning && !m.startedAt.IsZero() {
		uptime = formatUptime(time.Since(m.startedAt))
	}
	return models.Process{
		Name:     m.spec.Name,
		State:    m.state.String(),
		Pid:      m.pid,
		Uptime:   uptime,
		Restarts: m.restarts,
		ExitCode: m.exitCode,
	}
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	seconds := (d - minutes*time.Minute) / time.Second

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
