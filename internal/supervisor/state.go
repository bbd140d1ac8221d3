package supervisor

// State is the lifecycle state of a managed process.
//
// NotStarted -> Starting -> Running -> (Exited | Crashed) -> Restarting ->
// Starting -> ... terminating at Stopped when autorestart is disabled, the
// service was stopped by hand, or the supervisor is shutting down.
type State string

const (
	StateNotStarted State = "not_started"
	StateStarting   State = "starting"
	StateRunning    State = "running"
	StateExited     State = "exited"
	StateCrashed    State = "crashed"
	StateRestarting State = "restarting"
	StateStopped    State = "stopped"
)

func (s State) String() string { return string(s) }

// live reports whether the state corresponds to a process that is expected to
// have an OS process behind it.
func (s State) live() bool {
	return s == StateStarting || s == StateRunning
}

// settled reports whether the state is final for shutdown purposes.
func (s State) settled() bool {
	return s == StateNotStarted || s == StateStopped
}
