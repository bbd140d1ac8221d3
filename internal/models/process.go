package models

// Process is the wire representation of one supervised service.
type Process struct {
	Name     string `json:"name"`
	State    string `json:"state"`
	Pid      int    `json:"pid"`
	Uptime   string `json:"uptime"`
	Restarts int    `json:"restarts"`
	ExitCode int    `json:"exit_code"`
}

// LogEntry is one multiplexed line from a child process or the supervisor itself.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Level     string `json:"level"`
	Service   string `json:"service,omitempty"`
}
