package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultGracePeriod  = 10 * time.Second
	defaultRestartDelay = 1 * time.Second
	defaultHTTPAddr     = ":9001"
)

// Duration wraps time.Duration so config files can say "10s" instead of
// nanosecond integers.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// ProgramConfig is the declarative description of one managed child process:
// one `programs:` section in the supervisor config file.
type ProgramConfig struct {
	Name        string            `yaml:"-"`
	Command     string            `yaml:"command"`
	Args        []string          `yaml:"args,omitempty"`
	Directory   string            `yaml:"directory,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
	AutoStart   bool              `yaml:"autostart"`
	AutoRestart bool              `yaml:"autorestart"`
	// Delay between an exit and the relaunch attempt when autorestart is on.
	RestartDelay Duration `yaml:"restart_delay,omitempty"`
	StopSignal   string   `yaml:"stop_signal,omitempty"`
	StopTimeout  Duration `yaml:"stop_timeout,omitempty"`
	// "inherit" multiplexes onto the supervisor's own stream; any other
	// non-empty value is treated as a file path to append to.
	Stdout string `yaml:"stdout,omitempty"`
	Stderr string `yaml:"stderr,omitempty"`
}

// GlobalConfig is the `supervisor:` section.
type GlobalConfig struct {
	HTTPAddr    string   `yaml:"http_addr,omitempty"`
	GracePeriod Duration `yaml:"grace_period,omitempty"`
}

// SupervisorConfig is the parsed configuration file: global options plus the
// programs in declaration order. Loaded once at startup, immutable afterwards.
type SupervisorConfig struct {
	Global   GlobalConfig
	Programs []ProgramConfig
}

type supervisorFile struct {
	Supervisor GlobalConfig `yaml:"supervisor"`
	Programs   yaml.Node    `yaml:"programs"`
}

// LoadSupervisorConfig reads and validates a supervisor config file. Program
// sections are a mapping keyed by program name; declaration order is kept.
func LoadSupervisorConfig(path string) (*SupervisorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSupervisorConfig(data)
}

func ParseSupervisorConfig(data []byte) (*SupervisorConfig, error) {
	var file supervisorFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &SupervisorConfig{Global: file.Supervisor}
	if cfg.Global.HTTPAddr == "" {
		cfg.Global.HTTPAddr = defaultHTTPAddr
	}
	if cfg.Global.GracePeriod <= 0 {
		cfg.Global.GracePeriod = Duration(defaultGracePeriod)
	}

	if !file.Programs.IsZero() {
		if file.Programs.Kind != yaml.MappingNode {
			return nil, errors.New("programs must be a mapping of name to program section")
		}
		seen := make(map[string]struct{}, len(file.Programs.Content)/2)
		for i := 0; i+1 < len(file.Programs.Content); i += 2 {
			keyNode := file.Programs.Content[i]
			valNode := file.Programs.Content[i+1]

			var prog ProgramConfig
			if err := valNode.Decode(&prog); err != nil {
				return nil, fmt.Errorf("program %q: %w", keyNode.Value, err)
			}
			prog.Name = keyNode.Value
			if _, dup := seen[prog.Name]; dup {
				return nil, fmt.Errorf("duplicate program name %q", prog.Name)
			}
			seen[prog.Name] = struct{}{}

			applyProgramDefaults(&prog)
			if err := validateProgram(prog); err != nil {
				return nil, fmt.Errorf("program %q: %w", prog.Name, err)
			}
			cfg.Programs = append(cfg.Programs, prog)
		}
	}

	return cfg, nil
}

func applyProgramDefaults(p *ProgramConfig) {
	if p.StopSignal == "" {
		p.StopSignal = "SIGTERM"
	}
	if p.StopTimeout <= 0 {
		p.StopTimeout = Duration(defaultGracePeriod)
	}
	if p.RestartDelay <= 0 {
		p.RestartDelay = Duration(defaultRestartDelay)
	}
	if p.Stdout == "" {
		p.Stdout = "inherit"
	}
	if p.Stderr == "" {
		p.Stderr = "inherit"
	}
}

func validateProgram(p ProgramConfig) error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Command == "" {
		return errors.New("command is required")
	}
	switch p.StopSignal {
	case "SIGTERM", "SIGINT", "SIGKILL", "SIGQUIT", "SIGHUP":
	default:
		return fmt.Errorf("unsupported stop_signal %q", p.StopSignal)
	}
	return nil
}
