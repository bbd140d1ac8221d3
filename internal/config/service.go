package config

import (
	"fmt"
	"time"
)

const (
	// Fixed service ports, overridable through PORT depending on the
	// deployment target.
	DefaultAPIPort = 8000
	DefaultUIPort  = 8501

	DefaultUpstreamURL = "http://localhost:8000"
)

// ServiceConfig carries the runtime options every HTTP service needs. The
// upstream URL is only meaningful for services that call another one.
type ServiceConfig struct {
	Port            int
	UpstreamURL     string
	ShutdownTimeout time.Duration
}

func (c ServiceConfig) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// APIConfigFromEnv resolves the Inference Service config: fixed port 8000,
// PORT override.
func APIConfigFromEnv() (ServiceConfig, error) {
	port, err := EnvInt("PORT", DefaultAPIPort)
	if err != nil {
		return ServiceConfig{}, err
	}
	shutdown, err := EnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return ServiceConfig{}, err
	}
	return ServiceConfig{Port: port, ShutdownTimeout: shutdown}, nil
}

// UIConfigFromEnv resolves the UI Service config. API_URL locates the
// Inference Service; it is read once here and never refreshed. When unset the
// loopback default keeps the process able to start.
func UIConfigFromEnv() (ServiceConfig, error) {
	port, err := EnvInt("PORT", DefaultUIPort)
	if err != nil {
		return ServiceConfig{}, err
	}
	shutdown, err := EnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return ServiceConfig{}, err
	}
	return ServiceConfig{
		Port:            port,
		UpstreamURL:     EnvString("API_URL", DefaultUpstreamURL),
		ShutdownTimeout: shutdown,
	}, nil
}
