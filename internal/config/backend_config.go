package config

import "time"

type BackendConfig interface {
	GetBackendURL() string
	GetBackendTimeout() time.Duration
}

type Backend struct {
	URL     string        `env:"BACKEND_URL"     envDefault:"http://localhost:4000"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
}

var _ BackendConfig = Backend{}

func (b Backend) GetBackendURL() string { return b.URL }
func (b Backend) GetBackendTimeout() time.Duration { return b.Timeout }
