package config

import (
	"errors"
	"time"
)

const minSessionSecretLength = 32

type SecurityConfig interface {
	GetSessionSecret() string
	GetSessionCookieName() string
	GetMaxSessionAge() time.Duration
}

type Security struct {
	SessionSecret string        `env:"SESSION_SECRET,required,unset"`
	CookieName    string        `env:"SESSION_COOKIE_NAME" envDefault:"session-token"`
	MaxAge        time.Duration `env:"SESSION_MAX_AGE"     envDefault:"720h"`
}

var _ SecurityConfig = Security{}

func (s Security) GetSessionSecret() string {
	return s.SessionSecret
}

func (s Security) GetSessionCookieName() string {
	return s.CookieName
}

func (s Security) GetMaxSessionAge() time.Duration {
	return s.MaxAge
}

func (s Security) validate() error {
	if len(s.SessionSecret) < minSessionSecretLength {
		return errors.New("SESSION_SECRET must be at least 32 characters")
	}
	if s.MaxAge <= 0 {
		return errors.New("SESSION_MAX_AGE must be positive")
	}
	return nil
}
