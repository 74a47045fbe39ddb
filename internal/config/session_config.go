package config

import "time"

type SessionConfig interface {
	GetMaxSessionAge() time.Duration
	GetSweepInterval() time.Duration
}

type Sessions struct{}

var _ SessionConfig = Sessions{}

// GetMaxSessionAge is the idle age after which the sweep evicts a session.
func (Sessions) GetMaxSessionAge() time.Duration {
	return GetEnvDuration("SESSION_MAX_AGE", 24*time.Hour)
}

func (Sessions) GetSweepInterval() time.Duration {
	return GetEnvDuration("SESSION_SWEEP_INTERVAL", 1*time.Hour)
}
