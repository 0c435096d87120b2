package app

import "github.com/jwulff/romakan/internal/config"

// ConfigChangedMsg carries a reloaded configuration.
type ConfigChangedMsg struct {
	Config *config.Config
}

// ConfigErrorMsg is sent when a config reload fails.
type ConfigErrorMsg struct {
	Err error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
