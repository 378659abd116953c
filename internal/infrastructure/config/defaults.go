package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRefreshTimeout  = 5 * time.Second
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1
)
