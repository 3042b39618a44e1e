package constants

import "time"

const (
	ReadCacheTTL = 300 * time.Second
)

const (
	BackendTimeout = 10 * time.Second
	RequestTimeout = 30 * time.Second
)

const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	MinLevel  = 2.0
	MaxLevel  = 5.5
	LevelStep = 0.5
)

const (
	MinPasswordLength = 8
)
