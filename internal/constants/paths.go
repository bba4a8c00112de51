package constants

// Log file names.
const (
	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.docflow/logs/docflow.log
	CLILogFileName = "docflow.log"
)

// Log rotation settings for the CLI log file.
const (
	LogMaxSizeMB  = 10
	LogMaxBackups = 5
	LogMaxAgeDays = 30
	LogCompress   = true
)

// Configuration file names.
const (
	// GlobalConfigName is the name of the global docflow configuration file.
	GlobalConfigName = "config.yaml"

	// EnvPrefix is the prefix of every docflow environment variable.
	EnvPrefix = "DOCFLOW"
)

// Object store key prefixes.
const (
	// ClientsPrefix roots every generated or signed document.
	ClientsPrefix = "clients"

	// SnapshotsPrefix roots the best-effort template snapshots taken before migrations.
	SnapshotsPrefix = "snapshots/migrations"
)
