package domain

import "path/filepath"

const (
	// SwatchDirName is the name of the internal workspace directory.
	SwatchDirName = ".swatch"

	// StoreDirName is the name of the build info store directory.
	StoreDirName = "store"

	// StageDirName is the name of the directory holding intermediate files.
	StageDirName = "stage"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "swatch.yaml"

	// EnvFileName is the optional dotenv file read next to the configuration.
	EnvFileName = ".env"

	// DevEnvVar toggles development mode when set to a truthy value.
	DevEnvVar = "SWATCH_DEV"

	// LogFormatEnvVar selects "json" or "pretty" log output.
	LogFormatEnvVar = "SWATCH_LOG_FORMAT"

	// LogLevelEnvVar sets the minimum log level: warn, error or info.
	LogLevelEnvVar = "SWATCH_LOG_LEVEL"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultStorePath returns the build info store path relative to the project root.
func DefaultStorePath() string {
	return filepath.Join(SwatchDirName, StoreDirName)
}

// DefaultStagePath returns the staging path relative to the project root.
func DefaultStagePath() string {
	return filepath.Join(SwatchDirName, StageDirName)
}
