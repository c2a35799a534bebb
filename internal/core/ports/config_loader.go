package ports

import "go.trai.ch/swatch/internal/core/domain"

// LoadOptions controls how a project configuration is loaded.
type LoadOptions struct {
	// ConfigPath overrides configuration discovery when set.
	ConfigPath string
	// Dev forces development mode regardless of the environment.
	Dev bool
}

// ConfigLoader defines the interface for loading the build configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration from the given working directory and returns
	// the build configuration together with its validated task graph.
	Load(cwd string, opts LoadOptions) (*domain.Project, error)
}
