package domain

import "go.trai.ch/zerr"

// Configuration errors. They abort a build before any task runs.
var (
	// ErrTaskAlreadyExists is returned when attempting to add a task with a name that already exists.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrOverlappingOutputs is returned when two tasks declare the same or nested output paths.
	ErrOverlappingOutputs = zerr.New("tasks declare overlapping outputs")

	// ErrTaskNotFound is returned when a requested task is not found in the graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrReservedTaskName is returned when a task uses a reserved name (e.g., "all").
	ErrReservedTaskName = zerr.New("task name 'all' is reserved")

	// ErrConfigNotFound is returned when the config file cannot be found.
	ErrConfigNotFound = zerr.New("could not find swatch.yaml")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when a configuration value is missing or malformed.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrUnknownFeature is returned when a feature-detection test is not supported.
	ErrUnknownFeature = zerr.New("unknown feature test")

	// ErrInvalidBrowser is returned when a browser support entry cannot be parsed.
	ErrInvalidBrowser = zerr.New("invalid browser target, expected '<engine> <version>'")

	// ErrInvalidGlob is returned when a watch or input pattern does not compile.
	ErrInvalidGlob = zerr.New("invalid glob pattern")
)

// Task and tool errors. They fail a single task; the build continues for independent tasks.
var (
	// ErrBuildExecutionFailed is returned when the build execution fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrTaskExecutionFailed is returned when a task execution fails.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrTaskPanicked is returned when an action panics.
	ErrTaskPanicked = zerr.New("task panicked")

	// ErrUnknownAction is returned when a task names an action no adapter performs.
	ErrUnknownAction = zerr.New("unknown task action")

	// ErrToolInvocation is returned when an external tool reports problems.
	ErrToolInvocation = zerr.New("tool reported errors")

	// ErrCommandFailed is returned when a shell command exits unsuccessfully.
	ErrCommandFailed = zerr.New("command failed")

	// ErrDuplicateSymbol is returned when two icons share the same base name.
	ErrDuplicateSymbol = zerr.New("duplicate sprite symbol")

	// ErrInvalidSVG is returned when an icon is not a well-formed SVG document.
	ErrInvalidSVG = zerr.New("invalid svg document")

	// ErrTemplateFailed is returned when a page cannot be rendered.
	ErrTemplateFailed = zerr.New("failed to render page")
)

// IO and cache errors.
var (
	// ErrInputNotFound is returned when a declared input file or directory is not found.
	ErrInputNotFound = zerr.New("input not found")

	// ErrInputResolutionFailed is returned when input resolution fails.
	ErrInputResolutionFailed = zerr.New("failed to resolve inputs")

	// ErrInputHashComputationFailed is returned when input hash computation fails.
	ErrInputHashComputationFailed = zerr.New("failed to compute input hash")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileReadFailed is returned when a file cannot be read.
	ErrFileReadFailed = zerr.New("failed to read file")

	// ErrFileWriteFailed is returned when an artifact cannot be written.
	ErrFileWriteFailed = zerr.New("failed to write file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrPathStatFailed is returned when stating a path fails.
	ErrPathStatFailed = zerr.New("failed to stat path")

	// ErrCleanFailed is returned when the destination tree cannot be removed.
	ErrCleanFailed = zerr.New("failed to clean destination")

	// ErrStoreCreateFailed is returned when the build info store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create build info store directory")

	// ErrStoreReadFailed is returned when the build info cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build info")

	// ErrStoreUnmarshalFailed is returned when the build info cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal build info")

	// ErrStoreMarshalFailed is returned when the build info cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal build info")

	// ErrStoreWriteFailed is returned when the build info cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build info")

	// ErrWatchFailed is returned when the file watcher cannot be started.
	ErrWatchFailed = zerr.New("failed to start file watcher")

	// ErrServeFailed is returned when the development server cannot be started.
	ErrServeFailed = zerr.New("failed to start development server")
)
