package config

// Swatchfile represents the structure of the swatch.yaml configuration file.
// Every field is optional; omitted values fall back to the built-in layout.
type Swatchfile struct {
	Version  string                     `yaml:"version"`
	Root     string                     `yaml:"root"`
	Dest     string                     `yaml:"dest"`
	Browsers []string                   `yaml:"browsers"`
	Styles   map[string]*StyleBundleDTO `yaml:"styles"`
	Scripts  map[string]*ScriptDTO      `yaml:"scripts"`
	Shame    *ShameDTO                  `yaml:"shame"`
	Images   *CopyDTO                   `yaml:"images"`
	Favicon  *CopyDTO                   `yaml:"favicon"`
	Icons    *CopyDTO                   `yaml:"icons"`
	Assemble *AssembleDTO               `yaml:"assemble"`
	Server   *ServerDTO                 `yaml:"server"`
	Test     *StyleTestDTO              `yaml:"test"`
	Watch    []WatchDTO                 `yaml:"watch"`
	Tasks    map[string]*TaskDTO        `yaml:"tasks"`
}

// StyleBundleDTO represents one stylesheet bundle.
type StyleBundleDTO struct {
	Entry               string          `yaml:"entry"`
	Output              string          `yaml:"output"`
	Preprocessor        []string        `yaml:"preprocessor"`
	CombineMediaQueries *bool           `yaml:"combineMediaQueries"`
	EmbedImages         *EmbedImagesDTO `yaml:"embedImages"`
}

// EmbedImagesDTO represents the image inlining settings of a stylesheet bundle.
type EmbedImagesDTO struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
	Limit      int64    `yaml:"limit"`
}

// ScriptDTO represents one script bundle.
type ScriptDTO struct {
	Entry  string `yaml:"entry"`
	Output string `yaml:"output"`
}

// ShameDTO represents the unbundled scripts and their feature detection tests.
type ShameDTO struct {
	Src      string   `yaml:"src"`
	Output   string   `yaml:"output"`
	Features []string `yaml:"features"`
}

// CopyDTO represents a source path and its destination.
type CopyDTO struct {
	Src    string `yaml:"src"`
	Output string `yaml:"output"`
}

// AssembleDTO represents the page assembler inputs.
type AssembleDTO struct {
	Layouts   string `yaml:"layouts"`
	Layout    string `yaml:"layout"`
	Materials string `yaml:"materials"`
	Data      string `yaml:"data"`
	Docs      string `yaml:"docs"`
	Views     string `yaml:"views"`
	Output    string `yaml:"output"`
}

// ServerDTO represents the development server address.
type ServerDTO struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StyleTestDTO represents the stylesheet checks of the test task.
type StyleTestDTO struct {
	Bundles   []string `yaml:"bundles"`
	Threshold float64  `yaml:"threshold"`
	Ignore    []string `yaml:"ignore"`
	Strict    bool     `yaml:"strict"`
}

// WatchDTO binds a glob to the task it triggers in development mode.
type WatchDTO struct {
	Pattern           string `yaml:"pattern"`
	Task              string `yaml:"task"`
	Reload            string `yaml:"reload"`
	InvalidateScripts bool   `yaml:"invalidateScripts"`
}

// TaskDTO represents a user defined shell task.
type TaskDTO struct {
	Input       []string          `yaml:"input"`
	Cmd         []string          `yaml:"cmd"`
	Target      []string          `yaml:"target"`
	DependsOn   []string          `yaml:"dependsOn"`
	Environment map[string]string `yaml:"environment"`
	WorkingDir  string            `yaml:"workingDir"`
}
