package domain

// Action identifies which build step a task performs.
type Action string

const (
	// ActionGroup is a task without work of its own; it only aggregates dependencies.
	ActionGroup Action = ""
	// ActionStyles compiles a style bundle.
	ActionStyles Action = "styles"
	// ActionScripts bundles a script entry point.
	ActionScripts Action = "scripts"
	// ActionFeatures generates the feature-detection snippet.
	ActionFeatures Action = "features"
	// ActionShame copies legacy scripts verbatim.
	ActionShame Action = "shame"
	// ActionFavicon copies the favicon to the destination root.
	ActionFavicon Action = "favicon"
	// ActionSprite merges vector icons into a sprite.
	ActionSprite Action = "sprite"
	// ActionImages optimizes raster images.
	ActionImages Action = "images"
	// ActionAssemble generates HTML pages.
	ActionAssemble Action = "assemble"
	// ActionStyleStats checks compiled stylesheets for near-duplicate colors
	// and reports their metrics.
	ActionStyleStats Action = "stylestats"
	// ActionCommand runs a user-defined shell command.
	ActionCommand Action = "command"
)

// Built-in task names.
const (
	TaskAll          = "all"
	TaskStyles       = "styles"
	TaskScripts      = "scripts"
	TaskModernizr    = "modernizr"
	TaskScriptsShame = "scriptsShame"
	TaskFavicon      = "favicon"
	TaskSvgIcons     = "svgIcons"
	TaskImages       = "images"
	TaskAssemble     = "assemble"
	TaskTest         = "test"
)

// BuildTargets are the tasks the default build runs after cleaning.
var BuildTargets = []string{TaskStyles, TaskScripts, TaskScriptsShame, TaskImages, TaskAssemble}

// StyleTaskName returns the name of the task compiling a style bundle.
func StyleTaskName(bundle string) string {
	return TaskStyles + ":" + bundle
}

// ScriptTaskName returns the name of the task bundling a script entry.
func ScriptTaskName(bundle string) string {
	return TaskScripts + ":" + bundle
}
