package domain

// ReloadKind is the kind of notification pushed to connected browsers.
type ReloadKind string

const (
	// ReloadNone sends no notification.
	ReloadNone ReloadKind = "none"
	// ReloadInject refreshes stylesheets in place, keeping page state.
	ReloadInject ReloadKind = "inject"
	// ReloadPage reloads the whole page.
	ReloadPage ReloadKind = "page"
)

// Valid reports whether k is a known reload kind.
func (k ReloadKind) Valid() bool {
	switch k {
	case ReloadNone, ReloadInject, ReloadPage:
		return true
	default:
		return false
	}
}

// WatchBinding ties a source glob to the task it triggers in watch mode.
type WatchBinding struct {
	// Pattern is matched against slash separated paths relative to the project root.
	Pattern string
	Task    InternedString
	Reload  ReloadKind
	// InvalidateScripts drops cached script bundles containing the changed file
	// before the task runs.
	InvalidateScripts bool
}

// Reload is a notification sent to live-reload clients.
type Reload struct {
	Kind ReloadKind
	// Paths lists the changed stylesheet URLs for an inject reload.
	Paths []string
}
