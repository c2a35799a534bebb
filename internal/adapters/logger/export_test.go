package logger

// Exported for white-box tests.
var (
	CollectErrorEntries = collectErrorEntries
	FormatErrorEntries  = formatErrorEntries
	FlattenJoined       = flattenJoined
)
