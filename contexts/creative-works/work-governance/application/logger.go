package application

import "log/slog"

// ModuleName is the "module" attribute on every work-governance log line.
const ModuleName = "creative-works/work-governance"

// ResolveLogger falls back to the process default so use cases built without
// a logger still log.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
