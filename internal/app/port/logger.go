package port

// Logger is the leveled, key-value logging contract injected into providers
// that should not depend on a concrete logging backend. Args are alternating
// key/value pairs, slog style.
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
