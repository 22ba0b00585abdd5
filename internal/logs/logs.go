package logs

// Logger is the logging contract every component depends on. Concrete
// implementations live in the slog subpackage; tests use mocks.LoggerMock.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}
