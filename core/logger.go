package core

// Logger is any service that can report app events.
// expected args: error | map[string]interface{} | the request's session (used as the reported person).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
