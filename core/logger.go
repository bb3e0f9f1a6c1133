package core

// Logger reports messages to the app's log sinks.
// args may hold an error, a map[string]interface{} of extras, and the user.Principal behind the request.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
