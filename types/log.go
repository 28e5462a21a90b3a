package types

// Level is the level of an engine log message.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LogOutput receives the engine's log messages.
type LogOutput interface {
	Log(message string, level Level)
}

// LogOutputFunc adapts a function to LogOutput.
type LogOutputFunc func(message string, level Level)

func (f LogOutputFunc) Log(message string, level Level) {
	f(message, level)
}
