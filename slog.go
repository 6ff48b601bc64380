package helpscot

import (
	"fmt"
	"log"
)

// SLogger is the helpscot internal logging interface. Plugins get one injected on registration
type SLogger interface {
	Printf(format string, v ...interface{})

	Debugf(format string, v ...interface{})
}

type sLogger struct {
	logger *log.Logger
	debug  bool
}

// NewSLogger creates a new helpscot logger writing to logger. Debug statements are only
// written when debug is true
func NewSLogger(logger *log.Logger, debug bool) SLogger {
	return &sLogger{logger: logger, debug: debug}
}

// Debugf logs a debug line after checking if the logger is in debug mode
func (sl *sLogger) Debugf(format string, v ...interface{}) {
	if sl.debug {
		sl.logger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Printf logs a line by delegating the call to Output
func (sl *sLogger) Printf(format string, v ...interface{}) {
	sl.logger.Output(2, fmt.Sprintf(format, v...))
}
