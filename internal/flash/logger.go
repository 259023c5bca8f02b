package flash

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Logger receives warnings about malformed session data the store had to
// discard.
type Logger interface {
	Warnf(format string, v ...any)
}

type defaultLogger struct {
	log *log.Logger
}

func (l *defaultLogger) Warnf(format string, v ...any) {
	_ = l.log.Output(3, fmt.Sprintf(format, v...))
}

var (
	loggerMu sync.RWMutex
	logger   Logger = &defaultLogger{
		log: log.New(os.Stderr, "flash: ", log.LstdFlags|log.Lshortfile),
	}
)

// SetLogger replaces the package logger. It is safe to call while Stores are
// in use.
func SetLogger(l Logger) {
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

func warnf(format string, v ...any) {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	l.Warnf(format, v...)
}
