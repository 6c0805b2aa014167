package codec

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the logger the codec writes debug output to, a nop logger
// unless SetLogger was called.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger replaces the codec logger. Call it before the first decode or
// encode; later calls race with running operations.
func SetLogger(l *zap.Logger) {
	logger = l
}
