package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// InitLogger configures the global logger. Output always goes to stdout; when
// file is set it is additionally written to a rotating log file.
func InitLogger(file string, maxSizeMB, maxBackups, maxAgeDays int, compress bool, level string) {
	var out io.Writer = os.Stdout
	if file != "" {
		out = zerolog.MultiLevelWriter(os.Stdout, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   compress,
		})
	}

	l := zerolog.New(out).With().Timestamp().Logger().Level(parseLevel(level))

	mu.Lock()
	logger = l
	mu.Unlock()
}

// SetLogLevel changes the level of the global logger. Unknown levels fall back to info.
func SetLogLevel(level string) {
	mu.Lock()
	logger = logger.Level(parseLevel(level))
	mu.Unlock()
}

// SetLoggerForTest replaces the global logger.
func SetLoggerForTest(l zerolog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Debug logs msg with key/value pairs at debug level.
func Debug(msg string, kv ...interface{}) { write(zerolog.DebugLevel, msg, kv) }

// Info logs msg with key/value pairs at info level.
func Info(msg string, kv ...interface{}) { write(zerolog.InfoLevel, msg, kv) }

// Warn logs msg with key/value pairs at warn level.
func Warn(msg string, kv ...interface{}) { write(zerolog.WarnLevel, msg, kv) }

// Error logs msg with key/value pairs at error level.
func Error(msg string, kv ...interface{}) { write(zerolog.ErrorLevel, msg, kv) }

func write(level zerolog.Level, msg string, kv []interface{}) {
	mu.RLock()
	l := logger
	mu.RUnlock()

	e := l.WithLevel(level)
	if e == nil {
		return
	}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		// A dangling key is logged with a nil value.
		if i+1 >= len(kv) {
			e = e.Interface(key, nil)
			break
		}
		switch v := kv[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}
