package core

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

type LogLevel = log.Level

const (
	LogLevelDebug LogLevel = log.DebugLevel
	LogLevelInfo  LogLevel = log.InfoLevel
	LogLevelWarn  LogLevel = log.WarnLevel
	LogLevelError LogLevel = log.ErrorLevel
	LogLevelFatal LogLevel = log.FatalLevel
)

// maximum number of distinct keys remembered by LogWarnOnce
const warnOnceCapacity = 512

var once sync.Once

type logger struct {
	*log.Logger
	// keys already reported through LogWarnOnce
	reported *lru.Cache[string, struct{}]
}

var singleton *logger

func getLogger() *logger {
	if singleton == nil {
		once.Do(
			func() {
				l := log.NewWithOptions(os.Stderr, log.Options{
					ReportCaller:    true,
					ReportTimestamp: true,
					TimeFormat:      time.RFC3339,
					Prefix:          "Prism 🔺",
					CallerOffset:    1,
				})
				l.SetLevel(log.DebugLevel)
				reported, _ := lru.New[string, struct{}](warnOnceCapacity)
				singleton = &logger{Logger: l, reported: reported}
			})
	}
	return singleton
}

// ParseLogLevel converts a configuration string (debug, info, warn, error, fatal)
// into a LogLevel.
func ParseLogLevel(level string) (LogLevel, error) {
	l, err := log.ParseLevel(level)
	if err != nil {
		return LogLevelInfo, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

func SetLogLevel(level LogLevel) {
	getLogger().SetLevel(level)
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

// LogWarnOnce logs the warning only the first time key is seen.
// Returns true if the message was emitted.
func LogWarnOnce(key string, msg string, args ...interface{}) bool {
	l := getLogger()
	if ok, _ := l.reported.ContainsOrAdd(key, struct{}{}); ok {
		return false
	}
	l.Warnf(msg, args...)
	return true
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
