// Package log configures apex/log for treediff and exposes thin helpers so
// callers do not import apex directly.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvVar names the environment variable holding the log level.
const EnvVar = "TREEDIFF_LOG"

var (
	traceEnabled bool
	level        log.Level
)

// InitLogger sets up apex with the custom handler and a level taken from
// TREEDIFF_LOG. debug forces at least debug level regardless of the env.
func InitLogger(debug bool) {
	envLevel := strings.ToLower(os.Getenv(EnvVar))
	if envLevel == "" {
		envLevel = "error"
	}
	if debug && envLevel != "trace" {
		envLevel = "debug"
	}
	traceEnabled = envLevel == "trace"
	level = ParseLevel(envLevel)
	log.SetHandler(NewHandler(os.Stderr))
	log.SetLevel(level)
}

// Verbose lowers the level to info. A debug level is kept.
func Verbose() {
	if level > log.InfoLevel {
		level = log.InfoLevel
		log.SetLevel(level)
	}
}

// ParseLevel maps a level name onto an apex level. Unknown names fall back
// to error.
func ParseLevel(name string) log.Level {
	switch strings.ToLower(name) {
	case "trace", "debug":
		// Trace messages are emitted at debug level with a marker.
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.ErrorLevel
	}
}

// Handler formats log entries as "timestamp level message fields".
type Handler struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewHandler creates a Handler writing to w.
func NewHandler(w io.Writer) *Handler {
	return &Handler{out: w, now: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *Handler) HandleLog(e *log.Entry) error {
	timestamp := h.now().Format("2006-01-02 15:04:05")
	message := e.Message
	level := "?"
	if strings.HasPrefix(message, "TRACE: ") {
		level = "T"
		message = message[7:]
	} else {
		switch e.Level {
		case log.DebugLevel:
			level = "D"
		case log.InfoLevel:
			level = "I"
		case log.WarnLevel:
			level = "W"
		case log.ErrorLevel:
			level = "E"
		case log.FatalLevel:
			level = "F"
		}
	}

	var fields strings.Builder
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(&fields, " %s=%v", name, e.Fields.Get(name))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.out, "%s %s %s%s\n", timestamp, level, message, fields.String())
	return err
}

// Tracef logs at Trace level (below Debug).
func Tracef(format string, args ...interface{}) {
	if traceEnabled {
		log.Debug("TRACE: " + fmt.Sprintf(format, args...))
	}
}

// Debugf logs at Debug level.
func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// Infof logs at Info level.
func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

// Warnf logs at Warn level.
func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

// WithError returns an entry with error.
func WithError(err error) *log.Entry {
	return log.WithError(err)
}

// WithField returns an entry carrying a single field.
func WithField(key string, value interface{}) *log.Entry {
	return log.WithField(key, value)
}
