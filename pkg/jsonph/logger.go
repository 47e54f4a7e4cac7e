package jsonph

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// LoggerOptions configures the default hclog-backed logger.
type LoggerOptions struct {
	// Level is the minimum severity: trace, debug, info, warn, error or off.
	// Empty means info.
	Level string
	// Output defaults to os.Stderr.
	Output io.Writer
	// JSON selects JSON lines over hclog's human format. The zero value of
	// LoggerOptions therefore logs text; NewLogger callers usually set it.
	JSON bool
}

// NewLogger creates a Logger backed by go-hclog.
func NewLogger(opts LoggerOptions) (Logger, error) {
	levelName := opts.Level
	if levelName == "" {
		levelName = constants.DefaultLogLevel
	}

	level := hclog.LevelFromString(levelName)
	if level == hclog.NoLevel {
		return nil, fmt.Errorf("%w: %q", constants.ErrInvalidLogLevel, levelName)
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	return &hclogLogger{
		logger: hclog.New(&hclog.LoggerOptions{
			Name:       constants.LoggerName,
			Level:      level,
			Output:     output,
			JSONFormat: opts.JSON,
		}),
	}, nil
}

// NewHCLogAdapter wraps an existing hclog.Logger.
func NewHCLogAdapter(logger hclog.Logger) Logger {
	return &hclogLogger{logger: logger}
}

type hclogLogger struct {
	logger hclog.Logger
}

func (l *hclogLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, fieldArgs(fields)...)
}

func (l *hclogLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, fieldArgs(fields)...)
}

func (l *hclogLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, fieldArgs(fields)...)
}

func (l *hclogLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, fieldArgs(fields)...)
}

// fieldArgs flattens fields into hclog's alternating key/value form, sorted so
// output is stable.
func fieldArgs(fields map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	args := make([]interface{}, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}

	return args
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}
