// Package logger holds loom's global zap logger and the structured field
// names every component logs with.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the process-wide logger. It discards everything until
	// Initialize is called, so library users never hit a nil logger.
	Logger = zap.NewNop().Sugar()

	// JSONOutput reports whether Initialize selected the JSON encoder
	JSONOutput bool

	level  = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	output = zapcore.Lock(os.Stderr)
)

// SetOutput redirects log output. It applies to the next Initialize.
func SetOutput(w io.Writer) {
	output = zapcore.Lock(zapcore.AddSync(w))
}

// Initialize builds the global logger.
// jsonOutput selects the JSON encoder; verbosity is the -v flag count.
func Initialize(jsonOutput bool, verbosity int) error {
	JSONOutput = jsonOutput
	level.SetLevel(VerbosityToLevel(verbosity))

	var enc zapcore.Encoder
	if jsonOutput {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	} else {
		enc = newMinimalEncoder()
	}

	Logger = zap.New(zapcore.NewCore(enc, output, level)).Sugar()
	return nil
}

// SetVerbosity changes the level of the initialized logger in place, e.g.
// after a config reload in watch mode.
func SetVerbosity(verbosity int) {
	level.SetLevel(VerbosityToLevel(verbosity))
}

// Level returns the current minimum level.
func Level() zapcore.Level { return level.Level() }

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

func Infow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, keysAndValues...)
	}
}

func Errorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Errorw(msg, keysAndValues...)
	}
}

func Warnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, keysAndValues...)
	}
}

func Debugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, keysAndValues...)
	}
}
