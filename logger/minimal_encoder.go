package logger

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// palette holds the ANSI colors used by the console encoder
type palette struct {
	time      string
	component string
	fg        string
	value     string
	warn      string
	warnBg    string
	err       string
	errBg     string
}

var palettes = map[string]palette{
	// Gruvbox Dark (warm, muted)
	"gruvbox": {
		time:      "\x1b[38;5;108m",
		component: "\x1b[38;5;208m",
		fg:        "\x1b[38;5;223m",
		value:     "\x1b[38;5;175m",
		warn:      "\x1b[38;5;214m",
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;88m",
	},
	// Everforest Dark (forest greens)
	"everforest": {
		time:      "\x1b[38;5;107m",
		component: "\x1b[38;5;108m",
		fg:        "\x1b[38;5;223m",
		value:     "\x1b[38;5;109m",
		warn:      "\x1b[38;5;179m",
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;52m",
	},
}

// Current active theme
var currentTheme = "everforest"

// SetTheme configures the color scheme for log output.
// Unknown themes are ignored.
func SetTheme(theme string) {
	if _, ok := palettes[theme]; ok {
		currentTheme = theme
	}
}

func colors() palette {
	return palettes[currentTheme]
}

// minimalEncoder implements a calm, compact console encoder with theme support
// Format: "13:04:35  o.orchestrator  Generation completed  run_id=... duration_ms=12"
type minimalEncoder struct {
	zapcore.Encoder // Embed a base encoder for field serialization
	pool            buffer.Pool
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		pool:    buffer.NewPool(),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{
		Encoder: enc.Encoder.Clone(),
		pool:    enc.pool,
	}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	c := colors()
	final := enc.pool.Get()

	final.AppendString(c.time)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level: only shown for non-info entries
	if lvl := levelColorString(ent.Level, c); lvl != "" {
		final.AppendString("  ")
		final.AppendString(lvl)
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(c.component)
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(c.fg)
	final.AppendString(ent.Message)
	final.AppendString(colorReset)

	if rendered := renderFields(fields, c); rendered != "" {
		final.AppendString("  ")
		final.AppendString(rendered)
	}

	final.AppendString("\n")
	return final, nil
}

// levelColorString returns bold + colored + background for WARN/ERROR and plain DEBUG
func levelColorString(level zapcore.Level, c palette) string {
	switch level {
	case zapcore.InfoLevel:
		return ""
	case zapcore.DebugLevel:
		return "DEBUG"
	case zapcore.WarnLevel:
		return colorBold + c.warnBg + c.warn + "WARN" + colorReset
	default:
		return colorBold + c.errBg + c.err + level.CapitalString() + colorReset
	}
}

// abbreviateName shortens component names: loom.orchestrator -> l.orchestrator
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// fieldValue extracts the printable value from a zap field
func fieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.Float64Type:
		return strconv.FormatFloat(math.Float64frombits(uint64(field.Integer)), 'g', -1, 64)
	case zapcore.Float32Type:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(field.Integer))), 'g', -1, 32)
	case zapcore.BoolType:
		return fmt.Sprintf("%t", field.Integer == 1)
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

// renderFields prints fields as key=value pairs in the order they were logged
func renderFields(fields []zapcore.Field, c palette) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		val := fieldValue(field)
		if val == "" {
			continue
		}
		parts = append(parts, field.Key+"="+c.value+val+colorReset)
	}
	return strings.Join(parts, " ")
}
