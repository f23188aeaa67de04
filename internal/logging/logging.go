package logging

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Field struct {
	Key   string
	Value any
}

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Enabled(level Level) bool
}

type zeroLogger struct {
	zl    zerolog.Logger
	level Level
}

// New returns a logger writing key=value console lines to out.
func New(out io.Writer, level Level) Logger {
	return NewWithFormat(out, level, FormatConsole)
}

func NewWithFormat(out io.Writer, level Level, format string) Logger {
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		zl := zerolog.New(out).Level(zerologLevel(level)).With().Timestamp().Logger()
		return &zeroLogger{zl: zl, level: level}
	}
	writer := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    true,
		TimeFormat: time.RFC3339Nano,
		FormatTimestamp: func(i any) string {
			return "ts=" + toString(i)
		},
		FormatLevel: func(i any) string {
			return "level=" + toString(i)
		},
		FormatMessage: func(i any) string {
			return "msg=" + quoteIfNeeded(toString(i))
		},
		FormatFieldName: func(i any) string {
			return toString(i) + "="
		},
		// string values arrive already quoted when they need it
		FormatFieldValue: func(i any) string {
			return toString(i)
		},
	}
	zl := zerolog.New(writer).Level(zerologLevel(level)).With().Timestamp().Logger()
	return &zeroLogger{zl: zl, level: level}
}

func Nop() Logger {
	return &zeroLogger{zl: zerolog.Nop(), level: Error + 1}
}

func (l *zeroLogger) Enabled(level Level) bool {
	if l == nil {
		return false
	}
	return level >= l.level
}

func (l *zeroLogger) With(fields ...Field) Logger {
	if l == nil {
		return Nop()
	}
	ctx := l.zl.With()
	for _, field := range fields {
		ctx = ctx.Interface(field.Key, field.Value)
	}
	return &zeroLogger{zl: ctx.Logger(), level: l.level}
}

func (l *zeroLogger) Debug(msg string, fields ...Field) { l.log(Debug, msg, fields...) }
func (l *zeroLogger) Info(msg string, fields ...Field)  { l.log(Info, msg, fields...) }
func (l *zeroLogger) Warn(msg string, fields ...Field)  { l.log(Warn, msg, fields...) }
func (l *zeroLogger) Error(msg string, fields ...Field) { l.log(Error, msg, fields...) }

func (l *zeroLogger) log(level Level, msg string, fields ...Field) {
	if l == nil || level < l.level {
		return
	}
	event := l.zl.WithLevel(zerologLevel(level))
	if event == nil {
		return
	}
	for _, field := range fields {
		switch v := field.Value.(type) {
		case error:
			if v == nil {
				event = event.Interface(field.Key, nil)
				continue
			}
			event = event.Str(field.Key, v.Error())
		case time.Duration:
			event = event.Str(field.Key, v.String())
		default:
			event = event.Interface(field.Key, v)
		}
	}
	event.Msg(msg)
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case Debug:
		return zerolog.DebugLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func quoteIfNeeded(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsAny(value, " \t\n\r\"=") {
		return strconv.Quote(value)
	}
	return value
}

func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func NewRequestID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(buf[:])
}

func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}
