package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultService valor del campo "service" cuando Config.Service viene vacío.
const DefaultService = "clinica-bodegas-api"

// Config opciones para el logger.
type Config struct {
	Env     string    // development -> consola legible; cualquier otro -> JSON
	Level   string    // trace, debug, info, warn, error; desconocido -> info
	Service string    // campo fijo en cada evento
	Out     io.Writer // nil -> stdout
}

// Logger wrapper sobre zerolog. Los subloggers de traslado y línea fijan los ids de conciliación.
type Logger struct {
	zl zerolog.Logger
}

// New crea un logger estructurado y redirige el logger global de zerolog.
func New(cfg Config) *Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	if cfg.Env == "development" {
		out = zerolog.ConsoleWriter{Out: out}
	}
	service := cfg.Service
	if service == "" {
		service = DefaultService
	}

	zl := zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().Timestamp().Str("service", service).
		Logger()
	log.Logger = zl
	return &Logger{zl: zl}
}

// Nop descarta todo.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// ParseLevel acepta los niveles de zerolog; vacío o desconocido es info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// ForTransfer sublogger con transfer_id fijo.
func (l *Logger) ForTransfer(transferID string) *Logger {
	return &Logger{zl: l.zl.With().Str("transfer_id", transferID).Logger()}
}

// ForLine sublogger con transfer_line_id fijo.
func (l *Logger) ForLine(lineID string) *Logger {
	return &Logger{zl: l.zl.With().Str("transfer_line_id", lineID).Logger()}
}

func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }
