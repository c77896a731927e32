package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает уровень из конфигурации ("debug", "INFO" и т.п.)
func ParseLevel(s string) (LogLevel, error) {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return INFO, fmt.Errorf("unknown log level %q: %w", s, err)
	}
	switch {
	case lvl <= zerolog.TraceLevel:
		return TRACE, nil
	case lvl == zerolog.DebugLevel:
		return DEBUG, nil
	case lvl == zerolog.InfoLevel, lvl == zerolog.NoLevel:
		return INFO, nil
	case lvl == zerolog.WarnLevel:
		return WARN, nil
	default:
		return ERROR, nil
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case TRACE:
		return zerolog.TraceLevel
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Options задаёт, куда и с какими уровнями пишут логгеры
type Options struct {
	Dir          string // каталог JSON-файлов; пусто: только консоль
	ConsoleLevel LogLevel
	FileLevel    LogLevel
	Console      io.Writer // по умолчанию os.Stdout
}

var (
	optionsMu sync.RWMutex
	options   = Options{ConsoleLevel: INFO, FileLevel: DEBUG}
)

// Configure задаёт параметры для логгеров, создаваемых после вызова
func Configure(opts Options) {
	optionsMu.Lock()
	options = opts
	optionsMu.Unlock()
}

func currentOptions() Options {
	optionsMu.RLock()
	defer optionsMu.RUnlock()
	return options
}

// Logger это логгер компонента поверх zerolog: человекочитаемая консоль
// и JSON-файл с отдельными порогами уровней
type Logger struct {
	component string
	zl        zerolog.Logger
	file      *os.File

	minConsoleLevel atomic.Int32
	minFileLevel    atomic.Int32
}

// gatedWriter пропускает записи не ниже порога; порог меняется на лету
type gatedWriter struct {
	w   io.Writer
	min *atomic.Int32
}

func (g gatedWriter) Write(p []byte) (int, error) { return g.w.Write(p) }

func (g gatedWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < zerolog.Level(g.min.Load()) {
		return len(p), nil
	}
	return g.w.Write(p)
}

// NewLogger создаёт логгер компонента по текущим Options
func NewLogger(component string) (*Logger, error) {
	opts := currentOptions()
	l := &Logger{component: component}
	l.minConsoleLevel.Store(int32(opts.ConsoleLevel.zerolog()))
	l.minFileLevel.Store(int32(opts.FileLevel.zerolog()))

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	writers := []io.Writer{gatedWriter{
		w:   zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05.000"},
		min: &l.minConsoleLevel,
	}}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("ошибка создания директории %s: %w", opts.Dir, err)
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		filename := filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.log", component, timestamp))
		file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
		}
		l.file = file
		writers = append(writers, gatedWriter{w: file, min: &l.minFileLevel})
	}

	l.zl = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerolog.TraceLevel).
		With().Timestamp().Str("component", component).Logger()
	return l, nil
}

// Close закрывает файл логгера
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Component возвращает имя компонента
func (l *Logger) Component() string { return l.component }

// Zerolog возвращает нижележащий логгер для структурированных записей
func (l *Logger) Zerolog() *zerolog.Logger { return &l.zl }

// SetLevels меняет пороги консоли и файла
func (l *Logger) SetLevels(console, file LogLevel) {
	l.minConsoleLevel.Store(int32(console.zerolog()))
	l.minFileLevel.Store(int32(file.zerolog()))
}

func (l *Logger) Trace(format string, args ...interface{}) { l.zl.Trace().Msgf(format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.zl.Error().Msgf(format, args...) }

// Глобальный логгер процесса
var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

func init() {
	defaultLogger, _ = NewLogger("default")
}

// InitDefaultLogger пересоздаёт глобальный логгер для компонента процесса
func InitDefaultLogger(component string) error {
	l, err := NewLogger(component)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	old := defaultLogger
	defaultLogger = l
	defaultMu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// CloseDefaultLogger закрывает файл глобального логгера
func CloseDefaultLogger() {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		_ = l.Close()
	}
}

func def() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Trace логирует сообщение уровня TRACE
func Trace(format string, args ...interface{}) { def().Trace(format, args...) }

// Debug логирует сообщение уровня DEBUG
func Debug(format string, args ...interface{}) { def().Debug(format, args...) }

// Info логирует сообщение уровня INFO
func Info(format string, args ...interface{}) { def().Info(format, args...) }

// Warn логирует сообщение уровня WARN
func Warn(format string, args ...interface{}) { def().Warn(format, args...) }

// Error логирует сообщение уровня ERROR
func Error(format string, args ...interface{}) { def().Error(format, args...) }
