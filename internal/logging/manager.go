package logging

import (
	"fmt"
	"sort"
	"sync"
)

// Компоненты, под которыми пишут пакеты сервера
const (
	ComponentSim      = "sim"
	ComponentServer   = "server"
	ComponentAPI      = "api"
	ComponentCache    = "cache"
	ComponentRecorder = "recorder"
	ComponentEventBus = "eventbus"
	ComponentWebhooks = "webhooks"
)

// Levels это пара порогов логгера: консоль и файл
type Levels struct {
	Console LogLevel
	File    LogLevel
}

// LoggerManager раздаёт по одному логгеру на компонент и держит
// переопределённые уровни. Переопределение действует и на уже
// созданные логгеры, и на те, что появятся позже.
type LoggerManager struct {
	mu        sync.RWMutex
	loggers   map[string]*Logger
	overrides map[string]Levels
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = newManager()
	})
	return globalManager
}

func newManager() *LoggerManager {
	return &LoggerManager{
		loggers:   make(map[string]*Logger),
		overrides: make(map[string]Levels),
	}
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	logger, ok := lm.loggers[component]
	lm.mu.RUnlock()
	if ok {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("logger %s: %w", component, err)
	}
	if lv, ok := lm.overrides[component]; ok {
		logger.SetLevels(lv.Console, lv.File)
	}
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер компонента или общий логгер при ошибке
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err != nil {
		return def()
	}
	return logger
}

// SetLogLevel переопределяет пороги одного компонента
func (lm *LoggerManager) SetLogLevel(component string, console, file LogLevel) {
	lm.SetOverrides(map[string]Levels{component: {Console: console, File: file}})
}

// SetOverrides добавляет переопределения порогов по компонентам
func (lm *LoggerManager) SetOverrides(levels map[string]Levels) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for component, lv := range levels {
		lm.overrides[component] = lv
		if logger, ok := lm.loggers[component]; ok {
			logger.SetLevels(lv.Console, lv.File)
		}
	}
}

// Overridden возвращает переопределённые пороги компонента
func (lm *LoggerManager) Overridden(component string) (Levels, bool) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	lv, ok := lm.overrides[component]
	return lv, ok
}

// ListComponents возвращает имена созданных логгеров по алфавиту
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return sortedKeys(lm.loggers)
}

// CloseAll закрывает файлы всех логгеров. Вызывается при выходе процесса.
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var firstErr error
	for _, component := range sortedKeys(lm.loggers) {
		if err := lm.loggers[component].Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close logger %s: %w", component, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return firstErr
}

func sortedKeys(m map[string]*Logger) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetComponentLogger это короткий путь к логгеру компонента
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetSimLogger() *Logger    { return GetComponentLogger(ComponentSim) }
func GetServerLogger() *Logger { return GetComponentLogger(ComponentServer) }
func GetAPILogger() *Logger    { return GetComponentLogger(ComponentAPI) }
