package logging

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// Компоненты зоны с собственными логгерами
const (
	ComponentSim      = "sim"
	ComponentCombat   = "combat"
	ComponentData     = "data"
	ComponentOutbound = "outbound"
	ComponentInbound  = "inbound"
	ComponentAPI      = "api"
)

// LoggerManager раздаёт логгеры компонентов и держит их уровни.
// Логгер создаётся при первом обращении и сразу получает настроенный уровень.
type LoggerManager struct {
	mu        sync.RWMutex
	loggers   map[string]*Logger
	level     LogLevel
	overrides map[string]LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{
			loggers:   make(map[string]*Logger),
			level:     INFO,
			overrides: make(map[string]LogLevel),
		}
	})
	return globalManager
}

// Configure задаёт общий уровень консоли и уровни отдельных компонентов.
// Применяется и к уже созданным логгерам.
func (lm *LoggerManager) Configure(level LogLevel, overrides map[string]LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.level = level
	lm.overrides = make(map[string]LogLevel, len(overrides))
	for c, l := range overrides {
		lm.overrides[c] = l
	}
	for c, logger := range lm.loggers {
		logger.SetLevels(lm.levelFor(c), TRACE)
	}
}

func (lm *LoggerManager) levelFor(component string) LogLevel {
	if l, ok := lm.overrides[component]; ok {
		return l
	}
	return lm.level
}

// Component возвращает логгер компонента. Если файл логов не открылся,
// компонент пишет только в stderr.
func (lm *LoggerManager) Component(component string) *Logger {
	lm.mu.RLock()
	logger, ok := lm.loggers[component]
	lm.mu.RUnlock()
	if ok {
		return logger
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, ok := lm.loggers[component]; ok {
		return logger
	}

	logger, err := NewLogger(component)
	if err != nil {
		logger = NewWriterLogger(component, os.Stderr, lm.levelFor(component))
		logger.Warn("Файловый лог недоступен: %v", err)
	}
	logger.SetLevels(lm.levelFor(component), TRACE)
	lm.loggers[component] = logger
	return logger
}

// Components имена созданных логгеров
func (lm *LoggerManager) Components() []string {
	lm.mu.RLock()
	names := make([]string, 0, len(lm.loggers))
	for c := range lm.loggers {
		names = append(names, c)
	}
	lm.mu.RUnlock()
	sort.Strings(names)
	return names
}

// CloseAll закрывает файлы всех логгеров
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("закрытие лога %s: %w", component, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return lastErr
}

func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().Component(component)
}

func GetSimLogger() *Logger      { return GetComponentLogger(ComponentSim) }
func GetCombatLogger() *Logger   { return GetComponentLogger(ComponentCombat) }
func GetDataLogger() *Logger     { return GetComponentLogger(ComponentData) }
func GetOutboundLogger() *Logger { return GetComponentLogger(ComponentOutbound) }
func GetInboundLogger() *Logger  { return GetComponentLogger(ComponentInbound) }
