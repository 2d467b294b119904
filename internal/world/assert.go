package world

import (
	"fmt"
	"sync/atomic"

	"github.com/annel0/ro-zone/internal/logging"
)

var assertionsEnabled atomic.Bool

// SetAssertions включает панику на нарушении инвариантов (debug.assertions).
// В выключенном режиме нарушение только логируется, а вызывающий код восстанавливается сам.
func SetAssertions(enabled bool) {
	assertionsEnabled.Store(enabled)
}

// AssertionsEnabled текущий режим проверок
func AssertionsEnabled() bool {
	return assertionsEnabled.Load()
}

// Assert проверяет условие. Возвращает cond, чтобы вызывающий мог выйти или зажать значение.
func Assert(cond bool, format string, args ...any) bool {
	if cond {
		return true
	}
	msg := fmt.Sprintf(format, args...)
	if assertionsEnabled.Load() {
		panic("нарушение инварианта: " + msg)
	}
	logging.GetSimLogger().Warn("⚠️ Нарушение инварианта: %s", msg)
	return false
}

// AssertInRange проверяет, что v в [lo, hi], и возвращает зажатое значение
func AssertInRange(v, lo, hi int, what string) int {
	if !Assert(v >= lo && v <= hi, "%s = %d вне диапазона [%d, %d]", what, v, lo, hi) {
		if v < lo {
			return lo
		}
		return hi
	}
	return v
}
