package sim

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownControl возвращается для неизвестного идентификатора управления
var ErrUnknownControl = errors.New("unknown control")

// Control это логическое действие игрока
type Control uint8

const (
	ControlUp Control = iota
	ControlDown
	ControlLeft
	ControlRight
	ControlInteract // сесть в машину или выйти
	ControlFire
	controlCount
)

var controlNames = [controlCount]string{"up", "down", "left", "right", "interact", "fire"}

// String возвращает каноническое имя действия
func (c Control) String() string {
	if c < controlCount {
		return controlNames[c]
	}
	return "unknown"
}

// aliases сопоставляет коды клавиш и имена действий
var aliases = map[string]Control{
	"up": ControlUp, "arrowup": ControlUp, "keyw": ControlUp, "w": ControlUp,
	"down": ControlDown, "arrowdown": ControlDown, "keys": ControlDown, "s": ControlDown,
	"left": ControlLeft, "arrowleft": ControlLeft, "keya": ControlLeft, "a": ControlLeft,
	"right": ControlRight, "arrowright": ControlRight, "keyd": ControlRight, "d": ControlRight,
	"interact": ControlInteract, "space": ControlInteract, "keye": ControlInteract, "e": ControlInteract,
	"fire": ControlFire, "keyj": ControlFire, "j": ControlFire, "controlleft": ControlFire,
}

// ParseControl разбирает код клавиши ("ArrowUp", "KeyW") или имя действия ("up")
func ParseControl(name string) (Control, error) {
	if c, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownControl, name)
}

// Input это удерживаемые действия и нажатия текущего тика. Нажатия
// срабатывают один раз и очищаются после продвижения времени.
type Input struct {
	held    [controlCount]bool
	pressed [controlCount]bool
}

// Press отмечает начало удержания; повторное нажатие без отпускания не считается
func (in *Input) Press(c Control) {
	if c >= controlCount {
		return
	}
	if !in.held[c] {
		in.pressed[c] = true
	}
	in.held[c] = true
}

// Release отпускает действие
func (in *Input) Release(c Control) {
	if c < controlCount {
		in.held[c] = false
	}
}

// SetHeld заменяет набор удерживаемых действий. Новые действия
// считаются нажатыми в этом тике.
func (in *Input) SetHeld(controls []Control) {
	var next [controlCount]bool
	for _, c := range controls {
		if c < controlCount {
			next[c] = true
		}
	}
	for c := Control(0); c < controlCount; c++ {
		if next[c] && !in.held[c] {
			in.pressed[c] = true
		}
	}
	in.held = next
}

// Held проверяет удержание
func (in *Input) Held(c Control) bool { return c < controlCount && in.held[c] }

// Consume возвращает и гасит нажатие
func (in *Input) Consume(c Control) bool {
	if c >= controlCount || !in.pressed[c] {
		return false
	}
	in.pressed[c] = false
	return true
}

// ClearPressed сбрасывает все нажатия
func (in *Input) ClearPressed() { in.pressed = [controlCount]bool{} }

// ClearAll отпускает всё
func (in *Input) ClearAll() { *in = Input{} }

// Axis возвращает направление по двум противоположным действиям
func (in *Input) Axis(neg, pos Control) float64 {
	v := 0.0
	if in.Held(pos) {
		v++
	}
	if in.Held(neg) {
		v--
	}
	return v
}

// HeldNames возвращает имена удерживаемых действий по порядку
func (in *Input) HeldNames() []string {
	names := make([]string, 0, controlCount)
	for c := Control(0); c < controlCount; c++ {
		if in.held[c] {
			names = append(names, c.String())
		}
	}
	return names
}
