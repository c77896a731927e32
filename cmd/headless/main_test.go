package main

import (
	"bytes"
	"testing"

	"github.com/annel0/street-pursuit/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScript(t *testing.T) {
	steps, err := ParseScript("up+ArrowRight@1500; !interact@100 ;@2000;")
	require.NoError(t, err)
	require.Len(t, steps, 3)

	assert.Equal(t, []sim.Control{sim.ControlUp, sim.ControlRight}, steps[0].Held)
	assert.Equal(t, 1500.0, steps[0].Ms)
	assert.Equal(t, []sim.Control{sim.ControlInteract}, steps[1].Press)
	assert.Empty(t, steps[1].Held)
	assert.Empty(t, steps[2].Held, "Пустой шаг, просто ожидание")

	_, err = ParseScript("up")
	assert.Error(t, err, "Нет длительности")
	_, err = ParseScript("jump@10")
	assert.ErrorIs(t, err, sim.ErrUnknownControl)
	_, err = ParseScript("up@-5")
	assert.Error(t, err)
}

func TestRun_Deterministic(t *testing.T) {
	steps, err := ParseScript("up+left@800;!fire@50;@500")
	require.NoError(t, err)

	a := Run(sim.DefaultOptions(), steps, true)
	b := Run(sim.DefaultOptions(), steps, true)

	assert.Equal(t, a.Snapshot, b.Snapshot, "Одинаковый seed и сценарий дают одинаковый мир")
	assert.Equal(t, 48+3+30, a.Ticks)
	require.NotEmpty(t, a.Events)
	assert.Equal(t, sim.EventReset, a.Events[0].Kind)

	var out bytes.Buffer
	require.NoError(t, write(&out, a, false))
	assert.Contains(t, out.String(), `"coordinateSystem"`)
}
