package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/annel0/street-pursuit/internal/sim"
	"github.com/annel0/street-pursuit/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringList(t *testing.T) {
	assert.Nil(t, parseStringList(""))
	assert.Equal(t, []string{"busted", "wasted"}, parseStringList(" busted, ,wasted "))
}

func TestFrameCommands(t *testing.T) {
	path := t.TempDir()
	ctx := context.Background()

	err := withFrames(path, func(store storage.FrameStore, codec *storage.Codec) error {
		s := sim.NewSession(sim.DefaultOptions())
		s.Start()
		for i := 0; i < 3; i++ {
			s.Advance(500)
			data, err := codec.Encode(sim.Frame{Tick: s.Tick(), Snapshot: s.Snapshot(), Events: s.DrainEvents()})
			if err != nil {
				return err
			}
			if err := store.Save(ctx, "cli", s.Tick(), data); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var out bytes.Buffer
	err = withFrames(path, func(store storage.FrameStore, codec *storage.Codec) error {
		if err := listFrames(ctx, &out, store, "cli"); err != nil {
			return err
		}
		if err := showFrame(ctx, &out, store, codec, "cli", 0); err != nil {
			return err
		}
		return replayFrames(ctx, &out, store, codec, "cli", 31, 0)
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "3 frames")
	assert.Contains(t, text, `"tick": 90`, "Последний кадр")
	assert.Contains(t, text, "tick=60")
	assert.NotContains(t, text, "tick=30 ", "Replay начинается с from")
}
