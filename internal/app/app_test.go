package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/annel0/street-pursuit/internal/cache"
	"github.com/annel0/street-pursuit/internal/config"
	"github.com/annel0/street-pursuit/internal/logging"
	"github.com/annel0/street-pursuit/internal/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	police := 2
	cfg := (&config.Config{
		Sim: config.SimConfig{
			SessionID:   "app-test",
			Traffic:     4,
			Police:      &police,
			Pedestrians: 6,
		},
		Recorder: config.RecorderConfig{Path: t.TempDir(), EveryTicks: 10},
	}).Defaults()
	return cfg
}

func TestSimOptions(t *testing.T) {
	cfg := testConfig(t)
	opts := SimOptions(cfg.Sim)
	assert.EqualValues(t, 20260207, opts.Seed)
	assert.Equal(t, 4, opts.Traffic)
	assert.Equal(t, 2, opts.Police)
	assert.Equal(t, 50*time.Millisecond, opts.MaxFrameDelta)
}

func TestConfigureLogging_RejectsUnknownLevel(t *testing.T) {
	assert.Error(t, ConfigureLogging(config.LoggingConfig{ConsoleLevel: "loud", FileLevel: "debug"}))
	assert.NoError(t, ConfigureLogging(config.LoggingConfig{ConsoleLevel: "info", FileLevel: "debug"}))
	assert.ErrorContains(t, ConfigureLogging(config.LoggingConfig{
		ConsoleLevel: "info",
		FileLevel:    "debug",
		Components:   map[string]config.ComponentLevels{"cache": {Console: "loud"}},
	}), "logging.components.cache")
}

func TestConfigureLogging_ComponentOverrides(t *testing.T) {
	require.NoError(t, ConfigureLogging(config.LoggingConfig{
		ConsoleLevel: "info",
		FileLevel:    "debug",
		Components:   map[string]config.ComponentLevels{logging.ComponentRecorder: {Console: "error"}},
	}))

	lv, ok := logging.GetLoggerManager().Overridden(logging.ComponentRecorder)
	require.True(t, ok)
	assert.Equal(t, logging.Levels{Console: logging.ERROR, File: logging.DEBUG}, lv, "Пустой файл наследует общий уровень")
}

func TestApp_WiresHooks(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sim.Autostart = true

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 4, a.Session.Store().Counts().Vehicles-1-2, "Трафик без машины игрока и полиции")
	a.Runner.Advance(1000)

	w := httptest.NewRecorder()
	a.API.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Tick uint64 `json:"tick"`
			Mode string `json:"mode"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 60, resp.Data.Tick)
	assert.Equal(t, "playing", resp.Data.Mode)

	n, err := testutil.GatherAndCount(a.Registry, "sim_ticks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	a.Close()

	// После Close все асинхронные записи дописаны
	store, err := storage.NewBadgerFrameStore(cfg.Recorder.Path)
	require.NoError(t, err)
	defer store.Close()
	ticks, err := store.Ticks(context.Background(), "app-test")
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 60}, ticks)

	snap, err := cache.Load(context.Background(), a.Cache, "app-test")
	require.NoError(t, err, "Зеркало дописало последний снапшот")
	assert.EqualValues(t, 60, snap.Tick)
}

func TestNew_InitFailureReturnsError(t *testing.T) {
	cfg := testConfig(t)
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	cfg.Recorder.Path = filepath.Join(file, "db")

	var (
		a   *App
		err error
	)
	require.NotPanics(t, func() { a, err = New(context.Background(), cfg) }, "Ошибка сборки не должна ронять процесс")
	assert.Error(t, err)
	assert.ErrorContains(t, err, "recorder")
	assert.Nil(t, a)
}
