package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/street-pursuit/internal/eventbus"
	"github.com/annel0/street-pursuit/internal/sim"
	"github.com/annel0/street-pursuit/internal/storage"
)

const timeFormat = "15:04:05"

func main() {
	var (
		command    = flag.String("cmd", "tail", "Command: tail, frames, frame, replay")
		natsURL    = flag.String("nats", "nats://127.0.0.1:4222", "NATS server URL")
		stream     = flag.String("stream", "SIM", "JetStream stream name")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		since      = flag.Duration("since", 0, "Replay stored events for this duration before following (e.g. 30m)")
		limit      = flag.Int("limit", 0, "Stop after this many events (0 = follow forever)")
		dataPath   = flag.String("data", "data", "Recorder BadgerDB path")
		session    = flag.String("session", "", "Session ID for frame commands")
		tick       = flag.Uint64("tick", 0, "Tick for the frame command (0 = latest)")
		from       = flag.Uint64("from", 0, "First tick for replay")
		to         = flag.Uint64("to", 0, "Last tick for replay (0 = end)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch *command {
	case "tail":
		err = tailEvents(ctx, os.Stdout, &TailOptions{
			URL:        *natsURL,
			Stream:     *stream,
			EventTypes: parseStringList(*eventTypes),
			Since:      *since,
			Limit:      *limit,
		})
	case "frames", "frame", "replay":
		err = withFrames(*dataPath, func(store storage.FrameStore, codec *storage.Codec) error {
			if *session == "" {
				return errors.New("-session is required")
			}
			switch *command {
			case "frames":
				return listFrames(ctx, os.Stdout, store, *session)
			case "frame":
				return showFrame(ctx, os.Stdout, store, codec, *session, *tick)
			default:
				return replayFrames(ctx, os.Stdout, store, codec, *session, *from, *to)
			}
		})
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, frames, frame, replay")
		os.Exit(1)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

type TailOptions struct {
	URL        string
	Stream     string
	EventTypes []string
	Since      time.Duration
	Limit      int
}

// tailEvents выводит события из JetStream до отмены ctx или достижения лимита
func tailEvents(ctx context.Context, w io.Writer, opts *TailOptions) error {
	bus, err := eventbus.NewJetStreamBus(opts.URL, opts.Stream, 0)
	if err != nil {
		return err
	}
	defer bus.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	count := 0
	events := make(chan *eventbus.Envelope, 64)
	sub, err := bus.SubscribeSince(ctx, eventbus.Filter{Types: opts.EventTypes}, opts.Since, func(_ context.Context, ev *eventbus.Envelope) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	fmt.Fprintf(w, "🎬 Tailing %s (since %v, limit %d)\n", eventbus.Subject(""), opts.Since, opts.Limit)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(w, "\n📊 Total events: %d\n", count)
			return nil
		case ev := <-events:
			printEvent(w, ev)
			count++
			if opts.Limit > 0 && count >= opts.Limit {
				fmt.Fprintf(w, "\n📊 Total events: %d\n", count)
				return nil
			}
		}
	}
}

// printEvent выводит событие в читаемом формате
func printEvent(w io.Writer, env *eventbus.Envelope) {
	fmt.Fprintf(w, "[%s] %s [%s] p=%d %s\n",
		env.Timestamp.Local().Format(timeFormat),
		env.CorrelationID,
		env.EventType,
		env.Priority,
		env.ID)

	var ev sim.Event
	if err := env.Decode(&ev); err != nil {
		return
	}
	fmt.Fprintf(w, "  tick=%d t=%.2fs", ev.Tick, ev.Time)
	if ev.Entity != 0 {
		fmt.Fprintf(w, " entity=%d", ev.Entity)
	}
	if ev.Value != 0 {
		fmt.Fprintf(w, " value=%.2f", ev.Value)
	}
	if ev.Task != nil {
		fmt.Fprintf(w, " task=%s reward=%.0f", ev.Task.Kind, ev.Task.Reward)
	}
	fmt.Fprintln(w)
}

func withFrames(path string, fn func(storage.FrameStore, *storage.Codec) error) error {
	store, err := storage.NewBadgerFrameStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	codec, err := storage.NewCodec()
	if err != nil {
		return err
	}
	defer codec.Close()
	return fn(store, codec)
}

func listFrames(ctx context.Context, w io.Writer, store storage.FrameStore, session string) error {
	ticks, err := store.Ticks(ctx, session)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "📋 Session %s: %d frames\n", session, len(ticks))
	for _, t := range ticks {
		fmt.Fprintf(w, "  tick %d (%.2fs)\n", t, float64(t)*sim.FixedDt)
	}
	return nil
}

func showFrame(ctx context.Context, w io.Writer, store storage.FrameStore, codec *storage.Codec, session string, tick uint64) error {
	var (
		frame sim.Frame
		err   error
	)
	if tick == 0 {
		frame, err = storage.LatestFrame(ctx, store, codec, session)
	} else {
		frame, err = storage.LoadFrame(ctx, store, codec, session, tick)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(frame)
}

func replayFrames(ctx context.Context, w io.Writer, store storage.FrameStore, codec *storage.Codec, session string, from, to uint64) error {
	return storage.Replay(ctx, store, codec, session, from, to, func(f sim.Frame) error {
		p := f.Snapshot.Player
		fmt.Fprintf(w, "tick=%-6d pos=(%.0f,%.0f) hp=%.0f wanted=%.2f cash=%.0f events=%d\n",
			f.Tick, p.X, p.Y, p.Health, p.Wanted, f.Snapshot.Mission.Cash, len(f.Events))
		return nil
	})
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
