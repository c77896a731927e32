package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/annel0/street-pursuit/internal/sim"
)

// Step это отрезок сценария: удерживаемые и однократно нажатые действия на ms миллисекунд
type Step struct {
	Held  []sim.Control
	Press []sim.Control
	Ms    float64
}

// Result это вывод прогона
type Result struct {
	Seed     int64        `json:"seed"`
	Steps    int          `json:"steps"`
	Ticks    int          `json:"ticks"`
	Events   []sim.Event  `json:"events,omitempty"`
	Snapshot sim.Snapshot `json:"snapshot"`
}

// ParseScript разбирает сценарий вида "up+right@1500;!interact@100;@2000".
// Действие с "!" нажимается один раз, остальные удерживаются весь шаг.
func ParseScript(script string) ([]Step, error) {
	var steps []Step
	for i, raw := range strings.Split(script, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		controls, msText, found := strings.Cut(raw, "@")
		if !found {
			return nil, fmt.Errorf("шаг %d %q: нет длительности после @", i+1, raw)
		}
		ms, err := strconv.ParseFloat(strings.TrimSpace(msText), 64)
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("шаг %d %q: неверная длительность", i+1, raw)
		}
		step := Step{Ms: ms}
		for _, name := range strings.Split(controls, "+") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			press := strings.HasPrefix(name, "!")
			ctl, err := sim.ParseControl(strings.TrimPrefix(name, "!"))
			if err != nil {
				return nil, fmt.Errorf("шаг %d: %w", i+1, err)
			}
			if press {
				step.Press = append(step.Press, ctl)
			} else {
				step.Held = append(step.Held, ctl)
			}
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// Run прогоняет сценарий на новой сессии
func Run(opts sim.Options, steps []Step, withEvents bool) Result {
	s := sim.NewSession(opts)
	s.Start()

	res := Result{Seed: opts.Seed, Steps: len(steps)}
	collect := func() {
		events := s.DrainEvents()
		if withEvents {
			res.Events = append(res.Events, events...)
		}
	}
	collect()

	for _, step := range steps {
		s.Input().SetHeld(step.Held)
		for _, c := range step.Press {
			s.Input().Press(c)
		}
		res.Ticks += s.Advance(step.Ms)
		collect()
	}
	res.Snapshot = s.Snapshot()
	return res
}

func write(w io.Writer, res Result, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(res)
}

func main() {
	var (
		seed       = flag.Int64("seed", sim.DefaultSeed, "seed генерации мира")
		script     = flag.String("script", "up@1000", "сценарий: действия+через+плюс@мс; шаги через ';', '!', однократное нажатие")
		traffic    = flag.Int("traffic", 22, "число машин трафика")
		police     = flag.Int("police", 6, "число полицейских машин")
		peds       = flag.Int("pedestrians", 58, "число пешеходов")
		withEvents = flag.Bool("events", false, "включить события в вывод")
		pretty     = flag.Bool("pretty", true, "форматировать JSON")
	)
	flag.Parse()

	steps, err := ParseScript(*script)
	if err != nil {
		log.Fatalf("❌ Ошибка сценария: %v", err)
	}

	opts := sim.DefaultOptions()
	opts.Seed = *seed
	opts.Traffic = *traffic
	opts.Police = *police
	opts.Pedestrians = *peds

	if err := write(os.Stdout, Run(opts, steps, *withEvents), *pretty); err != nil {
		log.Fatalf("❌ Ошибка вывода: %v", err)
	}
}
