package sim

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics это Prometheus-метрики симуляции. Обновляются Runner после
// каждой граничной операции, а не изнутри тика.
type Metrics struct {
	ticks        prometheus.Counter
	frameSeconds prometheus.Histogram
	entities     *prometheus.GaugeVec
	wanted       prometheus.Gauge
	busted       prometheus.Gauge
	health       prometheus.Gauge
	cash         prometheus.Gauge
	events       *prometheus.CounterVec
}

// NewMetrics создаёт метрики и регистрирует их в reg. При reg == nil
// метрики работают, но никуда не экспортируются.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sim",
			Name:      "ticks_total",
			Help:      "Общее число выполненных фиксированных тиков.",
		}),
		frameSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sim",
			Name:      "frame_duration_seconds",
			Help:      "Реальное время обработки одного кадра.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sim",
			Name:      "entities",
			Help:      "Число сущностей по типам.",
		}, []string{"kind"}),
		wanted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sim",
			Name:      "wanted_level",
			Help:      "Текущий уровень розыска.",
		}),
		busted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sim",
			Name:      "busted_meter",
			Help:      "Шкала ареста.",
		}),
		health: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sim",
			Name:      "player_health",
			Help:      "Здоровье игрока.",
		}),
		cash: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sim",
			Name:      "cash",
			Help:      "Накопленная награда за задания.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sim",
			Name:      "events_total",
			Help:      "События симуляции по типам.",
		}, []string{"kind"}),
	}

	if reg != nil {
		reg.MustRegister(m.ticks, m.frameSeconds, m.entities, m.wanted, m.busted, m.health, m.cash, m.events)
	}
	return m
}

// Observe обновляет метрики по состоянию сессии после граничной операции
func (m *Metrics) Observe(s *Session, ticks int, elapsed time.Duration, events []Event) {
	if m == nil {
		return
	}
	m.ticks.Add(float64(ticks))
	m.frameSeconds.Observe(elapsed.Seconds())

	c := s.store.Counts()
	m.entities.WithLabelValues("vehicles").Set(float64(c.Vehicles))
	m.entities.WithLabelValues("pedestrians").Set(float64(c.Pedestrians))
	m.entities.WithLabelValues("officers").Set(float64(c.Officers))
	m.entities.WithLabelValues("projectiles").Set(float64(c.Projectiles))
	m.entities.WithLabelValues("targets").Set(float64(c.Targets))

	m.wanted.Set(s.pursuit.Wanted)
	m.busted.Set(s.pursuit.Busted)
	m.health.Set(s.store.Player.Health)
	m.cash.Set(s.missions.Cash)

	for _, ev := range events {
		m.events.WithLabelValues(string(ev.Kind)).Inc()
	}
}
