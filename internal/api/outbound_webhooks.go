package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/annel0/street-pursuit/internal/eventbus"
	"github.com/annel0/street-pursuit/internal/logging"
	"github.com/annel0/street-pursuit/internal/sim"
)

// OutboundWebhook представляет исходящий webhook
type OutboundWebhook struct {
	ID           uint64     `json:"id"`
	Name         string     `json:"name" binding:"required"`
	URL          string     `json:"url" binding:"required,url"`
	Secret       string     `json:"secret,omitempty"`
	Events       []string   `json:"events" binding:"required"` // Типы событий симуляции или "*"
	Active       bool       `json:"active"`
	Timeout      int        `json:"timeout"` // Таймаут в секундах
	RetryCount   int        `json:"retry_count"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsed     *time.Time `json:"last_used,omitempty"`
	FailureCount int        `json:"failure_count"`
}

// OutboundWebhookEvent это тело запроса к webhook'у
type OutboundWebhookEvent struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Timestamp int64           `json:"timestamp"`
	ServerID  string          `json:"server_id"`
	SessionID string          `json:"session_id,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// OutboundWebhookManager пересылает события шины на зарегистрированные webhook'и
type OutboundWebhookManager struct {
	webhooks   map[uint64]*OutboundWebhook
	eventQueue chan OutboundWebhookEvent
	mu         sync.RWMutex
	nextID     uint64
	httpClient *http.Client
	serverID   string
	retryDelay time.Duration
	log        *logging.Logger

	sub     eventbus.Subscription
	wg      sync.WaitGroup
	stopped bool // под mu
}

// NewOutboundWebhookManager создает новый менеджер исходящих webhook'ов
func NewOutboundWebhookManager(serverID string) *OutboundWebhookManager {
	manager := &OutboundWebhookManager{
		webhooks:   make(map[uint64]*OutboundWebhook),
		eventQueue: make(chan OutboundWebhookEvent, 1000),
		nextID:     1,
		serverID:   serverID,
		retryDelay: time.Second,
		log:        logging.GetComponentLogger(logging.ComponentWebhooks),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	manager.wg.Add(1)
	go manager.eventWorker()

	return manager
}

// Subscribe подписывает менеджер на все события шины
func (owm *OutboundWebhookManager) Subscribe(ctx context.Context, bus eventbus.EventBus) error {
	sub, err := bus.Subscribe(ctx, eventbus.Filter{}, func(_ context.Context, env *eventbus.Envelope) {
		owm.SendEvent(OutboundWebhookEvent{
			ID:        env.ID,
			EventType: env.EventType,
			Timestamp: env.Timestamp.Unix(),
			SessionID: env.CorrelationID,
			Data:      env.Payload,
		})
	})
	if err != nil {
		return err
	}
	owm.sub = sub
	return nil
}

// AddWebhook добавляет новый webhook
func (owm *OutboundWebhookManager) AddWebhook(webhook OutboundWebhook) *OutboundWebhook {
	owm.mu.Lock()
	defer owm.mu.Unlock()

	webhook.ID = owm.nextID
	owm.nextID++
	webhook.CreatedAt = time.Now()
	webhook.Active = true

	if webhook.Timeout == 0 {
		webhook.Timeout = 30
	}
	if webhook.RetryCount == 0 {
		webhook.RetryCount = 3
	}

	owm.webhooks[webhook.ID] = &webhook
	copied := webhook
	return &copied
}

// GetWebhooks возвращает список всех webhook'ов по возрастанию ID
func (owm *OutboundWebhookManager) GetWebhooks() []OutboundWebhook {
	owm.mu.RLock()
	defer owm.mu.RUnlock()

	webhooks := make([]OutboundWebhook, 0, len(owm.webhooks))
	for _, webhook := range owm.webhooks {
		webhooks = append(webhooks, *webhook)
	}
	slices.SortFunc(webhooks, func(a, b OutboundWebhook) int {
		return int(a.ID) - int(b.ID)
	})
	return webhooks
}

// GetWebhook возвращает копию webhook'а по ID
func (owm *OutboundWebhookManager) GetWebhook(id uint64) *OutboundWebhook {
	owm.mu.RLock()
	defer owm.mu.RUnlock()

	webhook, exists := owm.webhooks[id]
	if !exists {
		return nil
	}
	copied := *webhook
	return &copied
}

// UpdateWebhook обновляет непустые поля webhook'а
func (owm *OutboundWebhookManager) UpdateWebhook(id uint64, updates OutboundWebhook) *OutboundWebhook {
	owm.mu.Lock()
	defer owm.mu.Unlock()

	webhook, exists := owm.webhooks[id]
	if !exists {
		return nil
	}

	if updates.Name != "" {
		webhook.Name = updates.Name
	}
	if updates.URL != "" {
		webhook.URL = updates.URL
	}
	if updates.Secret != "" {
		webhook.Secret = updates.Secret
	}
	if len(updates.Events) > 0 {
		webhook.Events = updates.Events
	}
	if updates.Timeout > 0 {
		webhook.Timeout = updates.Timeout
	}
	if updates.RetryCount > 0 {
		webhook.RetryCount = updates.RetryCount
	}
	webhook.Active = updates.Active

	copied := *webhook
	return &copied
}

// DeleteWebhook удаляет webhook
func (owm *OutboundWebhookManager) DeleteWebhook(id uint64) bool {
	owm.mu.Lock()
	defer owm.mu.Unlock()

	if _, exists := owm.webhooks[id]; !exists {
		return false
	}
	delete(owm.webhooks, id)
	return true
}

// SendEvent ставит событие в очередь рассылки
func (owm *OutboundWebhookManager) SendEvent(event OutboundWebhookEvent) {
	event.ServerID = owm.serverID
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	owm.mu.RLock()
	defer owm.mu.RUnlock()
	if owm.stopped {
		return
	}
	select {
	case owm.eventQueue <- event:
	default:
		owm.log.Warn("⚠️ Очередь webhook'ов переполнена, событие %s пропущено", event.EventType)
	}
}

// Stop отписывается от шины и дожидается отправки очереди
func (owm *OutboundWebhookManager) Stop() {
	if owm.sub != nil {
		owm.sub.Unsubscribe()
	}
	owm.mu.Lock()
	if owm.stopped {
		owm.mu.Unlock()
		return
	}
	owm.stopped = true
	close(owm.eventQueue)
	owm.mu.Unlock()
	owm.wg.Wait()
}

func (owm *OutboundWebhookManager) eventWorker() {
	defer owm.wg.Done()
	for event := range owm.eventQueue {
		owm.processEvent(event)
	}
}

func (owm *OutboundWebhookManager) processEvent(event OutboundWebhookEvent) {
	owm.mu.RLock()
	targets := make([]OutboundWebhook, 0)
	for _, webhook := range owm.webhooks {
		if webhook.Active && isSubscribedToEvent(webhook.Events, event.EventType) {
			targets = append(targets, *webhook)
		}
	}
	owm.mu.RUnlock()

	for _, webhook := range targets {
		owm.sendToWebhook(webhook, event)
	}
}

func isSubscribedToEvent(events []string, eventType string) bool {
	for _, subscribed := range events {
		if subscribed == eventType || subscribed == "*" {
			return true
		}
	}
	return false
}

// sendToWebhook отправляет событие с повторами и обновляет статистику webhook'а
func (owm *OutboundWebhookManager) sendToWebhook(webhook OutboundWebhook, event OutboundWebhookEvent) {
	jsonData, err := json.Marshal(event)
	if err != nil {
		owm.log.Error("❌ Ошибка маршалинга события для webhook %s: %v", webhook.Name, err)
		return
	}

	success := false
	for attempt := 0; attempt <= webhook.RetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * owm.retryDelay)
		}
		status, err := owm.post(webhook, event.EventType, jsonData)
		if err != nil {
			owm.log.Warn("⚠️ Попытка %d/%d для webhook %s: %v", attempt+1, webhook.RetryCount+1, webhook.Name, err)
			continue
		}
		if status >= 200 && status < 300 {
			success = true
			owm.log.Debug("✅ Событие %s отправлено в webhook %s", event.EventType, webhook.Name)
			break
		}
		owm.log.Warn("⚠️ Webhook %s вернул статус %d на попытке %d", webhook.Name, status, attempt+1)
	}

	owm.mu.Lock()
	if stored, ok := owm.webhooks[webhook.ID]; ok {
		now := time.Now()
		stored.LastUsed = &now
		if !success {
			stored.FailureCount++
		}
	}
	owm.mu.Unlock()
}

func (owm *OutboundWebhookManager) post(webhook OutboundWebhook, eventType string, body []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(webhook.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Street-Pursuit/1.0")
	req.Header.Set("X-Event-Type", eventType)
	req.Header.Set("X-Server-ID", owm.serverID)
	if webhook.Secret != "" {
		req.Header.Set("X-Webhook-Signature", Sign(body, webhook.Secret))
	}

	resp, err := owm.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// Sign возвращает HMAC-SHA256 подпись тела в формате "sha256=<hex>"
func Sign(data []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// EventTypes возвращает типы событий, на которые можно подписаться
func EventTypes() []string {
	return []string{
		string(sim.EventReset),
		string(sim.EventStarted),
		string(sim.EventPaused),
		string(sim.EventResumed),
		string(sim.EventVehicleEntered),
		string(sim.EventVehicleExited),
		string(sim.EventShotFired),
		string(sim.EventOfficerDeployed),
		string(sim.EventOfficerDown),
		string(sim.EventOfficerReturned),
		string(sim.EventBusted),
		string(sim.EventWasted),
		string(sim.EventTaskAssigned),
		string(sim.EventTaskCompleted),
		string(sim.EventTargetDestroyed),
	}
}
