package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// WebhookUpdate это частичное обновление webhook'а; пустые поля не меняются
type WebhookUpdate struct {
	Name       string   `json:"name"`
	URL        string   `json:"url" binding:"omitempty,url"`
	Secret     string   `json:"secret"`
	Events     []string `json:"events"`
	Active     bool     `json:"active"`
	Timeout    int      `json:"timeout"`
	RetryCount int      `json:"retry_count"`
}

func (rs *RestServer) webhooksEnabled(c *gin.Context) bool {
	if rs.webhooks == nil {
		fail(c, http.StatusNotFound, "Исходящие webhook'и выключены")
		return false
	}
	return true
}

func webhookID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "Неверный ID webhook'а")
		return 0, false
	}
	return id, true
}

// handleGetOutboundWebhooks возвращает список исходящих webhook'ов
func (rs *RestServer) handleGetOutboundWebhooks(c *gin.Context) {
	if !rs.webhooksEnabled(c) {
		return
	}
	webhooks := rs.webhooks.GetWebhooks()
	ok(c, "Список webhook'ов получен", gin.H{
		"webhooks": webhooks,
		"total":    len(webhooks),
	})
}

// handleCreateOutboundWebhook создает новый исходящий webhook
func (rs *RestServer) handleCreateOutboundWebhook(c *gin.Context) {
	if !rs.webhooksEnabled(c) {
		return
	}
	var webhook OutboundWebhook
	if err := c.ShouldBindJSON(&webhook); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат данных: "+err.Error())
		return
	}
	created := rs.webhooks.AddWebhook(webhook)
	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Webhook создан",
		Data:    created,
	})
}

// handleGetOutboundWebhook возвращает webhook по ID
func (rs *RestServer) handleGetOutboundWebhook(c *gin.Context) {
	if !rs.webhooksEnabled(c) {
		return
	}
	id, valid := webhookID(c)
	if !valid {
		return
	}
	webhook := rs.webhooks.GetWebhook(id)
	if webhook == nil {
		fail(c, http.StatusNotFound, "Webhook не найден")
		return
	}
	ok(c, "Webhook получен", webhook)
}

// handleUpdateOutboundWebhook обновляет webhook
func (rs *RestServer) handleUpdateOutboundWebhook(c *gin.Context) {
	if !rs.webhooksEnabled(c) {
		return
	}
	id, valid := webhookID(c)
	if !valid {
		return
	}
	var req WebhookUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат данных: "+err.Error())
		return
	}
	webhook := rs.webhooks.UpdateWebhook(id, OutboundWebhook{
		Name:       req.Name,
		URL:        req.URL,
		Secret:     req.Secret,
		Events:     req.Events,
		Active:     req.Active,
		Timeout:    req.Timeout,
		RetryCount: req.RetryCount,
	})
	if webhook == nil {
		fail(c, http.StatusNotFound, "Webhook не найден")
		return
	}
	ok(c, "Webhook обновлен", webhook)
}

// handleDeleteOutboundWebhook удаляет webhook
func (rs *RestServer) handleDeleteOutboundWebhook(c *gin.Context) {
	if !rs.webhooksEnabled(c) {
		return
	}
	id, valid := webhookID(c)
	if !valid {
		return
	}
	if !rs.webhooks.DeleteWebhook(id) {
		fail(c, http.StatusNotFound, "Webhook не найден")
		return
	}
	ok(c, "Webhook удален", nil)
}

// handleGetWebhookEventTypes возвращает доступные типы событий
func (rs *RestServer) handleGetWebhookEventTypes(c *gin.Context) {
	types := EventTypes()
	ok(c, "Типы событий получены", gin.H{
		"event_types": types,
		"total":       len(types),
	})
}
