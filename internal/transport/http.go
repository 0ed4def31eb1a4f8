package transport

import (
	"fmt"
	"log/slog"

	"sms-dispatch-gateway/internal/dispatch"
	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/reconcile"
	"sms-dispatch-gateway/internal/segment"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handler holds the HTTP handlers for the gateway.
type Handler struct {
	engine     *dispatch.Engine
	reconciler *reconcile.Reconciler
	log        *slog.Logger
}

// NewHandler wires up a Handler with its dependencies.
func NewHandler(engine *dispatch.Engine, reconciler *reconcile.Reconciler, log *slog.Logger) *Handler {
	return &Handler{engine: engine, reconciler: reconciler, log: log}
}

// Register mounts the compose API routes onto the given router.
func (h *Handler) Register(router fiber.Router) {
	router.Post("/messages", h.ComposeMessages)
	router.Get("/messages/:id", h.GetMessage)
}

// RegisterWebhook mounts the delivery-status webhook. Providers call it with
// GET or POST depending on their DLR configuration.
func (h *Handler) RegisterWebhook(app fiber.Router) {
	app.Get("/sms/webhook/delivery", h.DeliveryCallback)
	app.Post("/sms/webhook/delivery", h.DeliveryCallback)
}

// ── Compose API ───────────────────────────────────────────────────────────────

type composeRequest struct {
	Recipients string `json:"recipients"` // Comma-separated destination numbers
	Message    string `json:"message"`
	ProviderID string `json:"provider_id"` // Optional: force a specific provider
}

type composeResponse struct {
	Queued     int          `json:"queued"`
	MessageIDs []string     `json:"message_ids"`
	Segments   segment.Info `json:"segments"`
}

// ComposeMessages queues one message per recipient.
//
// POST /api/messages
// Body: { "recipients": "0171...,+88018...", "message": "...", "provider_id": "..." }
func (h *Handler) ComposeMessages(c *fiber.Ctx) error {
	var req composeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	recipients := dispatch.ParseRecipients(req.Recipients)
	if len(recipients) == 0 || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "recipients and message are required"})
	}

	msgs, info, err := h.engine.Enqueue(c.Context(), dispatch.ComposeRequest{
		Recipients: recipients,
		Body:       req.Message,
		ProviderID: req.ProviderID,
	})
	if err != nil {
		h.log.Error("compose messages", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID.String())
	}

	return c.Status(fiber.StatusCreated).JSON(composeResponse{
		Queued:     len(msgs),
		MessageIDs: ids,
		Segments:   info,
	})
}

type messageResponse struct {
	ID            string `json:"id"`
	Destination   string `json:"destination"`
	State         string `json:"state"`
	ProviderID    string `json:"provider_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	LastError     string `json:"last_error,omitempty"`
	RetryCount    int    `json:"retry_count"`
}

// GetMessage returns the lifecycle state of one message.
//
// GET /api/messages/:id
func (h *Handler) GetMessage(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id must be a valid UUID"})
	}

	m, err := h.engine.Message(c.Context(), id)
	if err == domain.ErrMessageNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "message not found"})
	}
	if err != nil {
		h.log.Error("get message", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(messageResponse{
		ID:            m.ID.String(),
		Destination:   m.Destination,
		State:         string(m.State),
		ProviderID:    m.ProviderID,
		CorrelationID: m.CorrelationID,
		LastError:     m.LastError,
		RetryCount:    m.RetryCount,
	})
}

// ── Delivery-status webhook ───────────────────────────────────────────────────

// Accepted parameter spellings, first present wins. Different providers use
// different names for the same pair.
var (
	callbackIDParams     = []string{"msgId", "message_id"}
	callbackStatusParams = []string{"status", "dlr_status"}
)

// DeliveryCallback reconciles a provider delivery report. It answers
// 200/"OK" no matter what: reporting an error here only invites a provider
// retry storm and leaks internal state.
//
// GET|POST /sms/webhook/delivery?msgId=XYZ&status=DELIVRD
func (h *Handler) DeliveryCallback(c *fiber.Ctx) error {
	correlationID := param(c, callbackIDParams)
	status := param(c, callbackStatusParams)

	if correlationID != "" && status != "" {
		payload := fmt.Sprintf("msgId=%s status=%s", correlationID, status)
		if err := h.reconciler.Apply(c.Context(), correlationID, status, payload); err != nil {
			h.log.Error("delivery callback", "correlation_id", correlationID, "err", err)
		}
	}

	return c.SendString("OK")
}

// param resolves the first present query or form value among aliases.
func param(c *fiber.Ctx, aliases []string) string {
	for _, name := range aliases {
		if v := c.Query(name); v != "" {
			return v
		}
		if v := c.FormValue(name); v != "" {
			return v
		}
	}
	return ""
}
