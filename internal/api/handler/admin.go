package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/drivemate/notify/internal/api/respond"
	"github.com/drivemate/notify/internal/notifications"
)

const maxEventBytes = 1 << 20

// IngestEvent routes one document change posted by a webhook or replay tool.
// @Summary Ingest a document change event
// @Description Accepts a change envelope ({collection, op, doc_id, parent_id, old, new}) and runs the matching notification handler synchronously.
// @Tags events
// @Accept json
// @Produce json
// @Param event body notifications.Envelope true "Change envelope"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/events [post]
func (h *Handler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	var env notifications.Envelope
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEventBytes)).Decode(&env); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Request body is not a valid event envelope", err.Error())
		return
	}
	if env.ID == "" {
		env.ID = uuid.NewString()
	}

	ev, err := env.Event()
	if err != nil {
		code := "INVALID_EVENT"
		if errors.Is(err, notifications.ErrUnhandledEvent) {
			code = "UNSUPPORTED_COLLECTION"
		}
		respond.WriteErrorDetail(w, http.StatusBadRequest, code, "Event could not be decoded", err.Error())
		return
	}

	sent, err := h.engine.Route(r.Context(), ev)
	status := "processed"
	if errors.Is(err, notifications.ErrUnhandledEvent) {
		status = "ignored"
	}
	h.logger.Info("Event ingested",
		"event_id", env.ID, "collection", ev.Collection, "op", ev.Op, "doc_id", ev.DocID, "status", status, "sent", sent)

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"id":     env.ID,
		"status": status,
		"sent":   sent,
	})
}

// SweepReminders runs one reminder sweep on demand.
// @Summary Run the lesson reminder sweep
// @Description Runs one sweep at the given instant (RFC3339, default now) and returns its counts.
// @Tags reminders
// @Produce json
// @Param at query string false "Sweep instant (RFC3339)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/reminders/sweep [post]
func (h *Handler) SweepReminders(w http.ResponseWriter, r *http.Request) {
	at := h.now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_PARAM", "at must be an RFC3339 timestamp", err.Error())
			return
		}
		at = parsed
	}

	res, err := h.engine.SweepReminders(r.Context(), at)
	if err != nil {
		h.logger.Error("Manual reminder sweep failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "SWEEP_FAILED", "Reminder sweep failed")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"run_id":      res.RunID,
		"at":          at.UTC().Format(time.RFC3339),
		"candidates":  res.Candidates,
		"planned":     res.Planned,
		"sent":        res.Sent,
		"skipped":     res.Skipped,
		"duration_ms": res.Duration.Milliseconds(),
	})
}

// TestPushRequest is the body of POST /api/v1/push/test.
type TestPushRequest struct {
	Token  string            `json:"token"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Silent bool              `json:"silent"`
	Data   map[string]string `json:"data,omitempty"`
}

// SendTestPush delivers an ad-hoc push to one device token.
// @Summary Send a test push
// @Description Delivers a visible or silent push to a single device token.
// @Tags push
// @Accept json
// @Produce json
// @Param push body TestPushRequest true "Push to send"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/push/test [post]
func (h *Handler) SendTestPush(w http.ResponseWriter, r *http.Request) {
	var req TestPushRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEventBytes)).Decode(&req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Request body is not valid JSON", err.Error())
		return
	}
	if req.Token == "" || req.Title == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_PARAM", "token and title are required")
		return
	}

	data := map[string]any{"type": "test"}
	for k, v := range req.Data {
		data[k] = v
	}
	p := notifications.Push{Token: req.Token, Title: req.Title, Body: req.Body, Data: data, Silent: req.Silent}
	if !h.engine.Deliver(r.Context(), p) {
		respond.WriteError(w, http.StatusBadGateway, "DELIVERY_FAILED", "Push transport rejected the message")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"delivered": true,
		"silent":    req.Silent,
	})
}
