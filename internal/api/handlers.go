package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/LeventeLantos/webhook-inbox/internal/conversation"
	"github.com/LeventeLantos/webhook-inbox/internal/ingest"
	"github.com/LeventeLantos/webhook-inbox/internal/model"
	"github.com/LeventeLantos/webhook-inbox/internal/scheduler"
	"github.com/LeventeLantos/webhook-inbox/internal/webhook"
)

const maxPayloadBytes = 1 << 20

type Handler struct {
	engine     *ingest.Engine
	agg        *conversation.Aggregator
	composer   *conversation.Composer
	sweeper    *scheduler.Sweeper
	payloadDir string
}

func NewHandler(
	engine *ingest.Engine,
	agg *conversation.Aggregator,
	composer *conversation.Composer,
	sweeper *scheduler.Sweeper,
	payloadDir string,
) *Handler {
	return &Handler{
		engine:     engine,
		agg:        agg,
		composer:   composer,
		sweeper:    sweeper,
		payloadDir: payloadDir,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Ingest accepts one raw webhook payload body. A payload that fails decode or
// schema validation is the caller's fault; a store failure is ours.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := webhook.Decode(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.engine.Apply(r.Context(), webhook.Normalize(p)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ProcessPayloads ingests every payload file in the payload directory.
func (h *Handler) ProcessPayloads(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.IngestDir(r.Context(), h.payloadDir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   len(res.Errors) == 0,
		"processed": res.Processed,
		"errors":    res.Errors,
	})
}

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	items, err := h.agg.Conversations(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []model.Conversation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	items, err := h.agg.Timeline(r.Context(), r.PathValue("waID"))
	if err != nil {
		if errors.Is(err, conversation.ErrCounterpartRequired) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []model.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type postMessageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	msg, err := h.composer.Post(r.Context(), r.PathValue("waID"), req.Text)
	if err != nil {
		if errors.Is(err, conversation.ErrTextRequired) || errors.Is(err, conversation.ErrCounterpartRequired) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handler) SweeperStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sweeper.IsRunning()})
}

func (h *Handler) SweeperStart(w http.ResponseWriter, r *http.Request) {
	h.sweeper.Start()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sweeper.IsRunning()})
}

func (h *Handler) SweeperStop(w http.ResponseWriter, r *http.Request) {
	h.sweeper.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sweeper.IsRunning()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
