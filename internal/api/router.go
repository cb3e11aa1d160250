package api

import "net/http"

func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", h.Health)

	mux.HandleFunc("POST /v1/ingest", h.Ingest)
	mux.HandleFunc("POST /v1/ingest/payloads", h.ProcessPayloads)

	mux.HandleFunc("GET /v1/conversations", h.ListConversations)
	mux.HandleFunc("GET /v1/conversations/{waID}/messages", h.GetTimeline)
	mux.HandleFunc("POST /v1/conversations/{waID}/messages", h.PostMessage)

	mux.HandleFunc("GET /v1/sweeper/status", h.SweeperStatus)
	mux.HandleFunc("POST /v1/sweeper/start", h.SweeperStart)
	mux.HandleFunc("POST /v1/sweeper/stop", h.SweeperStop)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("webhook-inbox"))
	})

	return mux
}
