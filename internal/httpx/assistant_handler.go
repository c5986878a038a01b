package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-realtime-bookorders/internal/assistant"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type TitleLister interface {
	Titles() []string
}

type AssistantHandler struct {
	Answerer assistant.Answerer
	Titles   TitleLister
	Log      zerolog.Logger
}

type promptReq struct {
	Query string `json:"query"`
}

type failure struct {
	Error  errorBody `json:"error"`
	Status string    `json:"status"`
}

type errorBody struct {
	Message string `json:"message"`
}

func (h *AssistantHandler) Register(r chi.Router) {
	r.Post("/api/v1/ai/prompt", h.prompt)
}

func (h *AssistantHandler) prompt(w http.ResponseWriter, r *http.Request) {
	var req promptReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, failed("Invalid request. 'query' field (string) is required.", "failed"))
		return
	}

	res, err := h.Answerer.Answer(r.Context(), req.Query, h.Titles.Titles())
	if err != nil {
		if ref, ok := assistant.IsRefusal(err); ok {
			writeJSON(w, http.StatusBadRequest, failed(ref.Message, "refused"))
			return
		}
		h.Log.Warn().Err(err).Msg("assistant failed")
		msg := "Internal server error processing AI request."
		if errors.Is(err, assistant.ErrNotConfigured) {
			msg = "AI model not initialized or API key missing."
		}
		writeJSON(w, http.StatusInternalServerError, failed(msg, "failed"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func failed(msg, status string) failure {
	return failure{Error: errorBody{Message: msg}, Status: status}
}
