package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"medquiz-service/internal/ai"
	"medquiz-service/internal/app"
	"medquiz-service/internal/domain"
)

// QuestionWriter persists newly generated questions.
type QuestionWriter interface {
	SaveQuestions(ctx context.Context, questions []domain.Question) error
}

// APIHandler serves the REST surface: categories, leaderboard and the
// admin-facing AI generation endpoints. Generator and writer may be nil when
// no AI proxy is configured; the endpoints then answer 503.
type APIHandler struct {
	service   *app.GameService
	generator *ai.Generator
	writer    QuestionWriter
}

func NewAPIHandler(service *app.GameService, generator *ai.Generator, writer QuestionWriter) *APIHandler {
	return &APIHandler{service: service, generator: generator, writer: writer}
}

func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/categories", h.handleCategories)
	mux.HandleFunc("/api/leaderboard", h.handleLeaderboard)
	mux.HandleFunc("/api/questions/generate", h.handleGenerate)
	mux.HandleFunc("/api/questions/explain", h.handleExplain)
}

func (h *APIHandler) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string][]string{"categories": categories})
}

func (h *APIHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	board, err := h.service.Leaderboard(r.Context(), r.URL.Query().Get("category"), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, board)
}

type generateQuestionsRequest struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

func (h *APIHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.generator == nil {
		http.Error(w, "ai generation not configured", http.StatusServiceUnavailable)
		return
	}
	var req generateQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Category == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Count <= 0 {
		req.Count = 5
	}

	createdBy := r.Header.Get("X-User-Id")
	questions, err := h.generator.GenerateQuestions(r.Context(), req.Category, req.Count, createdBy)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, ai.ErrMalformedResponse) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}
	if h.writer != nil {
		if err := h.writer.SaveQuestions(r.Context(), questions); err != nil {
			log.Printf("saving generated questions failed: %v", err)
			http.Error(w, "failed to save generated questions", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, questions)
}

type explainRequest struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"correctAnswer"`
}

func (h *APIHandler) handleExplain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.generator == nil {
		http.Error(w, "ai generation not configured", http.StatusServiceUnavailable)
		return
	}
	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	explanation, err := h.generator.GenerateExplanation(r.Context(), req.Question, req.CorrectAnswer)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]string{"explanation": explanation})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json response: %v", err)
	}
}
