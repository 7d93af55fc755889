// Package ai talks to the question-generation proxy: a templated-prompt HTTP
// service that returns model text containing a JSON array of questions.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"medquiz-service/internal/domain"
)

// ErrMalformedResponse means the model output contained no parseable JSON
// array. There is no retry and no partial acceptance.
var ErrMalformedResponse = errors.New("ai response contains no parseable question array")

type Generator struct {
	baseURL string
	client  *http.Client
}

func NewGenerator(baseURL string, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type explainRequest struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"correctAnswer"`
}

type explainResponse struct {
	Explanation string `json:"explanation"`
}

// GenerateQuestions asks the proxy for count questions in a category and
// validates every item before returning. Generated questions get fresh IDs
// and the AI provenance flag; the caller decides whether to persist them.
func (g *Generator) GenerateQuestions(ctx context.Context, category string, count int, createdBy string) ([]domain.Question, error) {
	body, err := g.post(ctx, "/generate-questions", generateRequest{Category: category, Count: count})
	if err != nil {
		return nil, err
	}

	raw, ok := extractJSONArray(string(body))
	if !ok {
		return nil, ErrMalformedResponse
	}
	var questions []domain.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(questions) == 0 {
		return nil, ErrMalformedResponse
	}

	for i := range questions {
		questions[i].ID = "ai-" + uuid.NewString()
		questions[i].Category = category
		questions[i].CreatedBy = createdBy
		questions[i].IsAIGenerated = true
		if questions[i].Level == "" {
			questions[i].Level = domain.LevelIntermediate
		}
		if err := questions[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrMalformedResponse, i, err)
		}
	}
	return questions, nil
}

// GenerateExplanation asks the proxy for a free-text explanation of why the
// given answer is correct.
func (g *Generator) GenerateExplanation(ctx context.Context, question, correctAnswer string) (string, error) {
	body, err := g.post(ctx, "/generate-explanation", explainRequest{Question: question, CorrectAnswer: correctAnswer})
	if err != nil {
		return "", err
	}
	var parsed explainResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Explanation != "" {
		return parsed.Explanation, nil
	}
	// Some proxies return the explanation as plain text.
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", ErrMalformedResponse
	}
	return text, nil
}

func (g *Generator) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ai proxy request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ai proxy response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ai proxy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// extractJSONArray pulls the first top-level JSON array out of model text,
// which often wraps it in prose or markdown fences.
func extractJSONArray(text string) (string, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
