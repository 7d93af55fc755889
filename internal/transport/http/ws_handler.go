package http

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"medquiz-service/internal/app"
	"medquiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Mode     string `json:"mode"`
	Category string `json:"category"`
}

type answerPayload struct {
	ChoiceIndex int `json:"choiceIndex"`
}

type gameOverPayload struct {
	Score             int    `json:"score"`
	QuestionsAnswered int    `json:"questionsAnswered"`
	Mode              string `json:"mode"`
	Category          string `json:"category"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game
// use cases. The client drives start/answer/next/end; state snapshots are
// pushed on every mutation, countdown ticks included.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if userID == "" || displayName == "" {
		http.Error(w, "missing userId or name", http.StatusBadRequest)
		return
	}
	player := domain.UserSession{UserID: userID, DisplayName: displayName}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	var pumps sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// pumpStates forwards one game subscription to the client until the game
	// ends (channel closed) or the connection shuts down.
	pumpStates := func(updates <-chan domain.GameSnapshot) {
		pumps.Add(1)
		go func() {
			defer pumps.Done()
			for {
				select {
				case update, ok := <-updates:
					if !ok {
						return
					}
					select {
					case send <- outboundMessage[any]{Type: "state", Payload: update}:
					case <-closeSignals:
						return
					}
				case <-closeSignals:
					return
				}
			}
		}()
	}

	var unsubscribe func()
	defer func() {
		if unsubscribe != nil {
			unsubscribe()
		}
	}()

	// Resume pushing state if the player already has a game from a previous
	// connection; otherwise the client is expected to send start.
	if snap, ok := h.service.Snapshot(player); ok {
		if updates, cancel, err := h.service.Subscribe(player); err == nil {
			unsubscribe = cancel
			pumpStates(updates)
			send <- outboundMessage[any]{Type: "state", Payload: snap}
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid start payload"}}
				continue
			}
			snap, err := h.service.StartGame(r.Context(), player, domain.GameMode(payload.Mode), payload.Category)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			if unsubscribe != nil {
				unsubscribe()
				unsubscribe = nil
			}
			updates, cancel, err := h.service.Subscribe(player)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			unsubscribe = cancel
			pumpStates(updates)
			send <- outboundMessage[any]{Type: "state", Payload: snap}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			// Already-answered questions and absent games are silent no-ops.
			if result, ok := h.service.AnswerQuestion(r.Context(), player, payload.ChoiceIndex); ok {
				send <- outboundMessage[any]{Type: "answerResult", Payload: result}
			}
		case "next":
			snap, finished, err := h.service.NextQuestion(r.Context(), player)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			if finished {
				unsubscribe = nil
				send <- outboundMessage[any]{Type: "gameOver", Payload: gameOverPayload{
					Score:             snap.Score,
					QuestionsAnswered: snap.QuestionCount,
					Mode:              string(snap.Mode),
					Category:          snap.Category,
				}}
			}
		case "end":
			if summary, ok := h.service.EndGame(r.Context(), player); ok {
				unsubscribe = nil
				send <- outboundMessage[any]{Type: "gameOver", Payload: gameOverPayload{
					Score:             summary.Score,
					QuestionsAnswered: summary.QuestionsAnswered,
					Mode:              string(summary.Mode),
					Category:          summary.Category,
				}}
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	pumps.Wait()
	close(send)
	<-writerDone
}
