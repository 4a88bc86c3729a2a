package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/terra-clan/interview-engine/internal/interview"
	"github.com/terra-clan/interview-engine/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LiveMessage is the frame exchanged over the live interview socket.
// Client to server: {"type": "answer", "data": "..."}.
// Server to client: question, turn, complete and error frames.
type LiveMessage struct {
	Type     string         `json:"type"`
	Data     string         `json:"data,omitempty"`
	Stage    models.Stage   `json:"stage,omitempty"`
	Turn     *models.Turn   `json:"turn,omitempty"`
	Question string         `json:"question,omitempty"`
	Report   *models.Report `json:"report,omitempty"`
}

// handleLiveWS runs an interview over a websocket: each answer frame goes
// through the same pipeline as the REST endpoint, and the next question
// or the final report is streamed back.
func (s *Server) handleLiveWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "interview id required", http.StatusBadRequest)
		return
	}

	session, err := s.interviews.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, interview.ErrSessionNotFound) {
			http.Error(w, "interview not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to get interview", "id", id, "error", err)
		http.Error(w, "failed to get interview", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("live interview connected", "id", id)

	// Replay the current position so a reconnecting client knows where
	// the interview stands.
	if pending := session.PendingTurn(); pending != nil {
		s.sendLiveMessage(conn, LiveMessage{Type: "question", Stage: session.Stage, Question: pending.QuestionText})
	} else if session.Stage.IsTerminal() {
		s.sendComplete(conn, r, id)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			break
		}

		var msg LiveMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			slog.Debug("invalid message format", "error", err)
			continue
		}
		if msg.Type != "answer" {
			continue
		}

		result, err := s.interviews.SubmitAnswer(r.Context(), id, msg.Data)
		if err != nil {
			s.sendLiveMessage(conn, LiveMessage{Type: "error", Data: liveErrorText(err)})
			if errors.Is(err, interview.ErrSessionNotFound) || errors.Is(err, interview.ErrInvalidState) {
				break
			}
			continue
		}

		s.sendLiveMessage(conn, LiveMessage{Type: "turn", Stage: result.Stage, Turn: result.Turn})

		if result.Complete {
			s.sendComplete(conn, r, id)
			break
		}
		if result.NextQuestion != nil {
			s.sendLiveMessage(conn, LiveMessage{Type: "question", Stage: result.Stage, Question: result.NextQuestion.QuestionText})
		}
	}

	slog.Info("live interview disconnected", "id", id)
}

func (s *Server) sendComplete(conn *websocket.Conn, r *http.Request, id string) {
	report, err := s.interviews.GetReport(r.Context(), id)
	if err != nil {
		slog.Error("failed to get report for live session", "id", id, "error", err)
		s.sendLiveMessage(conn, LiveMessage{Type: "error", Data: "failed to build report"})
		return
	}
	s.sendLiveMessage(conn, LiveMessage{Type: "complete", Report: report})
}

func liveErrorText(err error) string {
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		return "interview not found"
	case errors.Is(err, interview.ErrSessionBusy):
		return "a turn is already being processed"
	case errors.Is(err, interview.ErrInvalidState):
		return "the interview is already complete"
	case errors.Is(err, interview.ErrNoPendingQuestion):
		return "there is no question awaiting an answer"
	default:
		return "failed to process answer"
	}
}

func (s *Server) sendLiveMessage(conn *websocket.Conn, msg LiveMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal live message", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send live message", "error", err)
	}
}
