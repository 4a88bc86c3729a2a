package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/interview-engine/internal/interview"
	"github.com/terra-clan/interview-engine/internal/models"
)

func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	var req models.StartInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Config.Role) == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "config.role is required")
		return
	}

	createdBy := ""
	if client := ClientFromContext(r.Context()); client != nil {
		createdBy = client.Name
	}

	session, err := s.interviews.Start(r.Context(), req.Config, createdBy)
	if err != nil {
		slog.Error("failed to start interview", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to start interview")
		return
	}

	resp := models.StartInterviewResponse{
		SessionID:  session.ID,
		Stage:      session.Stage,
		Difficulty: session.Difficulty,
	}
	if pending := session.PendingTurn(); pending != nil {
		resp.FirstQuestion = pending.QuestionText
	}

	respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "interview id is required")
		return
	}

	// ?view=summary returns the compact cached form
	if r.URL.Query().Get("view") == "summary" {
		sum, err := s.interviews.Status(r.Context(), id)
		if err != nil {
			if errors.Is(err, interview.ErrSessionNotFound) {
				respondError(w, http.StatusNotFound, "not_found", "interview not found")
				return
			}
			slog.Error("failed to get interview status", "error", err, "id", id)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to get interview")
			return
		}
		respondJSON(w, http.StatusOK, sum)
		return
	}

	session, err := s.interviews.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, interview.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "interview not found")
			return
		}
		slog.Error("failed to get interview", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get interview")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "interview id is required")
		return
	}

	var req models.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Answer) == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "answer is required")
		return
	}

	result, err := s.interviews.SubmitAnswer(r.Context(), id, req.Answer)
	if err != nil {
		switch {
		case errors.Is(err, interview.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "not_found", "interview not found")
		case errors.Is(err, interview.ErrSessionBusy):
			respondError(w, http.StatusConflict, "turn_in_flight", "a turn is already being processed for this interview")
		case errors.Is(err, interview.ErrInvalidState):
			respondError(w, http.StatusConflict, "interview_complete", "the interview is already complete")
		case errors.Is(err, interview.ErrNoPendingQuestion):
			respondError(w, http.StatusConflict, "no_pending_question", "there is no question awaiting an answer")
		default:
			slog.Error("failed to process answer", "error", err, "id", id)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to process answer")
		}
		return
	}

	resp := models.SubmitAnswerResponse{
		Turn:       result.Turn,
		Stage:      result.Stage,
		Difficulty: result.Difficulty,
		Complete:   result.Complete,
	}
	if result.NextQuestion != nil {
		resp.NextQuestion = &result.NextQuestion.QuestionText
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "interview id is required")
		return
	}

	report, err := s.interviews.GetReport(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, interview.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "not_found", "interview not found")
		case errors.Is(err, interview.ErrIncompleteSession):
			respondError(w, http.StatusConflict, "not_complete", "the interview has not reached feedback yet")
		default:
			slog.Error("failed to get report", "error", err, "id", id)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to get report")
		}
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleDeleteInterview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "interview id is required")
		return
	}

	if err := s.interviews.Delete(r.Context(), id); err != nil {
		if errors.Is(err, interview.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "interview not found")
			return
		}
		slog.Error("failed to delete interview", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete interview")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "interview deleted",
	})
}

func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	summaries, err := s.interviews.List(r.Context(), limit, offset)
	if err != nil {
		slog.Error("failed to list interviews", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list interviews")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"interviews": summaries,
		"total":      len(summaries),
	})
}
