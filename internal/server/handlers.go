package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/user/mealcal/internal/errors"
	"github.com/user/mealcal/internal/estimator"
	"github.com/user/mealcal/internal/logging"
)

const maxRequestBody = 1 << 20 // 1 MiB

// caloriesRequest is the body of POST /api/ai/calories
type caloriesRequest struct {
	Message             string        `json:"message"`
	ConversationHistory []historyTurn `json:"conversationHistory"`
}

type historyTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// caloriesResponse mirrors the extraction result. Macro fields serialize
// as null when the model's reply carried no structured macro line.
type caloriesResponse struct {
	Message           string `json:"message"`
	ExtractedCalories []int  `json:"extractedCalories"`
	ExtractedCarbs    *int   `json:"extractedCarbs"`
	ExtractedFat      *int   `json:"extractedFat"`
	ExtractedProtein  *int   `json:"extractedProtein"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleCalories serves POST /api/ai/calories
func (s *Server) handleCalories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	var req caloriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeFailure(w, r, errors.NewValidationError("request body must be valid JSON"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeFailure(w, r, errors.NewMissingFieldError("message"))
		return
	}

	history := make([]estimator.Turn, 0, len(req.ConversationHistory))
	for _, turn := range req.ConversationHistory {
		history = append(history, estimator.Turn{Role: turn.Role, Content: turn.Content})
	}

	result, err := s.orchestrator.Estimate(r.Context(), history, req.Message)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	calories := result.Calories
	if calories == nil {
		calories = []int{}
	}
	writeJSON(w, http.StatusOK, caloriesResponse{
		Message:           result.Message,
		ExtractedCalories: calories,
		ExtractedCarbs:    result.Carbs,
		ExtractedFat:      result.Fat,
		ExtractedProtein:  result.Protein,
	})
}

// handleHealth serves GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeFailure maps an error onto the client-safe status and message from
// the error taxonomy. Internal detail stays in the server log.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "an internal error occurred"
	var mcErr *errors.MealCalError
	if stderrors.As(err, &mcErr) {
		status = mcErr.HTTPStatus()
		message = mcErr.UserMessage()
	}

	s.logger.Error("request failed",
		logging.String("path", r.URL.Path),
		logging.String("code", string(errors.CodeOf(err))),
		logging.Int("status", status),
		logging.Error(err))

	writeError(w, status, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
