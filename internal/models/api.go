package models

// StartInterviewRequest creates a new interview session
type StartInterviewRequest struct {
	Config InterviewConfig `json:"config"`
}

// StartInterviewResponse is returned after starting an interview
type StartInterviewResponse struct {
	SessionID     string `json:"session_id"`
	Stage         Stage  `json:"stage"`
	Difficulty    int    `json:"difficulty"`
	FirstQuestion string `json:"first_question"`
}

// SubmitAnswerRequest submits an answer to the pending question
type SubmitAnswerRequest struct {
	Answer string `json:"answer"`
}

// SubmitAnswerResponse is returned after a turn completes
type SubmitAnswerResponse struct {
	Turn         *Turn   `json:"turn"`
	Stage        Stage   `json:"stage"`
	Difficulty   int     `json:"difficulty"`
	NextQuestion *string `json:"next_question"` // null once the interview is complete
	Complete     bool    `json:"complete"`
}
