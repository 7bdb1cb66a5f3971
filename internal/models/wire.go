package models

import "encoding/json"

// ReviewRequest is the body of POST /api/review.
type ReviewRequest struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

// RefactorRequest is the body of POST /api/refactor.
type RefactorRequest struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
}

// Envelope is the response shape shared by every /api endpoint.
// Report stays raw so the client can validate it against the report contract.
type Envelope struct {
	Success        bool            `json:"success"`
	Error          string          `json:"error,omitempty"`
	Report         json.RawMessage `json:"report,omitempty"`
	RefactoredCode *string         `json:"refactored_code,omitempty"`
	Response       *string         `json:"response,omitempty"`
}
