package dto

import (
	"time"

	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor"
)

type StartTutoringRequest struct {
	DocumentId string `json:"document_id" validate:"required"`
	SessionId  string `json:"session_id" validate:"omitempty,max=128"`
	Speak      bool   `json:"speak"`
}

// TutoringTurnRequest carries one of message, option or action.
type TutoringTurnRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	Message   string `json:"message" validate:"max=4000"`
	Option    *int   `json:"option" validate:"omitempty,min=0,max=3"`
	Action    string `json:"action" validate:"omitempty,oneof=advance"`
	Speak     bool   `json:"speak"`
}

type SubmitAnswerRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	Option    *int   `json:"option" validate:"required,min=0,max=3"`
	Speak     bool   `json:"speak"`
}

type AdvanceRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	Speak     bool   `json:"speak"`
}

type TutoringSessionResponse struct {
	SessionId           string                  `json:"session_id"`
	DocumentId          string                  `json:"document_id"`
	State               string                  `json:"state"`
	CurrentSectionIndex int                     `json:"current_section_index"`
	CurrentSectionTitle string                  `json:"current_section_title"`
	TotalSections       int                     `json:"total_sections"`
	ExplanationAttempts int                     `json:"explanation_attempts"`
	PendingQuiz         *tutor.QuizView         `json:"pending_quiz,omitempty"`
	Progress            []store.SectionProgress `json:"progress"`
	NeedsReview         []string                `json:"sections_needing_review"`
	HistoryLength       int                     `json:"history_length"`
	CreatedAt           time.Time               `json:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at"`
}
