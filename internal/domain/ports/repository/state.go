package repository

import (
	"context"
)

// Conversation steps for the multi-step subscribe flow.
const (
	StepAwaitingAmount           = "awaiting_amount"
	StepAwaitingConfirm          = "awaiting_confirm"
	StepAwaitingOverwriteConfirm = "awaiting_overwrite_confirm"
	StepAwaitingProof            = "awaiting_proof"
)

// ConversationState holds a user's progress in any multi-step conversation.
// It is keyed by Telegram id and expires on its own; there is no ambient
// process-global flow state.
type ConversationState struct {
	Step string            `json:"step"`
	Data map[string]string `json:"data"` // collected fields, e.g. "amount"
}

// StateRepository is the port for managing any user's conversational state.
type StateRepository interface {
	SetState(ctx context.Context, tgID int64, state *ConversationState) error
	GetState(ctx context.Context, tgID int64) (*ConversationState, error)
	ClearState(ctx context.Context, tgID int64) error
}
