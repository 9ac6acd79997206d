package intelligence

import (
	"context"
	"errors"

	"github.com/alexanderramin/pathways/internal/llm"
)

// UserMessage turns an AI failure into text safe to show to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, llm.ErrRateLimited):
		return "Rate limit exceeded. Please wait a moment and try again."
	case errors.Is(err, llm.ErrCreditsExhausted):
		return "AI credits exhausted. Please add credits to continue."
	case errors.Is(err, llm.ErrQuotaExceeded):
		return "AI message quota exceeded. Upgrade to continue chatting."
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "The assistant took too long to respond. Please try again."
	case errors.Is(err, llm.ErrUnavailable):
		return "The assistant is unavailable right now. Please try again later."
	case errors.Is(err, llm.ErrDisabled):
		return "AI features are turned off. Set PATHWAYS_LLM_ENABLED=true to use them."
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	default:
		return "Something went wrong while talking to the assistant."
	}
}
