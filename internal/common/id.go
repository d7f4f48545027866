package common

import (
	"github.com/google/uuid"
)

// NewInvocationID generates a correlation id for one tool call
// Format: call_<uuid>
func NewInvocationID() string {
	return "call_" + uuid.New().String()
}
