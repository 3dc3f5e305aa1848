package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Invocation is an audit record of a single MCP tool call
type Invocation struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	ResultText string    `json:"result_text"`
	InvokedAt  time.Time `json:"invoked_at"`
}

// InvocationListResponse represents a list of recent invocations
type InvocationListResponse struct {
	Count       int           `json:"count"`
	Invocations []*Invocation `json:"invocations"`
}

// Validation errors
var (
	ErrEmptyTool     = errors.New("tool name cannot be empty")
	ErrEmptyID       = errors.New("invocation id cannot be empty")
	ErrZeroInvokedAt = errors.New("invoked_at cannot be zero")
)

// NewInvocation creates an audit record for a completed tool call,
// stamped with a fresh UUID and the current UTC time
func NewInvocation(tool, resultText string) *Invocation {
	return &Invocation{
		ID:         uuid.NewString(),
		Tool:       strings.TrimSpace(tool),
		ResultText: resultText,
		InvokedAt:  time.Now().UTC(),
	}
}

// Validate validates all fields of an Invocation
func (i *Invocation) Validate() error {
	if i.ID == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(i.Tool) == "" {
		return ErrEmptyTool
	}
	if i.InvokedAt.IsZero() {
		return ErrZeroInvokedAt
	}
	return nil
}

// ToInvocationListResponse wraps a slice of invocations in a list response
func ToInvocationListResponse(invocations []*Invocation) *InvocationListResponse {
	if invocations == nil {
		invocations = []*Invocation{}
	}
	return &InvocationListResponse{
		Count:       len(invocations),
		Invocations: invocations,
	}
}
