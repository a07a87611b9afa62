// Package ai talks to a generative model for discovery. Every caller treats
// a failure here as a reason to fall back, so errors are classified but never
// retried.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

var (
	// ErrDisabled is returned when no credential is configured.
	ErrDisabled = errors.New("ai provider disabled")

	ErrMalformedResponse = errors.New("malformed ai response")
)

// Provider completes a prompt. Implementations are asked for JSON and return
// the raw text of the model's reply.
type Provider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// DecodeJSON decodes a model reply into v. Models sometimes wrap JSON in a
// Markdown code fence even when asked not to; the fence is stripped first.
func DecodeJSON(raw string, v any) error {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	if s == "" {
		return fmt.Errorf("%w: empty reply", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
