// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"github.com/pdiddy/idea-engine/internal/fault"
)

func TestGeminiError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{"rate limited", genai.APIError{Code: 429, Message: "quota"}, 429, true},
		{"wrapped bad request", fmt.Errorf("call: %w", genai.APIError{Code: 400, Message: "bad"}), 400, false},
		{"deadline", context.DeadlineExceeded, 0, true},
		{"other", errors.New("boom"), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := geminiError(tt.err)
			var pe *fault.ProviderError
			assert.True(t, errors.As(err, &pe))
			assert.Equal(t, "gemini", pe.Provider)
			assert.Equal(t, tt.status, pe.StatusCode)
			assert.Equal(t, tt.retryable, fault.IsRetryable(err))
		})
	}
}
