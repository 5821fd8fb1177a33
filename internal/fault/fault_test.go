// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fault

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/idea-engine/pkg/types"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindOther},
		{"rate limited", &ProviderError{Provider: "research", StatusCode: 429}, KindTransient},
		{"service unavailable", &ProviderError{Provider: "research", StatusCode: 503}, KindTransient},
		{"gateway timeout", &ProviderError{Provider: "research", StatusCode: 504}, KindTransient},
		{"internal error", &ProviderError{Provider: "synthesis", StatusCode: 500}, KindTransient},
		{"bad request", &ProviderError{Provider: "synthesis", StatusCode: 400}, KindProvider},
		{"unauthorized", &ProviderError{Provider: "synthesis", StatusCode: 401}, KindProvider},
		{"timeout flag", &ProviderError{Provider: "synthesis", Timeout: true}, KindTransient},
		{"reset in message", &ProviderError{Provider: "synthesis", Message: "read: ECONNRESET"}, KindTransient},
		{"wrapped reset", fmt.Errorf("calling: %w", syscall.ECONNRESET), KindTransient},
		{"deadline", context.DeadlineExceeded, KindTransient},
		{"canceled", context.Canceled, KindOther},
		{"unavailable", &UnavailableError{Domain: types.DomainMarket, Err: errors.New("x")}, KindUnavailable},
		{"quality", fmt.Errorf("agent: %w", &QualityError{Domain: types.DomainProduct}), KindQuality},
		{"validation", &ValidationError{Agent: "market", Field: "score"}, KindValidation},
		{"plain", errors.New("boom"), KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestUnavailableError_MatchesSentinel(t *testing.T) {
	cause := &ProviderError{Provider: "research", StatusCode: 503}
	err := fmt.Errorf("market agent: %w", &UnavailableError{Domain: types.DomainMarket, Err: cause})

	assert.ErrorIs(t, err, ErrResearchUnavailable)
	assert.Equal(t, 503, StatusCode(err))
	assert.False(t, IsRetryable(err))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "research API returned 503: busy",
		(&ProviderError{Provider: "research", StatusCode: 503, Message: "busy"}).Error())
	assert.Equal(t, "market research quality insufficient: a, b",
		(&QualityError{Domain: types.DomainMarket, Issues: []string{"a", "b"}}).Error())
	assert.Equal(t, "final: invalid recommendation: no phrase found (expected Anbefaling: GÅ VIDERE|AVVENT|FORKAST)",
		(&ValidationError{Agent: "final", Field: "recommendation", Reason: "no phrase found", Expected: "Anbefaling: GÅ VIDERE|AVVENT|FORKAST"}).Error())
}
