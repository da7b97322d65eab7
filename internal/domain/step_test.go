package domain_test

import (
	"testing"

	"github.com/nikolayk812/checkout/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepOrdering(t *testing.T) {
	ordered := []domain.CheckoutStep{
		domain.StepStarted, domain.StepBuyerInfo, domain.StepDelivery,
		domain.StepPayment, domain.StepReview, domain.StepConfirmed,
	}

	for i, step := range ordered {
		rank, ok := step.Rank()
		require.True(t, ok, step)
		assert.Equal(t, i, rank, step)

		for _, later := range ordered[i+1:] {
			assert.True(t, step.Before(later), "%s < %s", step, later)
			assert.False(t, later.Before(step), "%s !< %s", later, step)
		}
	}
}

func TestTerminalStepsUnranked(t *testing.T) {
	for _, step := range []domain.CheckoutStep{domain.StepCompleted, domain.StepAbandoned, domain.StepExpired} {
		assert.True(t, step.IsTerminal(), step)

		_, ok := step.Rank()
		assert.False(t, ok, step)

		// outcomes are absorbing, never ordered against anything
		assert.False(t, step.Before(domain.StepConfirmed), step)
		assert.False(t, domain.StepStarted.Before(step), step)
	}

	assert.False(t, domain.StepConfirmed.IsTerminal(), "confirmed is semi-terminal")
}

func TestToCheckoutStep(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      domain.CheckoutStep
		wantError bool
	}{
		{name: "ranked step: ok", input: "delivery", want: domain.StepDelivery},
		{name: "terminal step: ok", input: "expired", want: domain.StepExpired},
		{name: "unknown: fail", input: "teleported", wantError: true},
		{name: "empty: fail", input: "", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step, err := domain.ToCheckoutStep(tt.input)

			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, step)
		})
	}
}
