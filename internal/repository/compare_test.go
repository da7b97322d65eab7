package repository_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/nikolayk812/checkout/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// assertSessionState compares states ignoring the repository-owned version
// counter. Money and decimals compare by value, timestamps tolerate the
// microsecond truncation of timestamptz.
func assertSessionState(t *testing.T, expected, actual domain.SessionState) {
	t.Helper()

	diff := cmp.Diff(expected, actual,
		cmpopts.IgnoreFields(domain.SessionState{}, "Version"),
		cmp.Comparer(func(a, b domain.Money) bool { return a.Equal(b) }),
		cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
		cmpopts.EquateApproxTime(time.Millisecond),
	)

	assert.Empty(t, diff)
}
