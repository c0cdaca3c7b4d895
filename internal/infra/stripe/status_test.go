package stripe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"marketplace-app/internal/domain/purchases"
)

func TestNormalizePaymentStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"paid", purchases.StatusCompleted},
		{"succeeded", purchases.StatusCompleted},
		{"complete", purchases.StatusCompleted},
		{"  Paid ", purchases.StatusCompleted},
		{"unpaid", purchases.StatusPending},
		{"open", purchases.StatusPending},
		{"", purchases.StatusPending},
		{"expired", purchases.StatusFailed},
		{"canceled", purchases.StatusFailed},
		{"refunded", purchases.StatusRefunded},
		{"weird_new_status", purchases.StatusPending},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePaymentStatus(tc.in), "status %q", tc.in)
	}
}
