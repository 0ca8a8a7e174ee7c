package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRejectionMatchesByReason(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", reject(ReasonWeeklyCapExceeded, "3 active reservations"))
	assert.ErrorIs(t, err, ErrWeeklyCapExceeded)
	assert.NotErrorIs(t, err, ErrDailyCapExceeded)

	r, ok := AsRejection(err)
	assert.True(t, ok)
	assert.Equal(t, ReasonWeeklyCapExceeded, r.Reason)
	assert.Contains(t, err.Error(), "3 active reservations")
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrSlotUnavailable, "rejected"},
		{invalid("bad slot"), "invalid_request"},
		{ErrReservationNotFound, "not_found"},
		{persistence("insert", errors.New("boom")), "persistence"},
		{persistence("insert", context.Canceled), "canceled"},
		{errors.New("other"), "unexpected"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}
