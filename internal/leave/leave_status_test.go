package leave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-hrms/internal/leave"
)

func TestLeaveStatus_CanTransition(t *testing.T) {
	cases := []struct {
		from    leave.LeaveStatus
		to      leave.LeaveStatus
		allowed bool
	}{
		{leave.StatusPending, leave.StatusApproved, true},
		{leave.StatusPending, leave.StatusRejected, true},
		{leave.StatusPending, leave.StatusCancelled, true},
		{leave.StatusPending, leave.StatusPending, false},
		{leave.StatusApproved, leave.StatusRejected, false},
		{leave.StatusApproved, leave.StatusCancelled, false},
		{leave.StatusRejected, leave.StatusApproved, false},
		{leave.StatusCancelled, leave.StatusApproved, false},
	}

	for _, tc := range cases {
		t.Run(tc.from.String()+"_to_"+tc.to.String(), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to))
		})
	}
}

func TestLeaveStatus_Terminal(t *testing.T) {
	assert.False(t, leave.StatusPending.Terminal())
	assert.True(t, leave.StatusApproved.Terminal())
	assert.True(t, leave.StatusRejected.Terminal())
	assert.True(t, leave.StatusCancelled.Terminal())
}

func TestLeaveStatus_Blocking(t *testing.T) {
	assert.True(t, leave.StatusPending.Blocking())
	assert.True(t, leave.StatusApproved.Blocking())
	assert.False(t, leave.StatusRejected.Blocking())
	assert.False(t, leave.StatusCancelled.Blocking())
}

func TestLeaveStatus_Scan(t *testing.T) {
	t.Run("accepts known value", func(t *testing.T) {
		var s leave.LeaveStatus
		assert.NoError(t, s.Scan("APPROVED"))
		assert.Equal(t, leave.StatusApproved, s)
	})

	t.Run("accepts byte slice", func(t *testing.T) {
		var s leave.LeaveStatus
		assert.NoError(t, s.Scan([]byte("PENDING")))
		assert.Equal(t, leave.StatusPending, s)
	})

	t.Run("rejects unknown value", func(t *testing.T) {
		var s leave.LeaveStatus
		assert.Error(t, s.Scan("DRAFT"))
	})
}

func TestLeaveStatus_Value(t *testing.T) {
	v, err := leave.StatusRejected.Value()
	assert.NoError(t, err)
	assert.Equal(t, "REJECTED", v)

	_, err = leave.LeaveStatus("NOPE").Value()
	assert.Error(t, err)
}

func TestLeaveCategory_Accrual(t *testing.T) {
	assert.True(t, leave.CategoryAnnual.Accrual())
	assert.True(t, leave.CategorySick.Accrual())
	assert.False(t, leave.CategoryUnpaid.Accrual())
	assert.False(t, leave.CategoryOther.Accrual())
}

func TestParseCategory(t *testing.T) {
	c, err := leave.ParseCategory("SICK")
	assert.NoError(t, err)
	assert.Equal(t, leave.CategorySick, c)

	_, err = leave.ParseCategory("SABBATICAL")
	assert.Error(t, err)
}
