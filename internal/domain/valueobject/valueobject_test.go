package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusTransitions(t *testing.T) {
	assert.True(t, JobStatusOpen.CanTransitionTo(JobStatusInProgress))
	assert.True(t, JobStatusOpen.CanTransitionTo(JobStatusCancelled))
	assert.True(t, JobStatusInProgress.CanTransitionTo(JobStatusCompleted))
	assert.True(t, JobStatusInProgress.CanTransitionTo(JobStatusCancelled))

	assert.False(t, JobStatusOpen.CanTransitionTo(JobStatusCompleted))
	assert.False(t, JobStatusCompleted.CanTransitionTo(JobStatusCancelled))
	assert.False(t, JobStatusCancelled.CanTransitionTo(JobStatusOpen))
	assert.False(t, JobStatus("draft").CanTransitionTo(JobStatusOpen))

	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusCancelled.IsTerminal())
	assert.False(t, JobStatusInProgress.IsTerminal())
}

func TestNewStatuses(t *testing.T) {
	_, err := NewJobStatus("published")
	assert.Error(t, err)

	s, err := NewBidStatus("shortlisted")
	require.NoError(t, err)
	assert.False(t, s.IsTerminal())

	r, err := NewReportStatus("reviewed")
	require.NoError(t, err)
	assert.True(t, r.IsOutcome())
	assert.False(t, r.IsTerminal())
	assert.False(t, ReportStatusPending.IsOutcome())
}

func TestRole(t *testing.T) {
	r, err := NewRole("superadmin")
	require.NoError(t, err)
	assert.True(t, r.IsModerator())
	assert.False(t, RoleVendor.IsModerator())

	_, err = NewRole("root")
	assert.Error(t, err)
}

func TestNewAmount(t *testing.T) {
	_, err := NewAmount(decimal.Zero)
	assert.Error(t, err)

	_, err = NewAmount(decimal.NewFromInt(-5))
	assert.Error(t, err)

	_, err = NewAmount(decimal.RequireFromString("10.001"))
	assert.Error(t, err)

	amount, err := ParseAmount("800.50")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("800.5")))

	_, err = ParseAmount("abc")
	assert.Error(t, err)
}

func TestBudget(t *testing.T) {
	min := decimal.NewFromInt(500)
	max := decimal.NewFromInt(100)
	_, err := NewBudget(&min, &max)
	assert.Error(t, err)

	b, err := NewBudget(&max, &min)
	require.NoError(t, err)
	assert.Equal(t, "100.00 - 500.00", b.String())

	empty, err := NewBudget(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "по договорённости", empty.String())
}
