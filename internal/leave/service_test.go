package leave

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaveportal/internal/metrics"
)

func TestServiceScenario(t *testing.T) {
	store := newTestFileStore(t)
	m := metrics.New(nil)
	svc := NewService(store, store, m)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice", "pw1", RoleStudent))
	require.NoError(t, svc.Register(ctx, "bob", "pw2", RoleHOD))

	ok, err := svc.Login(ctx, "alice", "pw1", RoleStudent)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.Login(ctx, "alice", "pw1", RoleHOD)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Apply(ctx, Application{Username: "alice", Reason: "sick", FromDate: "2024-01-01", TillDate: "2024-01-03", Year: "2024"})
	require.NoError(t, err)
	_, err = svc.Apply(ctx, Application{Username: "carol", Reason: "trip", FromDate: "a", TillDate: "b", Year: "2024", Filename: "x.pdf"})
	require.NoError(t, err)

	own, err := svc.ListFor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "sick", own[0].Reason)
	assert.True(t, own[0].Pending())

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 0, all[0].Index)
	assert.Equal(t, "alice", all[0].Username)
	assert.Equal(t, 1, all[1].Index)

	require.NoError(t, svc.Review(ctx, 0, DecisionApproved))
	all, err = svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, DecisionApproved, all[0].Decision)
	assert.True(t, all[1].Pending())

	assert.ErrorIs(t, svc.Review(ctx, 5, DecisionRejected), ErrInvalidIndex)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues("student")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logins.WithLabelValues("student", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logins.WithLabelValues("hod", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Applications.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Applications.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reviews.WithLabelValues("approved")))
}

func TestServiceRegisterRequiresCredentials(t *testing.T) {
	store := newTestFileStore(t)
	svc := NewService(store, store, nil)
	assert.ErrorIs(t, svc.Register(context.Background(), "", "pw", RoleStudent), ErrEmptyCredentials)
}

func TestParseRoleAndDecision(t *testing.T) {
	r, err := ParseRole("hod")
	require.NoError(t, err)
	assert.Equal(t, RoleHOD, r)
	_, err = ParseRole("admin")
	assert.ErrorIs(t, err, ErrUnknownRole)

	d, err := ParseDecision("rejected")
	require.NoError(t, err)
	assert.Equal(t, DecisionRejected, d)
	_, err = ParseDecision("")
	assert.ErrorIs(t, err, ErrInvalidDecision)
	_, err = ParseDecision("maybe")
	assert.ErrorIs(t, err, ErrInvalidDecision)
}
