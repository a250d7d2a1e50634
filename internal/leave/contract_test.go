package leave

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runBackendContract exercises the behaviour every backend must share.
// newBackend must return an initialized, empty backend.
func runBackendContract(t *testing.T, newBackend func(t *testing.T) Backend) {
	t.Run("credentials round trip", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.Write(ctx, "alice", "pw1", RoleStudent))

		ok, err := b.Verify(ctx, "alice", "pw1", RoleStudent)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("credentials mismatch", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.Write(ctx, "alice", "pw1", RoleStudent))

		cases := []struct {
			name               string
			username, password string
			role               Role
		}{
			{"wrong password", "alice", "nope", RoleStudent},
			{"wrong username", "alicia", "pw1", RoleStudent},
			{"wrong role", "alice", "pw1", RoleHOD},
		}
		for _, tc := range cases {
			ok, err := b.Verify(ctx, tc.username, tc.password, tc.role)
			require.NoError(t, err, tc.name)
			assert.False(t, ok, tc.name)
		}
	})

	t.Run("duplicate usernames allowed", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.Write(ctx, "bob", "first", RoleHOD))
		require.NoError(t, b.Write(ctx, "bob", "second", RoleHOD))

		for _, pw := range []string{"first", "second"} {
			ok, err := b.Verify(ctx, "bob", pw, RoleHOD)
			require.NoError(t, err)
			assert.True(t, ok, pw)
		}
	})

	t.Run("save then list", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		in := Application{Username: "alice", Reason: "sick", FromDate: "2024-01-01", TillDate: "2024-01-03", Year: "2024"}
		_, err := b.Save(ctx, in)
		require.NoError(t, err)

		apps, err := b.List(ctx)
		require.NoError(t, err)
		require.Len(t, apps, 1)
		got := apps[0]
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, "sick", got.Reason)
		assert.Equal(t, "2024-01-01", got.FromDate)
		assert.Equal(t, "2024-01-03", got.TillDate)
		assert.Equal(t, "2024", got.Year)
		assert.Equal(t, "", got.Filename)
		assert.True(t, got.Pending())
	})

	t.Run("list is stable", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		for _, u := range []string{"a", "b", "c"} {
			_, err := b.Save(ctx, Application{Username: u, Reason: "r", FromDate: "f", TillDate: "t", Year: "y", Filename: u + ".pdf"})
			require.NoError(t, err)
		}
		first, err := b.List(ctx)
		require.NoError(t, err)
		second, err := b.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		require.Len(t, first, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{first[0].Username, first[1].Username, first[2].Username})
	})

	t.Run("decision touches only its index", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		for _, u := range []string{"a", "b", "c"} {
			_, err := b.Save(ctx, Application{Username: u, Reason: "r", FromDate: "f", TillDate: "t", Year: "y"})
			require.NoError(t, err)
		}
		before, err := b.List(ctx)
		require.NoError(t, err)

		require.NoError(t, b.SetDecision(ctx, 1, DecisionApproved))

		after, err := b.List(ctx)
		require.NoError(t, err)
		require.Len(t, after, 3)
		for i := range after {
			want := before[i]
			if i == 1 {
				want.Decision = DecisionApproved
			}
			assert.Equal(t, want, after[i], "index %d", i)
		}
	})

	t.Run("decision out of range", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		_, err := b.Save(ctx, Application{Username: "a", Reason: "r", FromDate: "f", TillDate: "t", Year: "y"})
		require.NoError(t, err)

		for _, idx := range []int{-1, 1, 42} {
			err := b.SetDecision(ctx, idx, DecisionRejected)
			assert.ErrorIs(t, err, ErrInvalidIndex, "index %d", idx)
		}
		apps, err := b.List(ctx)
		require.NoError(t, err)
		assert.True(t, apps[0].Pending())
	})
}
