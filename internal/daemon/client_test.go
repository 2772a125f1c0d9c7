package daemon

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/kcal/internal/tracker"
)

func TestClientRoundTrip(t *testing.T) {
	s, log, _ := newTestService(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL)

	require.NoError(t, c.Health(ctx))

	entry, err := c.AddEntry(ctx, "Oatmeal", "350kcal")
	require.NoError(t, err)
	assert.Equal(t, 350, entry.Calories)
	require.Len(t, log.Entries(), 1)

	_, err = c.AddEntry(ctx, "", "100")
	assert.ErrorIs(t, err, tracker.ErrInvalidEntry)

	state, err := c.SetGoal(ctx, "1800")
	require.NoError(t, err)
	assert.Equal(t, 1800, state.Goal)

	state, err = c.Log(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1450, state.Totals.Remaining)

	require.NoError(t, c.DeleteEntry(ctx, entry.ID))
	assert.Empty(t, log.Entries())

	_, err = c.AddEntry(ctx, "Salad", "420")
	require.NoError(t, err)
	state, err = c.Reset(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, state.Entries)
	assert.Equal(t, 1800, state.Goal)

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19", st.Date)
}

func TestClientUnavailable(t *testing.T) {
	srv := httptest.NewServer(nil)
	addr := srv.Listener.Addr().String()
	srv.Close()

	err := NewClient(addr).Health(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}
