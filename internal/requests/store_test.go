package requests

import (
	"context"
	"testing"
	"time"

	"github.com/bibhubhatta/wecare/internal/chrono"
	"github.com/bibhubhatta/wecare/internal/db"
	"github.com/bibhubhatta/wecare/internal/inventory"
	"github.com/bibhubhatta/wecare/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (Store, *chrono.ManualTime) {
	clock := chrono.NewManualTime(time.UnixMilli(1_700_000_000_000))
	return NewStore(testutil.OpenDB(t, db.Migrations), clock), clock
}

func TestEnqueueAndGet(t *testing.T) {
	store, clock := newStore(t)
	ctx := context.Background()

	auto, err := store.Enqueue(ctx, " 044000882105 ")
	require.NoError(t, err)
	require.False(t, auto.Manual())
	require.True(t, auto.Pending())
	require.Equal(t, "044000882105", auto.UPC)
	require.Equal(t, clock.Now(), auto.CreatedAt)

	manual, err := store.EnqueueManual(ctx, "12345", "Homemade Jam")
	require.NoError(t, err)
	require.True(t, manual.Manual())

	got, err := store.Get(ctx, manual.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(manual, got); diff != "" {
		t.Fatalf("unexpected request (-want +got):\n%s", diff)
	}

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, inventory.ErrNotFound)

	_, err = store.EnqueueManual(ctx, "12345", " ")
	require.ErrorIs(t, err, inventory.ErrInvalid)
	_, err = store.Enqueue(ctx, "")
	require.ErrorIs(t, err, inventory.ErrInvalid)
}

func TestPendingAndComplete(t *testing.T) {
	store, clock := newStore(t)
	ctx := context.Background()

	first, err := store.Enqueue(ctx, "1")
	require.NoError(t, err)
	clock.Advance(time.Second)
	second, err := store.Enqueue(ctx, "2")
	require.NoError(t, err)

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, first.ID, pending[0].ID)

	require.NoError(t, store.AppendMessage(ctx, first.ID, "Checking PantrySoft..."))
	require.NoError(t, store.Complete(ctx, first.ID, Result{
		Success:         true,
		Message:         "Item added to PantrySoft.",
		ItemDescription: "<h1>x</h1>",
		ItemImageURL:    "http://img",
	}))

	done, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, done.Success)
	require.True(t, *done.Success)
	require.Equal(t, "Checking PantrySoft...\nItem added to PantrySoft.\n", done.Message)
	require.Equal(t, "<h1>x</h1>", done.ItemDescription)
	require.Equal(t, "http://img", done.ItemImageURL)

	pending, err = store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, second.ID, pending[0].ID)
}

func TestList(t *testing.T) {
	store, clock := newStore(t)
	ctx := context.Background()

	ok, err := store.Enqueue(ctx, "1")
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, ok.ID, Result{Success: true}))
	clock.Advance(time.Minute)

	failed, err := store.Enqueue(ctx, "2")
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, failed.ID, Result{Success: false}))
	clock.Advance(time.Minute)

	pending, err := store.Enqueue(ctx, "2")
	require.NoError(t, err)

	ids := func(requests []Request) []string {
		var out []string
		for _, r := range requests {
			out = append(out, r.ID)
		}
		return out
	}

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, []string{pending.ID, failed.ID, ok.ID}, ids(all))

	list, err := store.List(ctx, Filter{Status: StatusFailed})
	require.NoError(t, err)
	require.Equal(t, []string{failed.ID}, ids(list))

	list, err = store.List(ctx, Filter{Status: StatusPending})
	require.NoError(t, err)
	require.Equal(t, []string{pending.ID}, ids(list))

	list, err = store.List(ctx, Filter{UPC: "2", Limit: 1})
	require.NoError(t, err)
	require.Equal(t, []string{pending.ID}, ids(list))

	list, err = store.List(ctx, Filter{Since: failed.CreatedAt})
	require.NoError(t, err)
	require.Equal(t, []string{pending.ID, failed.ID}, ids(list))

	_, err = store.List(ctx, Filter{Status: "bogus"})
	require.ErrorIs(t, err, inventory.ErrInvalid)
}
