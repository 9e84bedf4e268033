package worker

import (
	"context"
	"testing"
	"time"

	"github.com/bibhubhatta/wecare/internal/alert"
	"github.com/bibhubhatta/wecare/internal/chrono"
	"github.com/bibhubhatta/wecare/internal/db"
	"github.com/bibhubhatta/wecare/internal/inventory"
	"github.com/bibhubhatta/wecare/internal/reconcile"
	"github.com/bibhubhatta/wecare/internal/requests"
	"github.com/bibhubhatta/wecare/lib/telemetry"
	"github.com/bibhubhatta/wecare/lib/testutil"

	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	outcomes map[string]reconcile.Outcome
	errs     map[string]error
	calls    []string
}

func (e *fakeEngine) run(code string, progress reconcile.Progress) (reconcile.Outcome, error) {
	e.calls = append(e.calls, code)
	progress(reconcile.MsgCheckingPantry)
	if err, ok := e.errs[code]; ok {
		return reconcile.Outcome{}, err
	}
	return e.outcomes[code], nil
}

func (e *fakeEngine) AddItem(ctx context.Context, code string, progress reconcile.Progress) (reconcile.Outcome, error) {
	return e.run(code, progress)
}

func (e *fakeEngine) AddManual(ctx context.Context, code, name string, progress reconcile.Progress) (reconcile.Outcome, error) {
	return e.run(code, progress)
}

type fakeAlerter struct {
	subjects []string
}

func (a *fakeAlerter) Alert(ctx context.Context, subject, body string) error {
	a.subjects = append(a.subjects, subject)
	return nil
}

var _ alert.Alerter = (*fakeAlerter)(nil)

func setup(t *testing.T, engine *fakeEngine) (requests.Store, *fakeAlerter, Worker) {
	clock := chrono.NewManualTime(time.UnixMilli(1_700_000_000_000))
	store := requests.NewStore(testutil.OpenDB(t, db.Migrations), clock)
	alerter := &fakeAlerter{}
	w := New(store, engine, alerter, telemetry.NewTestAPI(t), Options{PollInterval: time.Millisecond})
	return store, alerter, w
}

func TestProcessPending(t *testing.T) {
	engine := &fakeEngine{
		outcomes: map[string]reconcile.Outcome{
			"1": {Result: inventory.Added, Description: "<h1>Ritz</h1>", ImageURL: "http://img"},
			"2": {Result: inventory.NotFound},
			"3": {Result: inventory.Added, Description: inventory.ManualDescription},
		},
		errs: map[string]error{
			"4": inventory.Errorf(inventory.KindSessionExpired, "pantrysoft.request", "redirected"),
		},
	}
	store, alerter, w := setup(t, engine)
	ctx := context.Background()

	added, err := store.Enqueue(ctx, "1")
	require.NoError(t, err)
	missing, err := store.Enqueue(ctx, "2")
	require.NoError(t, err)
	manual, err := store.EnqueueManual(ctx, "3", "Jam")
	require.NoError(t, err)
	expired, err := store.Enqueue(ctx, "4")
	require.NoError(t, err)

	require.NoError(t, w.ProcessPending(ctx))
	require.Empty(t, alerter.subjects)

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)

	get := func(id string) requests.Request {
		r, err := store.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, r.Success)
		return r
	}

	r := get(added.ID)
	require.True(t, *r.Success)
	require.Equal(t, "<h1>Ritz</h1>", r.ItemDescription)
	require.Equal(t, "http://img", r.ItemImageURL)
	require.Equal(t, reconcile.MsgCheckingPantry+"\n", r.Message)

	require.False(t, *get(missing.ID).Success)

	r = get(manual.ID)
	require.True(t, *r.Success)
	require.Equal(t, inventory.ManualDescription+" Jam", r.ItemDescription)

	r = get(expired.ID)
	require.False(t, *r.Success)
	require.Contains(t, r.Message, "Error: ")
}

func TestAuthTimeoutStopsWorker(t *testing.T) {
	engine := &fakeEngine{
		errs: map[string]error{
			"1": inventory.Errorf(inventory.KindAuthTimeout, "session.login", "marker never appeared"),
		},
	}
	store, alerter, w := setup(t, engine)
	ctx := context.Background()

	first, err := store.Enqueue(ctx, "1")
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, "2")
	require.NoError(t, err)

	err = w.Run(ctx)
	require.ErrorIs(t, err, inventory.ErrAuthTimeout)
	require.Equal(t, []string{"PantrySoft login timed out"}, alerter.subjects)
	require.Equal(t, []string{"1"}, engine.calls)

	r, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, r.Pending())
}

func TestRunStopsOnCancel(t *testing.T) {
	engine := &fakeEngine{}
	_, _, w := setup(t, engine)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, w.Run(ctx))
}
