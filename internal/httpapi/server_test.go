package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bibhubhatta/wecare/internal/chrono"
	"github.com/bibhubhatta/wecare/internal/db"
	"github.com/bibhubhatta/wecare/internal/requests"
	"github.com/bibhubhatta/wecare/lib/telemetry"
	"github.com/bibhubhatta/wecare/lib/testutil"

	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts Options) (requests.Store, *httptest.Server) {
	store := requests.NewStore(
		testutil.OpenDB(t, db.Migrations),
		chrono.NewManualTime(time.UnixMilli(1_700_000_000_000)),
	)
	server := httptest.NewServer(New(store, opts, telemetry.NewTestAPI(t)).Handler())
	t.Cleanup(server.Close)
	return store, server
}

func do(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func TestCreateAndGet(t *testing.T) {
	store, server := setup(t, Options{})

	res := do(t, http.MethodPost, server.URL+"/requests", "", map[string]string{"upc": "044000882105"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))
	created := decode[createResponse](t, res)
	require.NotEmpty(t, created.ID)

	res = do(t, http.MethodGet, server.URL+"/requests/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	got := decode[requests.Request](t, res)
	require.Equal(t, "044000882105", got.UPC)
	require.Nil(t, got.Success)

	pending, err := store.Pending(t.Context())
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestCreateManual(t *testing.T) {
	_, server := setup(t, Options{})

	res := do(t, http.MethodPost, server.URL+"/requests/manual", "", map[string]string{
		"upc":       "12345",
		"item_name": "Homemade Jam",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	id := decode[createResponse](t, res).ID

	res = do(t, http.MethodGet, server.URL+"/requests/"+id, "", nil)
	require.Equal(t, "Homemade Jam", decode[requests.Request](t, res).ItemName)

	res = do(t, http.MethodPost, server.URL+"/requests/manual", "", map[string]string{"upc": "12345"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestErrors(t *testing.T) {
	_, server := setup(t, Options{})

	res := do(t, http.MethodGet, server.URL+"/requests/missing", "", nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res = do(t, http.MethodPost, server.URL+"/requests", "", "not an object")
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = do(t, http.MethodPost, server.URL+"/requests", "", map[string]string{"upc": " "})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = do(t, http.MethodGet, server.URL+"/requests?status=bogus", "", nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestList(t *testing.T) {
	store, server := setup(t, Options{})
	ctx := t.Context()

	first, err := store.Enqueue(ctx, "1")
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, first.ID, requests.Result{Success: true}))
	_, err = store.Enqueue(ctx, "2")
	require.NoError(t, err)

	res := do(t, http.MethodGet, server.URL+"/requests?status=succeeded", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	list := decode[[]requests.Request](t, res)
	require.Len(t, list, 1)
	require.Equal(t, first.ID, list[0].ID)

	res = do(t, http.MethodGet, server.URL+"/requests?upc=3", "", nil)
	require.Empty(t, decode[[]requests.Request](t, res))
}

func TestBearerAuth(t *testing.T) {
	secret := []byte("test-secret")
	_, server := setup(t, Options{JwtSecret: secret})
	body := map[string]string{"upc": "044000882105"}

	res := do(t, http.MethodPost, server.URL+"/requests", "", body)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	forged, err := IssueToken([]byte("other-secret"), "kiosk-1", time.Hour)
	require.NoError(t, err)
	res = do(t, http.MethodPost, server.URL+"/requests", forged, body)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	expired, err := IssueToken(secret, "kiosk-1", -time.Minute)
	require.NoError(t, err)
	res = do(t, http.MethodPost, server.URL+"/requests", expired, body)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	token, err := IssueToken(secret, "kiosk-1", time.Hour)
	require.NoError(t, err)
	res = do(t, http.MethodPost, server.URL+"/requests", token, body)
	require.Equal(t, http.StatusCreated, res.StatusCode)
}

func TestParseToken(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueToken(secret, "kiosk-1", time.Hour)
	require.NoError(t, err)

	claims, err := parseToken(secret, token)
	require.NoError(t, err)
	require.Equal(t, "kiosk-1", claims.Subject)

	_, err = IssueToken(nil, "kiosk-1", time.Hour)
	require.Error(t, err)
}
