package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ybj/termfolio/internal/store"
)

// login posts the default credentials and returns the session cookie.
func login(t *testing.T, env *testEnv) *http.Cookie {
	t.Helper()
	rec := env.do(postForm("/admin/login", url.Values{
		"username": {env.cfg.Admin.Username},
		"password": {env.cfg.Admin.Password},
	}))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))

	for _, c := range rec.Result().Cookies() {
		if c.Name == adminCookie {
			assert.True(t, c.HttpOnly)
			assert.Equal(t, "/admin", c.Path)
			return c
		}
	}
	t.Fatalf("\nwanted: %s cookie\ngot: none", adminCookie)
	return nil
}

func authed(method, path string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.AddCookie(cookie)
	return req
}

func TestAdminRequiresLogin(t *testing.T) {
	env := newTestEnv(t, "")

	for _, path := range []string{"/admin/dashboard", "/admin/visitors", "/admin/submissions", "/admin/api/stats"} {
		rec := env.get(path)
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/admin/login", rec.Header().Get("Location"), path)
	}

	forged := authed(http.MethodGet, "/admin/dashboard", &http.Cookie{Name: adminCookie, Value: "guess"})
	assert.Equal(t, http.StatusFound, env.do(forged).Code)
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t, "")

	assert.Equal(t, http.StatusOK, env.get("/admin/login").Code)

	rec := env.do(postForm("/admin/login", url.Values{
		"username": {"admin"},
		"password": {"wrong"},
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
	assert.Empty(t, rec.Result().Cookies())
}

func TestAdminDashboard(t *testing.T) {
	env := newTestEnv(t, "")
	cookie := login(t, env)

	env.get("/")
	env.srv.Wait()

	rec := env.do(authed(http.MethodGet, "/admin/dashboard", cookie))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "total visitors")

	for _, path := range []string{"/admin/visitors", "/admin/submissions"} {
		assert.Equal(t, http.StatusOK, env.do(authed(http.MethodGet, path, cookie)).Code, path)
	}

	stats := env.do(authed(http.MethodGet, "/admin/api/stats", cookie))
	require.Equal(t, http.StatusOK, stats.Code)
	var got AdminStats
	require.NoError(t, json.Unmarshal(stats.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.Total)
	assert.Equal(t, int64(0), got.Submissions["pending"])

	export := env.do(authed(http.MethodGet, "/admin/export/stats", cookie))
	require.Equal(t, http.StatusOK, export.Code)
	assert.Equal(t, "attachment; filename=admin-stats.json", export.Header().Get("Content-Disposition"))
}

func TestAdminLogout(t *testing.T) {
	env := newTestEnv(t, "")
	login(t, env)

	rec := env.get("/admin/logout")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, adminCookie, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestAdminSubmissionActions(t *testing.T) {
	hook, calls := webhook(t, http.StatusOK)
	env := newTestEnv(t, hook.URL)
	cookie := login(t, env)
	ctx := t.Context()

	id := uuid.Must(uuid.NewV7())
	require.NoError(t, env.repo.InsertSubmission(ctx, &store.Submission{
		ID:        id,
		Name:      "Ada",
		Email:     "ada@example.com",
		Message:   "hi",
		CreatedAt: time.Now(),
	}))

	assert.Equal(t, http.StatusBadRequest,
		env.do(authed(http.MethodPost, "/admin/submissions/not-a-uuid/retry", cookie)).Code)
	assert.Equal(t, http.StatusNotFound,
		env.do(authed(http.MethodPost, "/admin/submissions/"+uuid.NewString()+"/retry", cookie)).Code)

	rec := env.do(authed(http.MethodPost, "/admin/submissions/"+id.String()+"/retry", cookie))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int32(1), calls.Load())

	sub, err := env.repo.GetSubmission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusDelivered, sub.Status)

	rec = env.do(authed(http.MethodDelete, "/admin/submissions/"+id.String(), cookie))
	require.Equal(t, http.StatusOK, rec.Code)
	_, err = env.repo.GetSubmission(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.Equal(t, http.StatusNotFound,
		env.do(authed(http.MethodDelete, "/admin/submissions/"+id.String(), cookie)).Code)
}

func TestAdminRetryNotConfigured(t *testing.T) {
	env := newTestEnv(t, "")
	cookie := login(t, env)

	id := uuid.Must(uuid.NewV7())
	require.NoError(t, env.repo.InsertSubmission(t.Context(), &store.Submission{
		ID: id, Name: "Ada", Email: "ada@example.com", Message: "hi", CreatedAt: time.Now(),
	}))

	rec := env.do(authed(http.MethodPost, "/admin/submissions/"+id.String()+"/retry", cookie))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminRetryInFlight(t *testing.T) {
	hook, calls := webhook(t, http.StatusOK)
	env := newTestEnv(t, hook.URL)
	cookie := login(t, env)
	ctx := t.Context()

	id := uuid.Must(uuid.NewV7())
	now := time.Now()
	require.NoError(t, env.repo.InsertSubmission(ctx, &store.Submission{
		ID: id, Name: "Ada", Email: "ada@example.com", Message: "hi", CreatedAt: now,
	}))
	claimed, err := env.repo.ClaimSubmission(ctx, id, 0, now, now.Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, claimed)

	rec := env.do(authed(http.MethodPost, "/admin/submissions/"+id.String()+"/retry", cookie))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Zero(t, calls.Load())
}

func TestAdminPrivacyCleanup(t *testing.T) {
	env := newTestEnv(t, "")
	cookie := login(t, env)
	ctx := t.Context()

	now := time.Now()
	for _, at := range []time.Time{now.AddDate(0, 0, -400), now.Add(-time.Hour)} {
		require.NoError(t, env.repo.RecordVisit(ctx, store.Visit{
			HashedIP:  "0123456789abcdef",
			UserAgent: "test",
			Path:      "/",
			VisitedAt: at,
		}))
	}

	rec := env.do(authed(http.MethodPost, "/admin/privacy/cleanup", cookie))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Removed int64 `json:"removed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.Removed)

	visits, err := env.repo.RecentVisits(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}
