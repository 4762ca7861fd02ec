package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

type fakeRunner struct {
	stats models.RunStats
	err   error
	calls int
}

func (f *fakeRunner) Trigger(context.Context) (models.RunStats, error) {
	f.calls++
	return f.stats, f.err
}

type checkFunc func(ctx context.Context) error

func (f checkFunc) Health(ctx context.Context) error { return f(ctx) }

func do(t *testing.T, s *Server, method, path, auth string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestCron_RejectsMissingOrWrongBearer(t *testing.T) {
	runner := &fakeRunner{}
	s := NewServer(0, runner, "s3cret", nil)

	for _, auth := range []string{"", "Bearer nope", "s3cret", "Basic s3cret"} {
		rec, body := do(t, s, http.MethodPost, "/api/cron", auth)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, auth)
		assert.Equal(t, "Unauthorized", body["error"])
	}
	assert.Zero(t, runner.calls)
}

func TestCron_ReturnsStats(t *testing.T) {
	runner := &fakeRunner{stats: models.RunStats{Processed: 3, Sent: 2, UrgentSent: 1, Errors: 1}}
	s := NewServer(0, runner, "s3cret", nil)

	for _, method := range []string{http.MethodPost, http.MethodGet} {
		rec, body := do(t, s, method, "/api/cron", "Bearer s3cret")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["success"])

		stats := body["stats"].(map[string]interface{})
		assert.EqualValues(t, 3, stats["processed"])
		assert.EqualValues(t, 2, stats["sent"])
		assert.EqualValues(t, 1, stats["urgentSent"])
		assert.EqualValues(t, 1, stats["errors"])
	}
	assert.Equal(t, 2, runner.calls)
}

func TestCron_OpenWithoutSecret(t *testing.T) {
	runner := &fakeRunner{}
	s := NewServer(0, runner, "", nil)

	rec, body := do(t, s, http.MethodGet, "/api/cron", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestCron_FatalErrorIs500(t *testing.T) {
	runner := &fakeRunner{err: errors.New("failed to list active subscribers: boom")}
	s := NewServer(0, runner, "", nil)

	rec, body := do(t, s, http.MethodPost, "/api/cron", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal error", body["error"])
	assert.Contains(t, body["detail"], "boom")
}

func TestCron_MethodNotAllowed(t *testing.T) {
	s := NewServer(0, &fakeRunner{}, "", nil)

	rec, _ := do(t, s, http.MethodDelete, "/api/cron", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReadiness(t *testing.T) {
	healthy := true
	checks := map[string]Checker{
		"database": checkFunc(func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("down")
		}),
	}
	s := NewServer(0, &fakeRunner{}, "", checks)

	rec, body := do(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "not ready before startup completes")
	assert.Equal(t, false, body["ready"])

	s.SetReady(true)
	rec, body = do(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["checks"].(map[string]interface{})["database"])

	healthy = false
	rec, body = do(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy: down", body["checks"].(map[string]interface{})["database"])
}

func TestHealth_AlwaysOK(t *testing.T) {
	checks := map[string]Checker{
		"redis": checkFunc(func(context.Context) error { return errors.New("down") }),
	}
	s := NewServer(0, &fakeRunner{}, "", checks)

	rec, body := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Nil(t, body["checks"])

	rec, body = do(t, s, http.MethodGet, "/healthz?verbose=true", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unhealthy: down", body["checks"].(map[string]interface{})["redis"])
}
