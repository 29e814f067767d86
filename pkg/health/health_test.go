package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) Component { return Component{Status: StatusUp} }

func TestRunAggregatesWorstStatus(t *testing.T) {
	c := NewChecker()
	c.Register("a", up)
	assert.Equal(t, StatusUp, c.Run(context.Background()).Status)

	c.Register("redis", Optional(func(context.Context) error { return errors.New("connection refused") }))
	r := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, r.Status)
	assert.Equal(t, "connection refused", r.Components["redis"].Message)
	assert.NotEmpty(t, r.Components["a"].Latency)

	c.Register("b", func(context.Context) Component { return Component{Status: StatusDown} })
	assert.Equal(t, StatusDown, c.Run(context.Background()).Status)
}

func TestRoutes(t *testing.T) {
	c := NewChecker()
	c.Register("postgres", Optional(func(context.Context) error { return errors.New("timeout") }))
	mux := http.NewServeMux()
	c.Routes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "a degraded optional backend keeps the process ready")
	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, StatusDegraded, report.Status)

	c.Register("solver", func(context.Context) Component { return Component{Status: StatusDown} })
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
