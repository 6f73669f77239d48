package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirk/data"
)

type fakeScheduler struct {
	results  []data.SuiteResult
	rebooted int
	running  bool
}

func (f *fakeScheduler) Results() []data.SuiteResult { return f.results }
func (f *fakeScheduler) Rebooted() int                { return f.rebooted }
func (f *fakeScheduler) Running() bool                { return f.running }

func TestServer_Healthz(t *testing.T) {
	s := NewServer(":0", &fakeScheduler{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Status(t *testing.T) {
	fake := &fakeScheduler{rebooted: 2, running: true, results: []data.SuiteResult{
		{Suite: data.Suite{Name: "s1"}},
	}}
	s := NewServer(":0", fake, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Running)
	assert.Equal(t, 2, resp.Rebooted)
	assert.Equal(t, 1, resp.SuitesReported)
	assert.GreaterOrEqual(t, resp.Uptime, time.Duration(0))
}

func TestServer_Results(t *testing.T) {
	fake := &fakeScheduler{results: []data.SuiteResult{
		{Suite: data.Suite{Name: "s1"}, TestsResults: []data.TestResult{
			{Test: data.Test{Name: "t1"}, Passed: 1, ReturnCode: 0, ExecTime: time.Millisecond},
		}},
	}}
	s := NewServer(":0", fake, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var results []data.SuiteResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "s1", results[0].Suite.Name)
}

func TestServer_SuiteResult_NotFound(t *testing.T) {
	s := NewServer(":0", &fakeScheduler{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/results/missing", nil)
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_SuiteResult_Found(t *testing.T) {
	fake := &fakeScheduler{results: []data.SuiteResult{
		{Suite: data.Suite{Name: "s1"}},
		{Suite: data.Suite{Name: "s2"}},
	}}
	s := NewServer(":0", fake, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/results/s2", nil)
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res data.SuiteResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "s2", res.Suite.Name)
}
