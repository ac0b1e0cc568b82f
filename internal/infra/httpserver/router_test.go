package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medverify/internal/application"
	compsvc "github.com/bryanwahyu/medverify/internal/application/compliance"
	hallsvc "github.com/bryanwahyu/medverify/internal/application/hallucination"
	"github.com/bryanwahyu/medverify/internal/application/pipeline"
	"github.com/bryanwahyu/medverify/internal/application/verifier"
	"github.com/bryanwahyu/medverify/internal/domain/citations"
	"github.com/bryanwahyu/medverify/internal/infra/cache/memory"
	"github.com/bryanwahyu/medverify/internal/infra/phi"
)

type stubIndex struct{}

func (stubIndex) LookupPMID(ctx context.Context, pmid string) (*citations.IndexRecord, error) {
	return &citations.IndexRecord{Title: "stub record"}, nil
}

type stubDOI struct{}

func (stubDOI) Resolve(ctx context.Context, handle string) (*citations.IndexRecord, error) {
	return &citations.IndexRecord{}, nil
}

type stubSearch struct{}

func (stubSearch) Search(ctx context.Context, query string, limit int) ([]citations.SearchHit, error) {
	return nil, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	clock := application.SystemClock{}
	pipe := pipeline.New(pipeline.Params{
		Repo:          memory.NewRepository(),
		Extractor:     citations.NewExtractor(),
		Verifier:      verifier.New(stubIndex{}, stubDOI{}, stubSearch{}, nil),
		Hallucination: hallsvc.New(nil, clock, nil),
		Compliance:    compsvc.New(phi.NewDetector(), nil, clock, nil),
		Clock:         clock,
		MaxConcurrent: 2,
		RunTimeout:    5 * time.Second,
	})
	t.Cleanup(pipe.Close)

	srv := httptest.NewServer(NewRouter(pipe, nil))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestIngestReturnsAccepted(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/clinic/exchanges",
		`{"exchange_id":"ex-1","prompt":"hi","response":"drink water"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "ex-1", body["exchange_id"])
	assert.Equal(t, "pending", body["status"])
}

func TestIngestGeneratesExchangeID(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/clinic/exchanges",
		`{"prompt":"hi","response":"drink water"}`)
	body := decode(t, resp)
	assert.NotEmpty(t, body["exchange_id"])
}

func TestIngestEmptyResponseIsSkipped(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/clinic/exchanges",
		`{"exchange_id":"ex-empty","prompt":"hi","response":""}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "skipped", body["status"])
}

func TestIngestUserRoleIsSkipped(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/clinic/exchanges",
		`{"exchange_id":"ex-user","prompt":"hi","response":"I took 400mg yesterday","role":"user"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "skipped", body["status"])

	get, err := http.Get(srv.URL + "/v1/clinic/reports/ex-user")
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusNotFound, get.StatusCode, "skipped exchanges leave no record")
}

func TestIngestRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/clinic/exchanges", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/v1/clinic/exchanges",
		`{"exchange_id":"has spaces!","response":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/v1/clinic/exchanges",
		`{"exchange_id":"ex-2","response":"x","role":"wizard"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/v1/Not-Valid-Tenant/exchanges",
		`{"exchange_id":"ex-3","response":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetReportLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/clinic/exchanges",
		`{"exchange_id":"ex-get","prompt":"hi","response":"stay hydrated"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	var rec map[string]any
	require.Eventually(t, func() bool {
		r, err := http.Get(srv.URL + "/v1/clinic/reports/ex-get")
		require.NoError(t, err)
		defer r.Body.Close()
		if r.StatusCode != http.StatusOK {
			return false
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		status, _ := rec["status"].(string)
		return status == "verified" || status == "warning" || status == "failed"
	}, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, "verified", rec["status"])
	assert.NotNil(t, rec["report"])
	assert.NotNil(t, rec["verdict"])
}

func TestGetReportNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/clinic/reports/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReverifyEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/clinic/reports/ghost/reverify", `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/v1/clinic/exchanges",
		`{"exchange_id":"ex-rv","prompt":"hi","response":"stay hydrated"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		r, err := http.Get(srv.URL + "/v1/clinic/reports/ex-rv")
		require.NoError(t, err)
		defer r.Body.Close()
		var rec map[string]any
		_ = json.NewDecoder(r.Body).Decode(&rec)
		s, _ := rec["status"].(string)
		return s == "verified"
	}, 3*time.Second, 20*time.Millisecond)

	resp = postJSON(t, srv.URL+"/v1/clinic/reports/ex-rv/reverify", `{}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "pending", body["status"])
}

func TestLatestEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/clinic/exchanges",
		`{"exchange_id":"ex-l1","prompt":"hi","response":"stay hydrated"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	r, err := http.Get(srv.URL + "/v1/clinic/reports/latest?limit=5")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)

	var list []map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&list))
	assert.Len(t, list, 1)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	r, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)

	r, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)

	var m map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
	assert.Contains(t, m, "verifications_total")
}