package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warpscheduler/core/boundary"
	"github.com/warpscheduler/core/config"
	"github.com/warpscheduler/core/engine"
	"github.com/warpscheduler/core/sched"
)

func testConfig() *config.Config {
	return &config.Config{
		Owner:                     "admin",
		FeeCollector:              "collector",
		FeeDenom:                  "uwarp",
		MinimumReward:             100,
		CreationFeePercentage:     10,
		CancellationFeePercentage: 5,
		TMin:                      10,
		TMax:                      100,
		AMin:                      5,
		AMax:                      50,
		QMax:                      10,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := testConfig()
	require.NoError(t, cfg.Validate())
	tx := engine.NewTx(cfg)
	eng := engine.New(tx, nil, nil, nil, nil, "test")
	return NewServer(boundary.New(eng, nil, nil, "test"), nil, nil, "test")
}

func createJobRequestBody(t *testing.T) []byte {
	t.Helper()
	flag := "true"
	body := boundary.CreateJobBody{
		Name: "job-1",
		Condition: sched.Compare(sched.OpEq,
			sched.Operand{Kind: sched.KindBool, Ref: "flag"},
			sched.Operand{Kind: sched.KindBool, Literal: "true"}),
		Vars: []sched.Variable{
			{Source: sched.SourceStatic, Kind: sched.KindBool, Name: "flag", Value: &flag},
		},
		Reward: 200,
		Now:    1000,
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return raw
}

func TestRouter_CreateJob(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(createJobRequestBody(t)))
	req.Header.Set("X-Warp-Sender", "alice")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, "body=%s", rr.Body.String())
	var resp boundary.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Job)
	assert.Equal(t, sched.StatusPending, resp.Job.Status)
}

func TestRouter_GetJobNotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/jobs/999", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code, "body=%s", rr.Body.String())
}

func TestRouter_CreateThenGetJob(t *testing.T) {
	s := newTestServer(t)
	createReq := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(createJobRequestBody(t)))
	createReq.Header.Set("X-Warp-Sender", "alice")
	createRR := httptest.NewRecorder()
	s.Router().ServeHTTP(createRR, createReq)
	require.Equal(t, http.StatusCreated, createRR.Code, "body=%s", createRR.Body.String())

	getReq := httptest.NewRequest(http.MethodGet, "/jobs/1", nil)
	getRR := httptest.NewRecorder()
	s.Router().ServeHTTP(getRR, getReq)
	assert.Equal(t, http.StatusOK, getRR.Code, "body=%s", getRR.Body.String())
}

func TestRouter_DeleteJobByNonOwnerRejected(t *testing.T) {
	s := newTestServer(t)
	createReq := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(createJobRequestBody(t)))
	createReq.Header.Set("X-Warp-Sender", "alice")
	createRR := httptest.NewRecorder()
	s.Router().ServeHTTP(createRR, createReq)
	require.Equal(t, http.StatusCreated, createRR.Code)

	delReq := httptest.NewRequest(http.MethodDelete, "/jobs/1", nil)
	delReq.Header.Set("X-Warp-Sender", "mallory")
	delRR := httptest.NewRecorder()
	s.Router().ServeHTTP(delRR, delReq)

	assert.Contains(t, []int{http.StatusForbidden, http.StatusUnauthorized}, delRR.Code, "body=%s", delRR.Body.String())
}

func TestRouter_QueryConfig(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, "body=%s", rr.Body.String())
	var resp boundary.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Config)
	assert.Equal(t, "admin", resp.Config.Owner)
}

func TestRouter_UpdateConfigRequiresOwner(t *testing.T) {
	s := newTestServer(t)
	patchBody, _ := json.Marshal(map[string]uint64{"minimum_reward": 500})
	req := httptest.NewRequest(http.MethodPut, "/config", bytes.NewReader(patchBody))
	req.Header.Set("X-Warp-Sender", "alice")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	assert.Contains(t, []int{http.StatusForbidden, http.StatusUnauthorized}, rr.Code, "body=%s", rr.Body.String())
}
