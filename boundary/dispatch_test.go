package boundary

import (
	"context"
	"encoding/json"
	"testing"

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

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid config: %v", err)
	}
	tx := engine.NewTx(cfg)
	eng := engine.New(tx, nil, nil, nil, nil, "test")
	return New(eng, nil, nil, "test")
}

func strPtr(s string) *string { return &s }

func createJobPayload(t *testing.T) json.RawMessage {
	t.Helper()
	flag := "true"
	body := CreateJobBody{
		Owner: "alice",
		Name:  "job-1",
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
	if err != nil {
		t.Fatalf("marshal create_job payload: %v", err)
	}
	return raw
}

func TestDispatch_CreateJob(t *testing.T) {
	d := newTestDispatcher(t)
	resp, err := d.Dispatch(context.Background(), Request{
		Sender:  "alice",
		Method:  MethodCreateJob,
		Payload: createJobPayload(t),
	})
	if err != nil {
		t.Fatalf("Dispatch create_job: %v", err)
	}
	if resp.Job == nil || resp.Job.Status != sched.StatusPending {
		t.Fatalf("resp.Job = %+v", resp.Job)
	}
	if len(resp.Actions) != 2 {
		t.Fatalf("actions = %d, want 2", len(resp.Actions))
	}
	foundCondition := false
	for _, attr := range resp.Attributes {
		if attr.Key == "job_condition" {
			foundCondition = true
		}
	}
	if !foundCondition {
		t.Fatal("expected job_condition attribute")
	}
}

func TestDispatch_CreateThenQueryJob(t *testing.T) {
	d := newTestDispatcher(t)
	created, err := d.Dispatch(context.Background(), Request{Sender: "alice", Method: MethodCreateJob, Payload: createJobPayload(t)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	queryBody, _ := json.Marshal(QueryJobBody{ID: created.Job.ID})
	resp, err := d.Dispatch(context.Background(), Request{Method: MethodQueryJob, Payload: queryBody})
	if err != nil {
		t.Fatalf("query_job: %v", err)
	}
	if resp.Job.ID != created.Job.ID {
		t.Fatalf("queried job id = %d, want %d", resp.Job.ID, created.Job.ID)
	}
}

func TestDispatch_CreateThenDelete(t *testing.T) {
	d := newTestDispatcher(t)
	created, err := d.Dispatch(context.Background(), Request{Sender: "alice", Method: MethodCreateJob, Payload: createJobPayload(t)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleteBody, _ := json.Marshal(DeleteJobBody{ID: created.Job.ID})
	resp, err := d.Dispatch(context.Background(), Request{Sender: "alice", Method: MethodDeleteJob, Payload: deleteBody})
	if err != nil {
		t.Fatalf("delete_job: %v", err)
	}
	if resp.Job.Status != sched.StatusCancelled {
		t.Fatalf("status = %v, want Cancelled", resp.Job.Status)
	}
}

func TestDispatch_DeleteByNonOwnerRejected(t *testing.T) {
	d := newTestDispatcher(t)
	created, err := d.Dispatch(context.Background(), Request{Sender: "alice", Method: MethodCreateJob, Payload: createJobPayload(t)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	deleteBody, _ := json.Marshal(DeleteJobBody{ID: created.Job.ID})
	if _, err := d.Dispatch(context.Background(), Request{Sender: "mallory", Method: MethodDeleteJob, Payload: deleteBody}); err == nil {
		t.Fatal("expected unauthorized error")
	}
}

func TestDispatch_QueryConfig(t *testing.T) {
	d := newTestDispatcher(t)
	resp, err := d.Dispatch(context.Background(), Request{Method: MethodQueryConfig})
	if err != nil {
		t.Fatalf("query_config: %v", err)
	}
	if resp.Config == nil || resp.Config.Owner != "admin" {
		t.Fatalf("resp.Config = %+v", resp.Config)
	}
}

func TestDispatch_UpdateConfig_OwnerOnly(t *testing.T) {
	d := newTestDispatcher(t)
	newMin := uint64(500)
	patchBody, _ := json.Marshal(config.ConfigPatch{MinimumReward: &newMin})

	if _, err := d.Dispatch(context.Background(), Request{Sender: "alice", Method: MethodUpdateConfig, Payload: patchBody}); err == nil {
		t.Fatal("expected unauthorized error for non-owner update_config")
	}

	resp, err := d.Dispatch(context.Background(), Request{Sender: "admin", Method: MethodUpdateConfig, Payload: patchBody})
	if err != nil {
		t.Fatalf("update_config: %v", err)
	}
	if resp.Config.MinimumReward != 500 {
		t.Fatalf("MinimumReward = %d, want 500", resp.Config.MinimumReward)
	}
}

func TestDispatch_UnknownMethod(t *testing.T) {
	d := newTestDispatcher(t)
	if _, err := d.Dispatch(context.Background(), Request{Method: "bogus"}); err == nil {
		t.Fatal("expected error for unknown method")
	}
}
