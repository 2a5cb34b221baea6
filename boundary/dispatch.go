// Package boundary implements the scheduler's tagged request union: decode
// a typed request, invoke the Job Lifecycle Engine, and assemble the exact
// response shape — ledger actions plus attributes — callers expect. It is
// the one place outside engine that knows the full request vocabulary; the
// HTTP binding in boundary/httpapi is a thin JSON adapter over it.
package boundary

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/warpscheduler/core/config"
	"github.com/warpscheduler/core/engine"
	"github.com/warpscheduler/core/ledger"
	"github.com/warpscheduler/core/logging"
	"github.com/warpscheduler/core/metrics"
	"github.com/warpscheduler/core/sched"
	"github.com/warpscheduler/core/schedulererrors"
)

// Method names the mutating or read-only operation a Request carries,
// matching the action names emitted in response attributes.
type Method string

const (
	MethodCreateJob      Method = "create_job"
	MethodUpdateJob      Method = "update_job"
	MethodDeleteJob      Method = "delete_job"
	MethodExecuteJob     Method = "execute_job"
	MethodEvictJob       Method = "evict_job"
	MethodUpdateConfig   Method = "update_config"
	MethodQueryJob       Method = "query_job"
	MethodQueryJobs      Method = "query_jobs"
	MethodQueryAccount   Method = "query_account"
	MethodQueryAccounts  Method = "query_accounts"
	MethodQueryConfig    Method = "query_config"
	MethodQueryJobAccount Method = "query_job_account"
)

// Request is the envelope every boundary call arrives in: Sender is the
// authenticated caller, Method selects the handler, and Payload carries the
// method-specific body as raw JSON — mirroring the prior service-automation design's
// internal/marble.Request envelope.
type Request struct {
	Sender  string
	Method  Method
	Payload json.RawMessage
}

// Response is the uniform result of a Dispatch call. Mutating requests
// populate Job/Actions/Attributes; queries populate the relevant read field.
type Response struct {
	Job        *sched.Job         `json:"job,omitempty"`
	Jobs       []*sched.Job       `json:"jobs,omitempty"`
	Account    *AccountView       `json:"account,omitempty"`
	Accounts   []*AccountView     `json:"accounts,omitempty"`
	Config     *config.Config     `json:"config,omitempty"`
	Actions    []ledger.Action    `json:"actions,omitempty"`
	Attributes []ledger.Attribute `json:"attributes,omitempty"`
}

// AccountView is the read shape of QueryAccount/QueryAccounts: the owner's
// free and in-use sub-accounts.
type AccountView struct {
	Owner  string            `json:"owner"`
	Free   []string          `json:"free"`
	InUse  map[string]uint64 `json:"in_use"`
}

// Dispatcher binds the tagged request union to one Engine instance.
type Dispatcher struct {
	engine  *engine.Engine
	logger  *logging.Logger
	metrics *metrics.Metrics
	service string
}

// New builds a Dispatcher over eng. logger and metricsClient may be nil.
func New(eng *engine.Engine, logger *logging.Logger, metricsClient *metrics.Metrics, service string) *Dispatcher {
	return &Dispatcher{engine: eng, logger: logger, metrics: metricsClient, service: service}
}

// Dispatch decodes req.Payload under req.Method and invokes the
// corresponding Engine operation or read-only query. Any error returned is
// recorded against the boundary error counter before it reaches the caller,
// so an HTTP caller and an in-process caller are counted identically.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Response, error) {
	resp, err := d.dispatch(ctx, req)
	if err != nil && d.metrics != nil {
		d.metrics.RecordError(d.service, string(schedulererrors.CodeOf(err)))
	}
	return resp, err
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) (*Response, error) {
	switch req.Method {
	case MethodCreateJob:
		return d.createJob(ctx, req)
	case MethodUpdateJob:
		return d.updateJob(ctx, req)
	case MethodDeleteJob:
		return d.deleteJob(ctx, req)
	case MethodExecuteJob:
		return d.executeJob(ctx, req)
	case MethodEvictJob:
		return d.evictJob(ctx, req)
	case MethodUpdateConfig:
		return d.updateConfig(req)
	case MethodQueryJob:
		return d.queryJob(req)
	case MethodQueryJobs:
		return d.queryJobs(req)
	case MethodQueryAccount:
		return d.queryAccount(req)
	case MethodQueryAccounts:
		return d.queryAccounts(req)
	case MethodQueryConfig:
		return d.queryConfig()
	case MethodQueryJobAccount:
		return d.queryJobAccount(req)
	default:
		return nil, fmt.Errorf("unknown method %q", req.Method)
	}
}

func resultToResponse(res *engine.Result) *Response {
	return &Response{Job: res.Job, Actions: res.Actions, Attributes: res.Attributes}
}
