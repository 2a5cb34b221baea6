package engine

import (
	"context"

	"github.com/warpscheduler/core/ledger"
	"github.com/warpscheduler/core/resolver"
	"github.com/warpscheduler/core/sched"
	"github.com/warpscheduler/core/schedulererrors"
)

// ExecuteRequest carries an ExecuteJob boundary request.
type ExecuteRequest struct {
	JobID          uint64
	Executor       string
	ExternalInputs map[string]string
}

// Execute resolves a job's condition and acts on it. A condition
// resolution error absorbs into a Failed transition that still pays the
// keeper (the one exception to "abort and revert"); a condition that
// resolves false fails the whole request with JobNotActive and mutates
// nothing; a condition that resolves true dispatches the job's msgs and
// defers the terminal transition to HandleCallback.
func (e *Engine) Execute(ctx context.Context, req ExecuteRequest) (*Result, error) {
	e.tx.mu.Lock()
	defer e.tx.mu.Unlock()

	job, err := e.tx.Store.Get(req.JobID)
	if err != nil {
		return nil, err
	}
	if !e.tx.Store.IsPending(req.JobID) {
		return nil, schedulererrors.JobNotActive(req.JobID)
	}

	hydrated, err := e.hydrator.Hydrate(ctx, job.Vars, req.ExternalInputs)
	var condErr error
	var condTrue bool
	if err != nil {
		condErr = err
	} else {
		condTrue, condErr = resolver.Evaluate(job.Condition, resolver.LookupFromVars(hydrated))
	}

	if condErr != nil {
		return e.executeInvalid(job, req.Executor, condErr)
	}
	if !condTrue {
		return nil, schedulererrors.JobNotActive(req.JobID)
	}

	return e.executeValid(ctx, job, req.Executor, hydrated)
}

// executeInvalid handles first branch: resolver error ⇒
// Finished/Failed, sub-account freed, q decremented, keeper still paid.
func (e *Engine) executeInvalid(job *sched.Job, executor string, condErr error) (*Result, error) {
	job.Status = sched.StatusFailed
	if err := e.tx.Store.Finish(job); err != nil {
		return nil, err
	}
	e.tx.State.DecQ()
	if job.Account != "" {
		_ = e.tx.Accounts.Free(job.Owner, job.Account)
		e.recordAccountFreed()
	}

	e.recordFinished(sched.StatusFailed)
	e.recordEscrow(-int64(job.Reward))
	if e.metrics != nil {
		e.metrics.RecordResolverFailure(e.service, "execute")
	}
	e.logTransition(job.ID, string(sched.StatusPending), string(sched.StatusFailed), condErr)

	custody := custodyAccount(job.Owner, job.Account)
	actions := []ledger.Action{ledger.Transfer(escrowAddress, executor, job.Reward, e.tx.Config.FeeDenom)}

	attrs := ledger.Attrs{}.
		With("executor", executor).
		With("job_id", formatUint(job.ID)).
		With("job_reward", formatUint(job.Reward)).
		With("job_condition_status", "invalid").
		With("error", condErr.Error())

	return &Result{Job: job, Actions: actions, Attributes: attrs}, nil
}

// executeValid handles third branch: hydrate msgs, dispatch
// as a correlated child transaction, pay the keeper now, and leave the job
// Pending until HandleCallback lands. A msg-substitution failure here is
// not the resolver-failure exception — the condition already resolved
// true, so this aborts the whole request and mutates nothing, the same as
// any other mid-request error.
func (e *Engine) executeValid(ctx context.Context, job *sched.Job, executor string, hydratedVars []sched.Variable) (*Result, error) {
	lookup := resolver.LookupFromVars(hydratedVars)
	msgs := make([]sched.Message, len(job.Msgs))
	for i, m := range job.Msgs {
		substituted := m
		if m.IsBinaryPayload {
			payload, err := resolver.SubstituteEncoded(m.Payload, lookup)
			if err != nil {
				return nil, err
			}
			substituted.Payload = payload
		} else {
			payload, err := resolver.SubstitutePlain(string(m.Payload), lookup)
			if err != nil {
				return nil, err
			}
			substituted.Payload = []byte(payload)
		}
		msgs[i] = substituted
	}

	// Persist the hydrated variable list onto the job so the recurrence
	// path in HandleCallback can apply update_fn against the values this
	// execution actually observed.
	job.Vars = hydratedVars

	custody := custodyAccount(job.Owner, job.Account)
	dispatch := ledger.Dispatch(job.ID, custody, msgs)
	batch := []ledger.Action{dispatch, ledger.Transfer(escrowAddress, executor, job.Reward, e.tx.Config.FeeDenom)}

	var corrID string
	if e.ledger != nil {
		id, err := e.ledger.Commit(ctx, batch)
		if err != nil {
			return nil, schedulererrors.Internal("ledger commit failed", err)
		}
		corrID = id
	} else {
		corrID = formatUint(job.ID)
	}

	e.mu.Lock()
	e.inflight[corrID] = &pendingExecution{jobID: job.ID, hydratedVars: hydratedVars}
	e.mu.Unlock()

	if err := e.tx.Store.UpdatePending(job); err != nil {
		return nil, err
	}
	e.recordEscrow(-int64(job.Reward))

	attrs := ledger.Attrs{}.
		With("executor", executor).
		With("job_id", formatUint(job.ID)).
		With("job_reward", formatUint(job.Reward)).
		With("job_condition_status", "valid")

	return &Result{Job: job, Actions: batch, Attributes: attrs}, nil
}
