package engine

import (
	"context"

	"github.com/warpscheduler/core/ledger"
	"github.com/warpscheduler/core/resolver"
	"github.com/warpscheduler/core/sched"
	"github.com/warpscheduler/core/schedulererrors"
)

// CallbackRequest reports an asynchronous dispatch outcome correlated to a
// prior Execute.
type CallbackRequest struct {
	CorrelationID string
	Success       bool
	Err           error
	Now           uint64
}

// HandleCallback finalizes a deferred Execute: the dispatched action set's
// completion finalizes the job's status, and — if the job is recurring and
// the custody account can cover the next round's fee and reward — attempts
// to re-enqueue a successor job.
func (e *Engine) HandleCallback(ctx context.Context, req CallbackRequest) (*Result, error) {
	e.mu.Lock()
	pending, ok := e.inflight[req.CorrelationID]
	if ok {
		delete(e.inflight, req.CorrelationID)
	}
	e.mu.Unlock()
	if !ok {
		return nil, schedulererrors.New(schedulererrors.CodeInternal, "unknown execution correlation id").
			WithDetails("correlation_id", req.CorrelationID)
	}

	e.tx.mu.Lock()
	defer e.tx.mu.Unlock()

	job, err := e.tx.Store.Get(pending.jobID)
	if err != nil {
		return nil, err
	}

	finalStatus := sched.StatusExecuted
	if !req.Success {
		finalStatus = sched.StatusFailed
	}
	job.Vars = pending.hydratedVars
	job.Status = finalStatus
	if err := e.tx.Store.Finish(job); err != nil {
		return nil, err
	}
	e.tx.State.DecQ()
	if job.Account != "" {
		_ = e.tx.Accounts.Free(job.Owner, job.Account)
		e.recordAccountFreed()
	}

	e.recordFinished(finalStatus)
	e.logTransition(job.ID, string(sched.StatusPending), string(finalStatus), req.Err)

	attrs := ledger.Attrs{}.With("job_id", formatUint(job.ID))
	if !req.Success && req.Err != nil {
		attrs = attrs.With("transaction_error", req.Err.Error())
	}

	var actions []ledger.Action
	recurAttrs, recurActions := e.attemptRecurrence(ctx, job, req.Now)
	attrs = append(attrs, recurAttrs...)
	actions = append(actions, recurActions...)

	return &Result{Job: job, Actions: actions, Attributes: attrs}, nil
}

// attemptRecurrence implements the recurrence branch run after a finished
// job's callback settles: fee/reward affordability check, update_fn
// application, terminate_condition evaluation, and successor creation.
func (e *Engine) attemptRecurrence(ctx context.Context, finished *sched.Job, now uint64) (ledger.Attrs, []ledger.Action) {
	if !finished.Recurring {
		return nil, nil
	}

	fee, err := floorPercentage(finished.Reward, e.tx.Config.CreationFeePercentage)
	if err != nil {
		return ledger.Attrs{}.With("creation_status", "failed_insufficient_fee"), nil
	}
	required, err := checkedAdd(fee, finished.Reward)
	if err != nil {
		return ledger.Attrs{}.With("creation_status", "failed_insufficient_fee"), nil
	}

	custody := custodyAccount(finished.Owner, finished.Account)
	var balance uint64
	if e.ledger != nil {
		balance, err = e.ledger.BalanceOf(ctx, custody, e.tx.Config.FeeDenom)
		if err != nil {
			return ledger.Attrs{}.With("creation_status", "failed_insufficient_fee"), nil
		}
	}
	if balance < required {
		return ledger.Attrs{}.With("creation_status", "failed_insufficient_fee"), nil
	}

	nextVars, err := e.applyUpdateFns(ctx, finished.Vars)
	if err != nil {
		return ledger.Attrs{}.With("creation_status", "failed_update_fn_error"), nil
	}

	if finished.TerminateCondition != nil {
		terminate, err := resolver.Evaluate(finished.TerminateCondition, resolver.LookupFromVars(nextVars))
		if err != nil || terminate {
			return ledger.Attrs{}.With("creation_status", "terminated_due_to_terminate_condition_resolves_to_true"), nil
		}
	}

	id := e.tx.State.NextJobID()
	next := &sched.Job{
		ID:                 id,
		Owner:              finished.Owner,
		Account:            finished.Account,
		LastUpdateTime:     now,
		Name:               finished.Name,
		Description:        finished.Description,
		Labels:             finished.Labels,
		Status:             sched.StatusPending,
		Condition:          finished.Condition,
		TerminateCondition: finished.TerminateCondition,
		Vars:               nextVars,
		Msgs:               finished.Msgs,
		Recurring:          finished.Recurring,
		RequeueOnEvict:     finished.RequeueOnEvict,
		Reward:             finished.Reward,
		AssetsToWithdraw:   finished.AssetsToWithdraw,
	}

	if err := e.tx.Store.InsertPending(next); err != nil {
		return ledger.Attrs{}.With("creation_status", "failed_insufficient_fee"), nil
	}
	e.tx.State.IncQ()
	if next.Account != "" {
		_ = e.tx.Accounts.Occupy(next.Owner, next.Account, next.ID)
		e.recordAccountOccupied()
	}
	e.recordCreated()
	e.recordRecurred()
	e.recordEscrow(int64(next.Reward))

	actions := []ledger.Action{
		ledger.Transfer(custody, e.tx.Config.FeeCollector, fee, e.tx.Config.FeeDenom),
		ledger.Transfer(custody, escrowAddress, next.Reward, e.tx.Config.FeeDenom),
	}
	if len(next.AssetsToWithdraw) > 0 {
		actions = append(actions, ledger.Sweep(next.ID, next.Owner, next.AssetsToWithdraw))
	}

	attrs := ledger.Attrs{}.
		With("sub_action", "recur_job").
		With("job_id", formatUint(next.ID))

	return attrs, actions
}

// applyUpdateFns derives each variable's next value from its current one
// via its update_fn, if present ("update functions applied
// before re-enqueue"). Query re-runs the variable's query through the
// hydrator; Increment/Decrement fall to resolver.ApplyUpdateFn's arithmetic.
// A variable without an update_fn, or without a current value to derive
// from, passes through unchanged.
func (e *Engine) applyUpdateFns(ctx context.Context, vars []sched.Variable) ([]sched.Variable, error) {
	out := make([]sched.Variable, len(vars))
	for i, v := range vars {
		clone := v.Clone()
		if clone.UpdateFn == nil || clone.Value == nil {
			out[i] = clone
			continue
		}

		switch clone.UpdateFn.Op {
		case sched.UpdateFnQuery:
			clone.Reinitialize = true
			refreshed, err := e.hydrator.Hydrate(ctx, []sched.Variable{clone}, nil)
			if err != nil {
				return nil, err
			}
			clone = refreshed[0]
		default:
			next, err := resolver.ApplyUpdateFn(clone.Kind, *clone.Value, *clone.UpdateFn)
			if err != nil {
				return nil, err
			}
			clone.Value = &next
		}
		out[i] = clone
	}
	return out, nil
}
