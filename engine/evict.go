package engine

import (
	"context"

	"github.com/warpscheduler/core/ledger"
	"github.com/warpscheduler/core/sched"
	"github.com/warpscheduler/core/schedulererrors"
)

// EvictRequest carries an EvictJob boundary request.
type EvictRequest struct {
	JobID  uint64
	Caller string
	Now    uint64
}

// Evict applies the eviction pricing curve and the requeue-or-finish
// branch. Any principal may submit it.
func (e *Engine) Evict(ctx context.Context, req EvictRequest) (*Result, error) {
	e.tx.mu.Lock()
	defer e.tx.mu.Unlock()

	job, err := e.tx.Store.Get(req.JobID)
	if err != nil {
		return nil, err
	}
	if !e.tx.Store.IsPending(req.JobID) {
		return nil, schedulererrors.JobNotActive(req.JobID)
	}

	t, a := EvictionCurve(e.tx.Config, e.tx.State.Q)
	elapsed := int64(req.Now) - int64(job.LastUpdateTime)
	if elapsed < int64(t) {
		return nil, schedulererrors.EvictionPeriodNotElapsed(req.JobID, elapsed, int64(t))
	}

	custody := custodyAccount(job.Owner, job.Account)

	var balance uint64
	if e.ledger != nil {
		balance, err = e.ledger.BalanceOf(ctx, custody, e.tx.Config.FeeDenom)
		if err != nil {
			return nil, schedulererrors.Internal("balance query failed", err)
		}
	}

	if job.RequeueOnEvict && balance >= a {
		requeued := job.Clone()
		requeued.LastUpdateTime = req.Now
		if err := e.tx.Store.UpdatePending(requeued); err != nil {
			return nil, err
		}
		job = requeued

		e.logTransition(job.ID, string(sched.StatusPending), string(sched.StatusPending), nil)

		actions := []ledger.Action{ledger.Transfer(custody, req.Caller, a, e.tx.Config.FeeDenom)}
		attrs := ledger.Attrs{}.
			With("job_id", formatUint(job.ID)).
			With("job_status", string(sched.StatusPending))

		return &Result{Job: job, Actions: actions, Attributes: attrs}, nil
	}

	refund, err := checkedSub(job.Reward, a)
	if err != nil {
		return nil, err
	}

	job.Status = sched.StatusEvicted
	if err := e.tx.Store.Finish(job); err != nil {
		return nil, err
	}
	e.tx.State.DecQ()
	if job.Account != "" {
		_ = e.tx.Accounts.Free(job.Owner, job.Account)
		e.recordAccountFreed()
	}

	e.recordFinished(sched.StatusEvicted)
	e.recordEscrow(-int64(job.Reward))
	e.logTransition(job.ID, string(sched.StatusPending), string(sched.StatusEvicted), nil)

	actions := []ledger.Action{
		ledger.Transfer(escrowAddress, req.Caller, a, e.tx.Config.FeeDenom),
		ledger.Transfer(escrowAddress, custody, refund, e.tx.Config.FeeDenom),
	}
	if len(job.AssetsToWithdraw) > 0 {
		actions = append(actions, ledger.Sweep(job.ID, job.Owner, job.AssetsToWithdraw))
	}

	attrs := ledger.Attrs{}.
		With("job_id", formatUint(job.ID)).
		With("job_status", string(sched.StatusEvicted))

	return &Result{Job: job, Actions: actions, Attributes: attrs}, nil
}
