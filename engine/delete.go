package engine

import (
	"context"

	"github.com/warpscheduler/core/ledger"
	"github.com/warpscheduler/core/sched"
	"github.com/warpscheduler/core/schedulererrors"
)

// DeleteRequest carries a DeleteJob (Cancel) boundary request.
type DeleteRequest struct {
	JobID  uint64
	Sender string
}

// Delete cancels a Pending job; only the owner may call it.
func (e *Engine) Delete(ctx context.Context, req DeleteRequest) (*Result, error) {
	e.tx.mu.Lock()
	defer e.tx.mu.Unlock()

	job, err := e.tx.Store.Get(req.JobID)
	if err != nil {
		return nil, err
	}
	if job.Owner != req.Sender {
		return nil, schedulererrors.Unauthorized("only the job owner may cancel it")
	}
	if !e.tx.Store.IsPending(req.JobID) {
		return nil, schedulererrors.JobNotActive(req.JobID)
	}

	fee, err := floorPercentage(job.Reward, e.tx.Config.CancellationFeePercentage)
	if err != nil {
		return nil, err
	}
	refund, err := checkedSub(job.Reward, fee)
	if err != nil {
		return nil, err
	}

	job.Status = sched.StatusCancelled
	if err := e.tx.Store.Finish(job); err != nil {
		return nil, err
	}
	e.tx.State.DecQ()

	if job.Account != "" {
		if err := e.tx.Accounts.Free(job.Owner, job.Account); err != nil {
			return nil, err
		}
		e.recordAccountFreed()
	}

	e.recordFinished(sched.StatusCancelled)
	e.recordEscrow(-int64(job.Reward))
	e.logTransition(job.ID, string(sched.StatusPending), string(sched.StatusCancelled), nil)

	custody := custodyAccount(job.Owner, job.Account)
	actions := []ledger.Action{
		ledger.Transfer(escrowAddress, custody, refund, e.tx.Config.FeeDenom),
		ledger.Transfer(escrowAddress, e.tx.Config.FeeCollector, fee, e.tx.Config.FeeDenom),
	}
	if len(job.AssetsToWithdraw) > 0 {
		actions = append(actions, ledger.Sweep(job.ID, job.Owner, job.AssetsToWithdraw))
	}

	attrs := ledger.Attrs{}.
		With("job_id", formatUint(job.ID)).
		With("job_status", string(sched.StatusCancelled)).
		With("deletion_fee", formatUint(fee))

	return &Result{Job: job, Actions: actions, Attributes: attrs}, nil
}
