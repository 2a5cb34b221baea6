package engine

import (
	"context"

	"github.com/warpscheduler/core/ledger"
	"github.com/warpscheduler/core/schedulererrors"
)

// UpdateRequest carries an UpdateJob boundary request.
type UpdateRequest struct {
	JobID       uint64
	Sender      string
	Name        *string
	Description *string
	Labels      map[string]string
	AddedReward uint64
	Now         uint64
}

// Update tops up a job's reward or mutates its metadata. Only the job's
// owner may update it; the reward top-up must clear the configured fee
// floor, and last_update_time advances only on a top-up that strictly
// exceeds minimum_reward — the anti-starvation lever that keeps a trivial
// top-up from buying eviction grace.
func (e *Engine) Update(ctx context.Context, req UpdateRequest) (*Result, error) {
	e.tx.mu.Lock()
	defer e.tx.mu.Unlock()

	job, err := e.tx.Store.Get(req.JobID)
	if err != nil {
		return nil, err
	}
	if job.Owner != req.Sender {
		return nil, schedulererrors.Unauthorized("only the job owner may update it")
	}
	if !e.tx.Store.IsPending(req.JobID) {
		return nil, schedulererrors.JobAlreadyFinished(req.JobID)
	}

	var fee uint64
	if req.AddedReward > 0 {
		fee, err = floorPercentage(req.AddedReward, e.tx.Config.CreationFeePercentage)
		if err != nil {
			return nil, err
		}
		if fee == 0 {
			return nil, schedulererrors.RewardTooSmall(req.AddedReward).WithDetails("added_reward", req.AddedReward)
		}
	}

	updated := job.Clone()
	if req.Name != nil {
		if err := validateJobName(*req.Name); err != nil {
			return nil, err
		}
		updated.Name = *req.Name
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Labels != nil {
		updated.Labels = req.Labels
	}
	if req.AddedReward > 0 {
		newReward, err := checkedAdd(updated.Reward, req.AddedReward)
		if err != nil {
			return nil, err
		}
		updated.Reward = newReward
		if req.AddedReward > e.tx.Config.MinimumReward {
			updated.LastUpdateTime = req.Now
		}
	}

	if err := e.tx.Store.UpdatePending(updated); err != nil {
		return nil, err
	}

	custody := custodyAccount(updated.Owner, updated.Account)
	var actions []ledger.Action
	if req.AddedReward > 0 {
		actions = append(actions,
			ledger.Transfer(custody, escrowAddress, req.AddedReward, e.tx.Config.FeeDenom),
			ledger.Transfer(custody, e.tx.Config.FeeCollector, fee, e.tx.Config.FeeDenom),
		)
		e.recordEscrow(int64(req.AddedReward))
	}

	attrs := ledger.Attrs{}.
		With("job_id", formatUint(updated.ID)).
		With("job_reward", formatUint(updated.Reward)).
		With("job_update_fee", formatUint(fee)).
		With("job_last_updated_time", formatUint(updated.LastUpdateTime))

	return &Result{Job: updated, Actions: actions, Attributes: attrs}, nil
}
