package engine

import (
	"context"

	"github.com/warpscheduler/core/ledger"
	"github.com/warpscheduler/core/resolver"
	"github.com/warpscheduler/core/sched"
	"github.com/warpscheduler/core/schedulererrors"
)

const maxJobNameBytes = 280

// CreateRequest carries a CreateJob boundary request.
type CreateRequest struct {
	Owner              string
	Name               string
	Description        string
	Labels             map[string]string
	Condition          *sched.Condition
	TerminateCondition *sched.Condition
	Vars               []sched.Variable
	Msgs               []sched.Message
	Reward             uint64
	Recurring          bool
	RequeueOnEvict     bool
	Account            string
	AssetsToWithdraw   []string
	Now                uint64
}

// Create validates and admits a new Pending job. All validation happens
// before any state mutation, so a failure leaves the Tx untouched: a
// failure anywhere in a request aborts the request and reverts all state
// changes.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*Result, error) {
	if err := validateJobName(req.Name); err != nil {
		return nil, err
	}
	if req.Reward < e.tx.Config.MinimumReward {
		return nil, schedulererrors.RewardTooSmall(e.tx.Config.MinimumReward)
	}
	if err := resolver.ValidateJob(req.Vars, req.Condition, req.TerminateCondition, req.Msgs); err != nil {
		return nil, err
	}

	fee, err := floorPercentage(req.Reward, e.tx.Config.CreationFeePercentage)
	if err != nil {
		return nil, err
	}

	e.tx.mu.Lock()
	defer e.tx.mu.Unlock()

	if req.Account != "" {
		if _, inUse := e.tx.Accounts.IsInUse(req.Owner, req.Account); inUse {
			return nil, schedulererrors.AccountAlreadyOccupied(req.Account)
		}
	}

	id := e.tx.State.NextJobID()
	if req.Account != "" {
		if err := e.tx.Accounts.Occupy(req.Owner, req.Account, id); err != nil {
			return nil, err
		}
		e.recordAccountOccupied()
	}

	job := &sched.Job{
		ID:                 id,
		Owner:              req.Owner,
		Account:            req.Account,
		LastUpdateTime:     req.Now,
		Name:               req.Name,
		Description:        req.Description,
		Labels:             req.Labels,
		Status:             sched.StatusPending,
		Condition:          req.Condition,
		TerminateCondition: req.TerminateCondition,
		Vars:               req.Vars,
		Msgs:               req.Msgs,
		Recurring:          req.Recurring,
		RequeueOnEvict:     req.RequeueOnEvict,
		Reward:             req.Reward,
		AssetsToWithdraw:   req.AssetsToWithdraw,
	}

	if err := e.tx.Store.InsertPending(job); err != nil {
		return nil, err
	}
	e.tx.State.IncQ()
	e.recordCreated()
	e.recordEscrow(int64(req.Reward))
	e.logTransition(id, "", string(sched.StatusPending), nil)

	custody := custodyAccount(req.Owner, req.Account)
	actions := []ledger.Action{
		ledger.Transfer(custody, escrowAddress, req.Reward, e.tx.Config.FeeDenom),
		ledger.Transfer(custody, e.tx.Config.FeeCollector, fee, e.tx.Config.FeeDenom),
	}

	attrs := ledger.Attrs{}.
		With("job_id", formatUint(id)).
		With("job_owner", req.Owner).
		With("job_name", req.Name).
		With("job_status", string(sched.StatusPending)).
		With("job_condition", summarizeCondition(req.Condition)).
		With("job_msgs", formatUint(uint64(len(req.Msgs)))).
		With("job_reward", formatUint(req.Reward)).
		With("job_creation_fee", formatUint(fee)).
		With("job_last_updated_time", formatUint(req.Now))

	return &Result{Job: job, Actions: actions, Attributes: attrs}, nil
}

func validateJobName(name string) error {
	if len(name) == 0 {
		return schedulererrors.NameTooShort()
	}
	if len(name) > maxJobNameBytes {
		return schedulererrors.NameTooLong(maxJobNameBytes)
	}
	return nil
}

// custodyAccount resolves the account a job's escrow and fee transfers
// originate from: the named sub-account, or the owner's default account.
func custodyAccount(owner, account string) string {
	if account != "" {
		return account
	}
	return owner
}

// escrowAddress is the scheduler's own escrow custody address: fee and
// reward always move as distinct transfers, fee to fee_collector and
// reward to escrowAddress.
const escrowAddress = "scheduler_escrow"

// summarizeCondition renders a condition tree's operator shape for the
// create_job attribute list; it is a diagnostic summary, not a
// serialization format.
func summarizeCondition(cond *sched.Condition) string {
	if cond == nil {
		return ""
	}
	if cond.Op.IsConnective() {
		parts := make([]string, len(cond.Args))
		for i, arg := range cond.Args {
			parts[i] = summarizeCondition(arg)
		}
		out := string(cond.Op) + "("
		for i, p := range parts {
			if i > 0 {
				out += ","
			}
			out += p
		}
		return out + ")"
	}
	return string(cond.Op)
}
