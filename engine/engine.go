// Package engine implements the Job Lifecycle Engine: the sole
// write path for jobs, wiring the Job Store, Config/State, SubAccount Pool,
// and Variable Resolver behind Create/Update/Delete/Execute/Evict and the
// asynchronous execution callback.
package engine

import (
	"context"
	"sync"

	"github.com/warpscheduler/core/accounts"
	"github.com/warpscheduler/core/config"
	"github.com/warpscheduler/core/ledger"
	"github.com/warpscheduler/core/logging"
	"github.com/warpscheduler/core/metrics"
	"github.com/warpscheduler/core/resolver"
	"github.com/warpscheduler/core/sched"
	"github.com/warpscheduler/core/schedulererrors"
	"github.com/warpscheduler/core/store"
)

// Tx is the transactional context object: Config, State, the Job Store, and
// the SubAccount Pool are singletons the engine mutates only inside a
// request. The scheduler's business model is single-threaded cooperative;
// the mutex here exists only to make concurrent unit tests and the HTTP
// binding memory-safe, not to express business concurrency.
type Tx struct {
	mu       sync.Mutex
	Config   *config.Config
	State    *config.State
	Store    *store.Store
	Accounts *accounts.Tracker
}

// NewTx builds a Tx over a validated Config and fresh State/Store/Accounts.
func NewTx(cfg *config.Config) *Tx {
	return &Tx{
		Config:   cfg,
		State:    config.NewState(),
		Store:    store.New(),
		Accounts: accounts.New(),
	}
}

// Engine is the Lifecycle Engine. One Engine instance owns one Tx and is
// safe for concurrent use by a boundary adapter.
type Engine struct {
	tx       *Tx
	hydrator *resolver.Hydrator
	ledger   ledger.Client
	logger   *logging.Logger
	metrics  *metrics.Metrics
	service  string

	mu       sync.Mutex
	inflight map[string]*pendingExecution
}

// pendingExecution correlates a dispatched Execute action batch with the
// job state it will finalize on callback — a deferred continuation after
// external dispatch.
type pendingExecution struct {
	jobID        uint64
	hydratedVars []sched.Variable
}

// New builds an Engine over tx. issuer resolves Query-sourced variables;
// client dispatches ledger actions and answers balance queries; logger and
// metricsClient are the ambient observability stack. Any of issuer, client,
// logger, or metricsClient may be nil; the engine degrades gracefully
// (Query variables fail with QueryFailure, ledger calls are no-ops that
// still return a synthetic correlation id, logging/metrics are skipped).
func New(tx *Tx, issuer resolver.QueryIssuer, client ledger.Client, logger *logging.Logger, metricsClient *metrics.Metrics, service string) *Engine {
	return &Engine{
		tx:       tx,
		hydrator: &resolver.Hydrator{Issuer: issuer},
		ledger:   client,
		logger:   logger,
		metrics:  metricsClient,
		service:  service,
		inflight: make(map[string]*pendingExecution),
	}
}

// Store exposes the Job Store for read-only boundary queries.
func (e *Engine) Store() *store.Store { return e.tx.Store }

// Config exposes the current Config for read-only boundary queries.
func (e *Engine) Config() *config.Config { return e.tx.Config }

// Accounts exposes the SubAccount Pool for read-only boundary queries.
func (e *Engine) Accounts() *accounts.Tracker { return e.tx.Accounts }

// Queue returns the current pending-job count q.
func (e *Engine) Queue() uint64 { return e.tx.State.Q }

// UpdateConfig implements the owner-gated UpdateConfig boundary request
//: it atomically re-validates the merged Config and rejects
// the whole patch on any invariant violation.
func (e *Engine) UpdateConfig(sender string, patch config.ConfigPatch) (*config.Config, error) {
	e.tx.mu.Lock()
	defer e.tx.mu.Unlock()

	if sender != e.tx.Config.Owner {
		return nil, schedulererrors.Unauthorized("only the config owner may update it")
	}
	if err := e.tx.Config.Update(patch); err != nil {
		return nil, err
	}
	return e.tx.Config, nil
}

// Result is the uniform shape every mutating operation returns: the job as
// committed, the outbound ledger actions to commit alongside the state
// delta, and the required attribute list.
type Result struct {
	Job        *sched.Job
	Actions    []ledger.Action
	Attributes ledger.Attrs
}

func (e *Engine) logTransition(jobID uint64, from, to string, err error) {
	if e.logger != nil {
		e.logger.LogJobTransition(context.Background(), jobID, from, to, err)
	}
}

func (e *Engine) recordFinished(status sched.Status) {
	if e.metrics != nil {
		e.metrics.RecordJobFinished(e.service, string(status))
		e.metrics.SetQueueLength(e.tx.State.Q)
	}
}

func (e *Engine) recordCreated() {
	if e.metrics != nil {
		e.metrics.RecordJobCreated(e.service)
		e.metrics.SetQueueLength(e.tx.State.Q)
	}
}

// recordRecurred increments the successor-job counter; call only once a
// successor has actually been inserted into the pending partition.
func (e *Engine) recordRecurred() {
	if e.metrics != nil {
		e.metrics.JobsRecurred.Inc()
	}
}

// recordEscrow adjusts the total-reward-in-escrow gauge by delta, positive
// when reward moves into escrow (Create, a reward top-up, recurrence) and
// negative when it leaves (Delete, Execute, Evict).
func (e *Engine) recordEscrow(delta int64) {
	if e.metrics != nil {
		e.metrics.RewardEscrowed.Add(float64(delta))
	}
}

// recordAccountOccupied/recordAccountFreed keep the in-use sub-account
// gauge in step with accounts.Tracker's own Occupy/Free bookkeeping.
func (e *Engine) recordAccountOccupied() {
	if e.metrics != nil {
		e.metrics.AccountsInUse.Inc()
	}
}

func (e *Engine) recordAccountFreed() {
	if e.metrics != nil {
		e.metrics.AccountsInUse.Dec()
	}
}

// floorPercentage computes floor(amount * percentage / 100) using uint64
// arithmetic with an overflow guard, per "percentages are integer,
// floor-divided".
func floorPercentage(amount, percentage uint64) (uint64, error) {
	if percentage == 0 || amount == 0 {
		return 0, nil
	}
	const maxUint64 = ^uint64(0)
	if amount > maxUint64/percentage {
		return 0, overflowError("fee computation overflows uint64")
	}
	return amount * percentage / 100, nil
}

// checkedAdd adds b to a, failing on uint64 overflow ("checked
// add/sub").
func checkedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, overflowError("addition overflows uint64")
	}
	return sum, nil
}

// checkedSub subtracts b from a, failing when b > a.
func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, overflowError("subtraction underflows uint64")
	}
	return a - b, nil
}

func overflowError(message string) error {
	return schedulererrors.New(schedulererrors.CodeInternal, message)
}
