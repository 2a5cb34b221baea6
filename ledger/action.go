// Package ledger defines the scheduler's outbound interface to the external
// ledger: the Action batch every lifecycle transition emits, and the Client
// the engine dispatches balance queries and custody transfers through. The
// ledger implementation itself — the chain module or external accounting
// system that actually moves funds — is out of scope; this package only
// fixes the contract the engine depends on.
package ledger

import "github.com/warpscheduler/core/sched"

// ActionKind tags the shape of an outbound Action.
type ActionKind string

const (
	// ActionTransfer moves Amount of Denom from From to To.
	ActionTransfer ActionKind = "transfer"
	// ActionOccupy marks a sub-account in-use for a job (not itself a
	// transfer). The engine does not emit it: occupancy is recorded directly
	// in accounts.Tracker and does not appear in a transition's Action batch.
	ActionOccupy ActionKind = "occupy_subaccount"
	// ActionFree releases a sub-account back to its owner's free set. Like
	// ActionOccupy, the engine does not emit it.
	ActionFree ActionKind = "free_subaccount"
	// ActionDispatch sends a job's hydrated msgs as a correlated child
	// transaction against the job's custody account.
	ActionDispatch ActionKind = "dispatch_msgs"
	// ActionSweep withdraws a job's assets_to_withdraw back to its owner.
	ActionSweep ActionKind = "sweep_assets"
)

// Action is one outbound effect produced by a committed lifecycle
// transition. A transition's full Action batch is committed atomically with
// its state delta.
type Action struct {
	Kind ActionKind

	From   string
	To     string
	Amount uint64
	Denom  string

	// JobID identifies the job a dispatch/occupy/free/sweep action belongs
	// to; zero for actions with no job association.
	JobID uint64

	// Msgs carries the hydrated outbound messages for an ActionDispatch.
	Msgs []sched.Message

	// Assets carries the asset identifiers swept by an ActionSweep.
	Assets []string
}

// Transfer builds an ActionTransfer.
func Transfer(from, to string, amount uint64, denom string) Action {
	return Action{Kind: ActionTransfer, From: from, To: to, Amount: amount, Denom: denom}
}

// Dispatch builds an ActionDispatch for jobID's hydrated msgs, sent from
// custody.
func Dispatch(jobID uint64, custody string, msgs []sched.Message) Action {
	return Action{Kind: ActionDispatch, From: custody, JobID: jobID, Msgs: msgs}
}

// Sweep builds an ActionSweep for jobID's assets, delivered to owner.
func Sweep(jobID uint64, owner string, assets []string) Action {
	return Action{Kind: ActionSweep, To: owner, JobID: jobID, Assets: assets}
}

// Attribute is a single (key, value) pair attached to a transition's
// response.
type Attribute struct {
	Key   string
	Value string
}

// Attrs is a small ordered builder for a transition's attribute list.
type Attrs []Attribute

// With appends a (key, value) pair and returns the receiver.
func (a Attrs) With(key, value string) Attrs {
	return append(a, Attribute{Key: key, Value: value})
}
