package resolver

import (
	schedulererrors "github.com/warpscheduler/core/schedulererrors"
	"github.com/warpscheduler/core/sched"
)

// Evaluate resolves a condition tree against the hydrated variables exposed
// through lookup. A comparison whose operand fails to parse, or whose
// referent is uninitialized, fails the whole evaluation with
// InvalidCondition — the caller (engine.Execute) treats any error here as
// "do not execute" / JobStatus Failed.
func Evaluate(cond *sched.Condition, lookup ValueLookup) (bool, error) {
	if cond == nil {
		return false, schedulererrors.InvalidCondition("nil condition")
	}

	switch cond.Op {
	case sched.OpAnd:
		for _, arg := range cond.Args {
			ok, err := Evaluate(arg, lookup)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case sched.OpOr:
		for _, arg := range cond.Args {
			ok, err := Evaluate(arg, lookup)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case sched.OpNot:
		if len(cond.Args) != 1 {
			return false, schedulererrors.InvalidCondition("not requires exactly one argument")
		}
		ok, err := Evaluate(cond.Args[0], lookup)
		if err != nil {
			return false, err
		}
		return !ok, nil

	case sched.OpEq, sched.OpNeq, sched.OpLt, sched.OpLte, sched.OpGt, sched.OpGte:
		return evaluateComparison(cond, lookup)

	default:
		return false, schedulererrors.InvalidCondition("unknown operator").WithDetails("op", string(cond.Op))
	}
}

func evaluateComparison(cond *sched.Condition, lookup ValueLookup) (bool, error) {
	if cond.Left == nil || cond.Right == nil {
		return false, schedulererrors.InvalidCondition("comparison missing operand")
	}
	if cond.Left.Kind == sched.KindJSON && cond.Op != sched.OpEq && cond.Op != sched.OpNeq {
		return false, schedulererrors.InvalidCondition("json kind supports only eq/neq comparisons")
	}

	left, err := resolveOperand(*cond.Left, lookup)
	if err != nil {
		return false, err
	}
	right, err := resolveOperand(*cond.Right, lookup)
	if err != nil {
		return false, err
	}

	cmp, err := Compare(cond.Left.Kind, left, right)
	if err != nil {
		return false, schedulererrors.InvalidCondition(err.Error())
	}

	switch cond.Op {
	case sched.OpEq:
		return cmp == 0, nil
	case sched.OpNeq:
		return cmp != 0, nil
	case sched.OpLt:
		return cmp < 0, nil
	case sched.OpLte:
		return cmp <= 0, nil
	case sched.OpGt:
		return cmp > 0, nil
	case sched.OpGte:
		return cmp >= 0, nil
	default:
		return false, schedulererrors.InvalidCondition("unknown comparison operator")
	}
}

func resolveOperand(op sched.Operand, lookup ValueLookup) (string, error) {
	if !op.IsReference() {
		return op.Literal, nil
	}
	value, _, ok := lookup(op.Ref)
	if !ok {
		return "", schedulererrors.InvalidCondition("referenced variable is uninitialized").WithDetails("name", op.Ref)
	}
	return value, nil
}

// LookupFromVars builds a ValueLookup over a fully hydrated variable list,
// for use by condition evaluation at Execute time and recurrence
// termination checks.
func LookupFromVars(vars []sched.Variable) ValueLookup {
	byName := make(map[string]sched.Variable, len(vars))
	for _, v := range vars {
		byName[v.Name] = v
	}
	return func(name string) (string, bool, bool) {
		v, ok := byName[name]
		if !ok || v.Value == nil {
			return "", false, false
		}
		return *v.Value, v.Encode, true
	}
}
