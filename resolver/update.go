package resolver

import (
	"math/big"
	"strconv"

	schedulererrors "github.com/warpscheduler/core/schedulererrors"
	"github.com/warpscheduler/core/sched"
)

// ApplyUpdateFn derives a recurring variable's next text value from its
// current one under fn.Op. The Query op is not handled here —
// it re-runs the variable's query through the Hydrator and is applied by the
// caller before falling back to this function for Increment/Decrement.
func ApplyUpdateFn(kind sched.Kind, current string, fn sched.UpdateFn) (string, error) {
	switch fn.Op {
	case sched.UpdateFnIncrement:
		return applyDelta(kind, current, fn.Amount, true)
	case sched.UpdateFnDecrement:
		return applyDelta(kind, current, fn.Amount, false)
	default:
		return current, nil
	}
}

func applyDelta(kind sched.Kind, current, amount string, add bool) (string, error) {
	if err := ValidateKind(kind, current); err != nil {
		return "", err
	}
	if err := ValidateKind(kind, amount); err != nil {
		return "", err
	}

	switch kind {
	case sched.KindInt:
		cur, _ := strconv.ParseInt(current, 10, 64)
		delta, _ := strconv.ParseInt(amount, 10, 64)
		var next int64
		if add {
			next = cur + delta
		} else {
			next = cur - delta
		}
		return strconv.FormatInt(next, 10), nil

	case sched.KindUint, sched.KindAmount, sched.KindTimestamp:
		cur, _ := strconv.ParseUint(current, 10, 64)
		delta, _ := strconv.ParseUint(amount, 10, 64)
		var next uint64
		if add {
			next = cur + delta
			if next < cur {
				return "", schedulererrors.New(schedulererrors.CodeInternal, "update_fn increment overflows uint64")
			}
		} else {
			if delta > cur {
				return "", schedulererrors.New(schedulererrors.CodeInternal, "update_fn decrement underflows uint64")
			}
			next = cur - delta
		}
		return strconv.FormatUint(next, 10), nil

	case sched.KindDecimal:
		cur, _ := new(big.Rat).SetString(current)
		delta, _ := new(big.Rat).SetString(amount)
		next := new(big.Rat)
		if add {
			next.Add(cur, delta)
		} else {
			next.Sub(cur, delta)
		}
		return next.RatString(), nil

	default:
		return "", schedulererrors.VariableKindMismatch(current, string(kind)).
			WithDetails("reason", "update_fn increment/decrement is not defined for this kind")
	}
}
