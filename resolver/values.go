// Package resolver implements the variable hydration and condition
// evaluation language described in : a typed, nested-reference
// expression language used to hydrate variables, resolve conditions, and
// substitute action payloads.
package resolver

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	schedulererrors "github.com/warpscheduler/core/schedulererrors"
	"github.com/warpscheduler/core/sched"
)

// ValidateKind parses raw under kind, returning a VariableKindMismatch
// error when it does not parse. Called on every hydration and whenever a
// literal operand is validated at job creation.
func ValidateKind(kind sched.Kind, raw string) error {
	switch kind {
	case sched.KindString:
		return nil
	case sched.KindInt:
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			return schedulererrors.VariableKindMismatch(raw, string(kind))
		}
	case sched.KindUint, sched.KindAmount, sched.KindTimestamp:
		if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
			return schedulererrors.VariableKindMismatch(raw, string(kind))
		}
	case sched.KindDecimal:
		if _, ok := new(big.Rat).SetString(raw); !ok {
			return schedulererrors.VariableKindMismatch(raw, string(kind))
		}
	case sched.KindBool:
		if _, err := strconv.ParseBool(raw); err != nil {
			return schedulererrors.VariableKindMismatch(raw, string(kind))
		}
	case sched.KindJSON:
		if !json.Valid([]byte(raw)) {
			return schedulererrors.VariableKindMismatch(raw, string(kind))
		}
	default:
		return schedulererrors.VariableKindMismatch(raw, string(kind))
	}
	return nil
}

// Compare returns -1, 0, or 1 according to the kind-specific total order
// over a and b. Json supports only equality (cmp == 0 iff the
// two texts are byte-for-byte identical after both validate as JSON);
// requesting lt/lte/gt/gte ordering on Json is the caller's error to avoid.
func Compare(kind sched.Kind, a, b string) (int, error) {
	if err := ValidateKind(kind, a); err != nil {
		return 0, err
	}
	if err := ValidateKind(kind, b); err != nil {
		return 0, err
	}

	switch kind {
	case sched.KindString, sched.KindJSON:
		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		default:
			return 0, nil
		}
	case sched.KindInt:
		av, _ := strconv.ParseInt(a, 10, 64)
		bv, _ := strconv.ParseInt(b, 10, 64)
		return cmpInt64(av, bv), nil
	case sched.KindUint, sched.KindAmount, sched.KindTimestamp:
		av, _ := strconv.ParseUint(a, 10, 64)
		bv, _ := strconv.ParseUint(b, 10, 64)
		return cmpUint64(av, bv), nil
	case sched.KindDecimal:
		ar, _ := new(big.Rat).SetString(a)
		br, _ := new(big.Rat).SetString(b)
		return ar.Cmp(br), nil
	case sched.KindBool:
		av, _ := strconv.ParseBool(a)
		bv, _ := strconv.ParseBool(b)
		return cmpBool(av, bv), nil
	default:
		return 0, fmt.Errorf("unsupported kind %q", kind)
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	ai, bi := 0, 0
	if a {
		ai = 1
	}
	if b {
		bi = 1
	}
	return cmpInt64(int64(ai), int64(bi))
}
