package resolver

import (
	"context"

	"github.com/tidwall/gjson"

	schedulererrors "github.com/warpscheduler/core/schedulererrors"
	"github.com/warpscheduler/core/sched"
)

// QueryIssuer issues a structured query against the external ledger and
// returns its raw JSON response. This is the out-of-scope ledger
// collaborator — the resolver only knows its interface.
type QueryIssuer interface {
	Query(ctx context.Context, spec sched.QuerySpec) ([]byte, error)
}

// Hydrator resolves a job's ordered variable list into concrete values
//.
type Hydrator struct {
	Issuer QueryIssuer
}

// Hydrate walks vars left to right, resolving each variable's value and
// making it available to references in variables that follow. externalInputs
// supplies the keeper-provided values for External-sourced variables,
// matched by Variable.InitName.
func (h *Hydrator) Hydrate(ctx context.Context, vars []sched.Variable, externalInputs map[string]string) ([]sched.Variable, error) {
	out := make([]sched.Variable, len(vars))
	hydrated := make(map[string]sched.Variable, len(vars))

	lookup := func(name string) (string, bool, bool) {
		v, ok := hydrated[name]
		if !ok || v.Value == nil {
			return "", false, false
		}
		return *v.Value, v.Encode, true
	}

	for i, v := range vars {
		if _, exists := hydrated[v.Name]; exists {
			return nil, schedulererrors.InvalidVariableReference(v.Name)
		}

		value, err := h.hydrateOne(ctx, v, externalInputs, lookup)
		if err != nil {
			return nil, err
		}
		if err := ValidateKind(v.Kind, value); err != nil {
			return nil, err
		}

		v.Value = &value
		out[i] = v
		hydrated[v.Name] = v
	}

	return out, nil
}

func (h *Hydrator) hydrateOne(ctx context.Context, v sched.Variable, externalInputs map[string]string, lookup ValueLookup) (string, error) {
	switch v.Source {
	case sched.SourceStatic:
		if v.Value == nil {
			return "", schedulererrors.New(schedulererrors.CodeInvalidCondition, "static variable has no value").WithDetails("name", v.Name)
		}
		return SubstitutePlain(*v.Value, lookup)

	case sched.SourceExternal:
		if !v.Reinitialize && v.Value != nil {
			return *v.Value, nil
		}
		input, ok := externalInputs[v.InitName]
		if !ok {
			return "", schedulererrors.New(schedulererrors.CodeInvalidCondition, "missing external input").
				WithDetails("name", v.Name).WithDetails("init_name", v.InitName)
		}
		return input, nil

	case sched.SourceQuery:
		if !v.Reinitialize && v.Value != nil {
			return *v.Value, nil
		}
		return h.hydrateQuery(ctx, v, lookup)

	default:
		return "", schedulererrors.New(schedulererrors.CodeInvalidCondition, "unknown variable source").WithDetails("name", v.Name)
	}
}

func (h *Hydrator) hydrateQuery(ctx context.Context, v sched.Variable, lookup ValueLookup) (string, error) {
	if v.Query == nil {
		return "", schedulererrors.New(schedulererrors.CodeInvalidCondition, "query variable missing query spec").WithDetails("name", v.Name)
	}
	if h.Issuer == nil {
		return "", schedulererrors.QueryFailure(errNoIssuer)
	}

	msg, err := SubstitutePlain(string(v.Query.Msg), lookup)
	if err != nil {
		return "", err
	}

	spec := *v.Query
	spec.Msg = []byte(msg)

	resp, err := h.Issuer.Query(ctx, spec)
	if err != nil {
		return "", schedulererrors.QueryFailure(err)
	}

	if v.Query.Selector == "" {
		return string(resp), nil
	}

	result := gjson.GetBytes(resp, v.Query.Selector)
	if !result.Exists() {
		return "", schedulererrors.QueryFailure(errSelectorNoMatch)
	}
	if v.Kind == sched.KindJSON {
		return result.Raw, nil
	}
	return result.String(), nil
}
