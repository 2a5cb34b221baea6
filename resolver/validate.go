package resolver

import (
	"encoding/base64"

	schedulererrors "github.com/warpscheduler/core/schedulererrors"
	"github.com/warpscheduler/core/sched"
)

// ValidateJob validates a fresh job's variable graph, condition trees, and
// message payloads ("Validation at creation"):
//   - every reference inside a variable's own definition resolves within
//     the variable list under left-to-right order (no forward or self
//     references);
//   - every reference in msgs and condition/terminate_condition refers to
//     a declared variable;
//   - the condition tree is well-typed: a reference operand's declared
//     Kind must match the variable's Kind.
func ValidateJob(vars []sched.Variable, condition, terminateCondition *sched.Condition, msgs []sched.Message) error {
	declaredKind := make(map[string]sched.Kind, len(vars))

	for i, v := range vars {
		if v.Name == "" {
			return schedulererrors.New(schedulererrors.CodeInvalidCondition, "variable name must not be empty").WithDetails("index", i)
		}
		if _, dup := declaredKind[v.Name]; dup {
			return schedulererrors.New(schedulererrors.CodeInvalidCondition, "duplicate variable name").WithDetails("name", v.Name)
		}
		if !v.Kind.Valid() {
			return schedulererrors.VariableKindMismatch(v.Name, string(v.Kind))
		}

		var definitionText string
		switch v.Source {
		case sched.SourceStatic:
			if v.Value != nil {
				definitionText = *v.Value
			}
		case sched.SourceQuery:
			if v.Query != nil {
				definitionText = string(v.Query.Msg)
			}
		}

		for _, name := range ReferencedNames(definitionText) {
			if name == v.Name {
				return schedulererrors.InvalidVariableReference(name)
			}
			if _, declared := declaredKind[name]; !declared {
				return schedulererrors.InvalidVariableReference(name)
			}
		}

		declaredKind[v.Name] = v.Kind
	}

	if err := validateCondition(condition, declaredKind); err != nil {
		return err
	}
	if err := validateCondition(terminateCondition, declaredKind); err != nil {
		return err
	}

	for _, msg := range msgs {
		text := string(msg.Payload)
		if msg.IsBinaryPayload {
			decoded, err := base64.StdEncoding.DecodeString(text)
			if err != nil {
				return schedulererrors.New(schedulererrors.CodeInvalidCondition, "message payload is not valid base64").WithDetails("contract", msg.ContractAddress)
			}
			text = string(decoded)
		}
		for _, name := range ReferencedNames(text) {
			if _, declared := declaredKind[name]; !declared {
				return schedulererrors.InvalidVariableReference(name)
			}
		}
	}

	return nil
}

func validateCondition(cond *sched.Condition, declaredKind map[string]sched.Kind) error {
	if cond == nil {
		return nil
	}

	if cond.Op.IsConnective() {
		for _, arg := range cond.Args {
			if err := validateCondition(arg, declaredKind); err != nil {
				return err
			}
		}
		return nil
	}

	if cond.Left == nil || cond.Right == nil {
		return schedulererrors.InvalidCondition("comparison missing operand")
	}
	for _, operand := range []*sched.Operand{cond.Left, cond.Right} {
		if err := validateOperand(*operand, declaredKind); err != nil {
			return err
		}
	}
	return nil
}

func validateOperand(op sched.Operand, declaredKind map[string]sched.Kind) error {
	if op.IsReference() {
		kind, declared := declaredKind[op.Ref]
		if !declared {
			return schedulererrors.InvalidVariableReference(op.Ref)
		}
		if kind != op.Kind {
			return schedulererrors.VariableKindMismatch(op.Ref, string(op.Kind))
		}
		return nil
	}
	return ValidateKind(op.Kind, op.Literal)
}
