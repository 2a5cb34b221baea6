package sched

// Kind tags the type of a Variable's hydrated value, governing parsing and
// comparison semantics.
type Kind string

const (
	KindString    Kind = "string"
	KindInt       Kind = "int"
	KindUint      Kind = "uint"
	KindDecimal   Kind = "decimal"
	KindTimestamp Kind = "timestamp"
	KindBool      Kind = "bool"
	KindAmount    Kind = "amount"
	KindJSON      Kind = "json"
)

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindInt, KindUint, KindDecimal, KindTimestamp, KindBool, KindAmount, KindJSON:
		return true
	default:
		return false
	}
}
