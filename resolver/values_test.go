package resolver

import (
	"testing"

	"github.com/warpscheduler/core/sched"
)

func TestValidateKind(t *testing.T) {
	cases := []struct {
		name    string
		kind    sched.Kind
		raw     string
		wantErr bool
	}{
		{"string always valid", sched.KindString, "anything at all", false},
		{"int valid", sched.KindInt, "-42", false},
		{"int invalid", sched.KindInt, "not-a-number", true},
		{"uint valid", sched.KindUint, "42", false},
		{"uint rejects negative", sched.KindUint, "-1", true},
		{"amount valid", sched.KindAmount, "1000000", false},
		{"timestamp valid", sched.KindTimestamp, "1700000000", false},
		{"decimal valid", sched.KindDecimal, "3.14159", false},
		{"decimal invalid", sched.KindDecimal, "abc", true},
		{"bool valid true", sched.KindBool, "true", false},
		{"bool valid false", sched.KindBool, "false", false},
		{"bool invalid", sched.KindBool, "yes", true},
		{"json valid object", sched.KindJSON, `{"a":1}`, false},
		{"json invalid", sched.KindJSON, `{not json`, true},
		{"unknown kind", sched.Kind("bogus"), "x", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateKind(tc.kind, tc.raw)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCompare_NumericKinds(t *testing.T) {
	cases := []struct {
		name string
		kind sched.Kind
		a, b string
		want int
	}{
		{"int less", sched.KindInt, "-5", "3", -1},
		{"int equal", sched.KindInt, "7", "7", 0},
		{"int greater", sched.KindInt, "10", "2", 1},
		{"uint less", sched.KindUint, "1", "2", -1},
		{"amount equal", sched.KindAmount, "500", "500", 0},
		{"timestamp greater", sched.KindTimestamp, "1700000100", "1700000000", 1},
		{"decimal finer grained", sched.KindDecimal, "1.1", "1.10000001", -1},
		{"decimal equal different repr", sched.KindDecimal, "1.50", "1.5", 0},
		{"bool false lt true", sched.KindBool, "false", "true", -1},
		{"string lexicographic", sched.KindString, "abc", "abd", -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Compare(tc.kind, tc.a, tc.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Compare(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestCompare_PropagatesParseFailure(t *testing.T) {
	if _, err := Compare(sched.KindInt, "not-a-number", "3"); err == nil {
		t.Fatal("expected an error for an unparseable operand")
	}
}
