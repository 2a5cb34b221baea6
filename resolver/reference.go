package resolver

import (
	"encoding/base64"
	"regexp"

	schedulererrors "github.com/warpscheduler/core/schedulererrors"
)

// referenceToken matches the literal $warp.variable.<name> token, either
// standalone or embedded inside a larger string.
var referenceToken = regexp.MustCompile(`\$warp\.variable\.([A-Za-z0-9_]+)`)

// ReferencedNames returns the set of variable names referenced anywhere in s.
func ReferencedNames(s string) []string {
	matches := referenceToken.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// AsWholeReference reports whether s is, in its entirety, a single
// $warp.variable.<name> token, returning the referenced name if so.
func AsWholeReference(s string) (string, bool) {
	m := referenceToken.FindStringSubmatch(s)
	if m == nil || m[0] != s {
		return "", false
	}
	return m[1], true
}

// ValueLookup resolves a variable name to its substitution text, and
// reports whether that referent's value should itself be base64-encoded
// before insertion (Variable.Encode).
type ValueLookup func(name string) (value string, encode bool, ok bool)

// SubstitutePlain replaces every reference token in s with its referent's
// hydrated value as-is (plain substitution, ).
func SubstitutePlain(s string, lookup ValueLookup) (string, error) {
	return substitute(s, lookup, false)
}

// substitute replaces every reference token in s; when honorEncode is set,
// a referent marked Encode is base64-encoded before insertion.
func substitute(s string, lookup ValueLookup, honorEncode bool) (string, error) {
	var substErr error
	out := referenceToken.ReplaceAllStringFunc(s, func(token string) string {
		if substErr != nil {
			return token
		}
		name := referenceToken.FindStringSubmatch(token)[1]
		value, encode, ok := lookup(name)
		if !ok {
			substErr = schedulererrors.InvalidVariableReference(name)
			return token
		}
		if encode && honorEncode {
			value = base64.StdEncoding.EncodeToString([]byte(value))
		}
		return value
	})
	if substErr != nil {
		return "", substErr
	}
	return out, nil
}

// SubstituteEncoded applies encoded substitution: payload is
// base64-decoded, every reference token inside the decoded text is
// substituted (a referent marked Encode is itself base64-encoded before
// insertion), and the result is re-encoded.
func SubstituteEncoded(payload []byte, lookup ValueLookup) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(string(payload))
	if err != nil {
		return nil, schedulererrors.Internal("payload is not valid base64", err)
	}

	substituted, err := substitute(string(decoded), lookup, true)
	if err != nil {
		return nil, err
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(substituted))
	return []byte(encoded), nil
}
