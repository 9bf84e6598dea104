// Package sensitivity derives the visibility tier of a published site from
// its accessibility attributes.
//
// Classification is pure domain logic - no I/O, no side effects. The
// function is total: every input pair maps to exactly one code, and anything
// unrecognized degrades to the most restrictive code rather than erroring.
// Under-restricting a sensitive site costs far more than over-restricting.
package sensitivity

import dErrors "patrimonio/pkg/domain-errors"

// Origin states whether the site sits on public or private land. One of two
// inputs to the classifier; the accessibility level dominates.
type Origin string

const (
	OriginPublicLand  Origin = "public_land"
	OriginPrivateLand Origin = "private_land"
)

// Level is the granular access condition set by a reviewer.
type Level string

const (
	LevelOpen       Level = "open"
	LevelControlled Level = "controlled"
	LevelProtected  Level = "protected"
	LevelRestricted Level = "restricted"
)

// Code is the derived visibility tier. It is persisted at publication time
// and thereafter treated as the authoritative visibility key.
//
//   - A: open, fully public, exact coordinates for everyone
//   - B: protected, access-gated, coordinates fuzzed for non-experts
//   - C: restricted, expert-only
type Code string

const (
	CodeA Code = "A"
	CodeB Code = "B"
	CodeC Code = "C"
)

// Classify maps accessibility attributes to a sensitivity code.
// Rule chain (level dominates, origin currently has no effect):
//  1. open or controlled access -> A
//  2. protected access -> B
//  3. restricted, or any unrecognized future level -> C (fail closed)
func Classify(origin Origin, level Level) Code {
	_ = origin
	switch level {
	case LevelOpen, LevelControlled:
		return CodeA
	case LevelProtected:
		return CodeB
	default:
		return CodeC
	}
}

var validOrigins = map[Origin]bool{
	OriginPublicLand:  true,
	OriginPrivateLand: true,
}

var validLevels = map[Level]bool{
	LevelOpen:       true,
	LevelControlled: true,
	LevelProtected:  true,
	LevelRestricted: true,
}

// ParseOrigin constructs an Origin from external input, enforcing the
// allowlist at the trust boundary. Classify itself never errors; parsing
// rejects early so bad values are caught where a reviewer submits them.
func ParseOrigin(s string) (Origin, error) {
	o := Origin(s)
	if !validOrigins[o] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported origin of access: "+s)
	}
	return o, nil
}

// ParseLevel constructs a Level from external input.
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !validLevels[l] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported accessibility level: "+s)
	}
	return l, nil
}

// ParseCode constructs a Code from a persisted value. Stores use it when
// hydrating published records.
func ParseCode(s string) (Code, error) {
	switch c := Code(s); c {
	case CodeA, CodeB, CodeC:
		return c, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported sensitivity code: "+s)
	}
}
