// Package engine implements the non-I/O, non-recursive core described in
// spec §4.2-§4.5: the Tag Scanner, Value Lexer, Recovery Parser, and Type
// Binder. It is driven by the top-level Parser (the Streaming Facade,
// package tagparse) and never blocks or owns a goroutine.
package engine

import "fmt"

// Kind enumerates the error taxonomy of spec §7.
type Kind int

const (
	// Recoverable lexical.
	KindMissingComma Kind = iota
	KindTrailingComma
	KindMismatchedCloser
	KindUnterminatedComment
	KindUnknownEscape

	// Recoverable syntactic.
	KindUnquotedKey
	KindUnquotedValue
	KindSingletonToList
	KindBarewordLiteral
	KindStraySeparator
	KindUnknownField

	// Fatal parse (validate-time only).
	KindUnterminatedString
	KindUnbalancedStructure

	// Binding errors (validate-time only; held and retried during feed).
	KindMissingRequiredField
	KindIncompatiblePrimitive
	KindArityMismatch
	KindNoAdmissibleUnionVariant

	// Unmatched close tag seen by the Tag Scanner (§4.2).
	KindUnmatchedCloseTag
)

func (k Kind) String() string {
	switch k {
	case KindMissingComma:
		return "missing_comma"
	case KindTrailingComma:
		return "trailing_comma"
	case KindMismatchedCloser:
		return "mismatched_closer"
	case KindUnterminatedComment:
		return "unterminated_comment"
	case KindUnknownEscape:
		return "unknown_escape"
	case KindUnquotedKey:
		return "unquoted_key"
	case KindUnquotedValue:
		return "unquoted_value"
	case KindSingletonToList:
		return "singleton_to_list"
	case KindBarewordLiteral:
		return "bareword_literal"
	case KindStraySeparator:
		return "stray_separator"
	case KindUnknownField:
		return "unknown_field"
	case KindUnterminatedString:
		return "unterminated_string"
	case KindUnbalancedStructure:
		return "unbalanced_structure"
	case KindMissingRequiredField:
		return "missing_required_field"
	case KindIncompatiblePrimitive:
		return "incompatible_primitive"
	case KindArityMismatch:
		return "arity_mismatch"
	case KindNoAdmissibleUnionVariant:
		return "no_admissible_union_variant"
	case KindUnmatchedCloseTag:
		return "unmatched_close_tag"
	}
	return "unknown"
}

// Fatal reports whether a Kind belongs to the "fatal parse" or "binding
// error" classes of §7 — the ones that stop validate rather than being
// silently absorbed.
func (k Kind) Fatal() bool {
	switch k {
	case KindUnterminatedString, KindUnbalancedStructure,
		KindMissingRequiredField, KindIncompatiblePrimitive,
		KindArityMismatch, KindNoAdmissibleUnionVariant:
		return true
	}
	return false
}

// Record is one (kind, byte_offset, message) entry, accumulated by the
// parser and surfaced via its observer method (§6's "Error reporting").
// A single byte offset is enough here, since the core has no concept of
// line/column (its input isn't necessarily line-oriented prose).
type Record struct {
	Kind    Kind
	Offset  int
	Message string
}

func (r Record) Error() string {
	return fmt.Sprintf("tagparse: %s at offset %d: %s", r.Kind, r.Offset, r.Message)
}

// newRecord is a small constructor used throughout the package so call
// sites read as one line instead of a struct literal each time.
func newRecord(kind Kind, offset int, format string, args ...any) Record {
	return Record{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...)}
}
