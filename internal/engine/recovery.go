package engine

import "github.com/tagparse/tagparse/model"

// frameKind discriminates a Recovery Parser stack frame (§4.4).
type frameKind int

const (
	frameRoot frameKind = iota
	frameArray
	frameObject
)

// objState tracks where within an OBJECT frame the next token is expected.
type objState int

const (
	objExpectKeyOrClose objState = iota
	objExpectColon
	objExpectValue
	objExpectCommaOrClose
)

// frame is one entry of the Recovery Parser's explicit stack. Unlike a
// recursive-descent parser's call frames, every field here is plain data,
// so a frame survives unchanged across Feed calls that exhaust their input
// mid-structure — the resumability §9 calls for.
type frame struct {
	kind frameKind

	array   *model.Value // frameArray
	started bool         // frameArray, frameObject: at least one element/pair added
	expectValue bool     // frameArray: next token (other than ',' or closer) must begin a value

	object   *model.Value // frameObject
	key      string
	objState objState
}

// RecoveryParser is the table-driven value-tree builder of §4.4. It
// consumes one Token at a time (from a Lexer) and applies the eight
// recovery rules deterministically. It never recurses: nesting is carried
// entirely by the explicit stack, an explicit state machine rather than a
// descent parser.
type RecoveryParser struct {
	stack []*frame

	root        *model.Value
	rootStarted bool

	version int

	Warnings []Record
}

// NewRecoveryParser returns a parser ready to receive the first token of a
// tag's contents.
func NewRecoveryParser() *RecoveryParser {
	return &RecoveryParser{stack: []*frame{{kind: frameRoot}}}
}

// Version returns the transition counter: it increases on every Feed call,
// letting the Streaming Facade suppress no-op notifications (§3, §4.4).
func (p *RecoveryParser) Version() int { return p.version }

// Done reports whether the root value has fully closed.
func (p *RecoveryParser) Done() bool { return p.rootStarted && len(p.stack) == 1 }

// Snapshot returns the value tree built so far. Because composite Values
// are attached to their parent at the moment they are opened (not when
// they close) and are mutated in place via their Elems/Pairs slices, the
// returned pointer reflects all progress to date even while frames remain
// open — this is what lets feed() produce a best-effort snapshot without
// the Recovery Parser needing to track a separate "current root" pointer.
func (p *RecoveryParser) Snapshot() (*model.Value, bool) {
	return p.root, p.Done()
}

// TakeWarnings drains and returns the warnings recorded since the last call.
func (p *RecoveryParser) TakeWarnings() []Record {
	w := p.Warnings
	p.Warnings = nil
	return w
}

func (p *RecoveryParser) warn(kind Kind, offset int, format string, args ...any) {
	p.Warnings = append(p.Warnings, newRecord(kind, offset, format, args...))
}

// Feed advances the parser by one token.
func (p *RecoveryParser) Feed(tok Token) {
	p.version++
	if len(p.stack) == 0 {
		return
	}
	top := p.stack[len(p.stack)-1]
	switch top.kind {
	case frameRoot:
		p.feedValuePosition(top, tok)
	case frameArray:
		p.feedArray(top, tok)
	case frameObject:
		p.feedObject(top, tok)
	}
}

// valueFromScalar converts a scalar token directly into a Value. Barewords
// that are not the keyword tokens TRUE/FALSE/NULL (the Lexer already turns
// those into their own token kinds) are unquoted identifiers — rule 4.
func (p *RecoveryParser) valueFromScalar(tok Token) (*model.Value, bool) {
	switch tok.Kind {
	case TString:
		return model.NewString(tok.Str), true
	case TNumber:
		if tok.NumIsInt {
			return model.NewInt(tok.IntVal), true
		}
		return model.NewReal(tok.Num), true
	case TTrue:
		return model.NewBool(true), true
	case TFalse:
		return model.NewBool(false), true
	case TNull:
		return model.NewNull(), true
	case TBareword:
		p.warn(KindUnquotedValue, tok.Offset, "unquoted value %q accepted as string", tok.Str)
		return model.NewString(tok.Str), true
	}
	return nil, false
}

// beginValue starts a value at the current position: either a composite
// (returning the new frame to push, along with the composite Value that
// must be attached to the parent immediately) or a completed scalar.
func (p *RecoveryParser) beginValue(tok Token) (scalar, composite *model.Value, pushed *frame) {
	switch tok.Kind {
	case TLBrace:
		obj := model.NewObject()
		return nil, obj, &frame{kind: frameObject, object: obj, objState: objExpectKeyOrClose}
	case TLBracket:
		arr := model.NewArray()
		return nil, arr, &frame{kind: frameArray, array: arr, expectValue: true}
	default:
		if v, ok := p.valueFromScalar(tok); ok {
			return v, nil, nil
		}
		return nil, nil, nil
	}
}

// attach places v into whatever frame is now on top of the stack and
// advances that frame's own position state. It is called both for
// completed scalars and, at push time, for composites just opened — the
// composite is linked into its parent right away, not deferred to its
// eventual close.
func (p *RecoveryParser) attach(v *model.Value) {
	top := p.stack[len(p.stack)-1]
	switch top.kind {
	case frameRoot:
		p.root = v
		p.rootStarted = true
	case frameArray:
		top.array.Append(v)
		top.started = true
		top.expectValue = false
	case frameObject:
		top.object.Set(top.key, v)
		top.started = true
		top.objState = objExpectCommaOrClose
	}
}

func (p *RecoveryParser) popFrame() {
	p.stack = p.stack[:len(p.stack)-1]
}

// feedValuePosition handles a token where a value is expected: the root
// slot, or (via the array/object handlers below) any value position within
// a composite. It is shared so the root's single value and a composite's
// elements/members go through identical value-starting logic.
func (p *RecoveryParser) feedValuePosition(top *frame, tok Token) {
	scalar, composite, pushed := p.beginValue(tok)
	if pushed != nil {
		p.attach(composite)
		p.stack = append(p.stack, pushed)
		return
	}
	if scalar != nil {
		p.attach(scalar)
		return
	}
	// A token that cannot begin a value (stray ':' at the root, etc.) is
	// dropped without losing position — the parser never discards already
	// consumed input on error, it just advances past noise (§4.4).
	if top.kind != frameRoot {
		p.warn(KindStraySeparator, tok.Offset, "unexpected token, skipped")
	}
}

func (p *RecoveryParser) feedArray(top *frame, tok Token) {
	if !top.expectValue {
		switch tok.Kind {
		case TRBracket:
			p.popFrame()
			return
		case TRBrace:
			p.warn(KindMismatchedCloser, tok.Offset, "'}' closes an array opened with '['")
			p.popFrame()
			return
		case TComma:
			top.expectValue = true
			return
		default:
			// Rule 2: two completed elements with no separator between them.
			p.warn(KindMissingComma, tok.Offset, "missing ',' between array elements")
			top.expectValue = true
			p.feedArray(top, tok)
			return
		}
	}

	switch tok.Kind {
	case TRBracket:
		if top.started {
			// Rule 1: trailing comma before ']'.
			p.warn(KindTrailingComma, tok.Offset, "trailing ',' before ']'")
		}
		p.popFrame()
		return
	case TRBrace:
		p.warn(KindMismatchedCloser, tok.Offset, "'}' closes an array opened with '['")
		p.popFrame()
		return
	case TComma:
		// Rule 7: stray separator (start of frame, or a repeated comma).
		p.warn(KindStraySeparator, tok.Offset, "stray ',' in array")
		return
	}

	p.feedValuePosition(top, tok)
}

func (p *RecoveryParser) feedObject(top *frame, tok Token) {
	switch top.objState {
	case objExpectKeyOrClose:
		switch tok.Kind {
		case TRBrace:
			if top.started {
				p.warn(KindTrailingComma, tok.Offset, "trailing ',' before '}'")
			}
			p.popFrame()
			return
		case TRBracket:
			p.warn(KindMismatchedCloser, tok.Offset, "']' closes an object opened with '{'")
			p.popFrame()
			return
		case TComma:
			p.warn(KindStraySeparator, tok.Offset, "stray ',' in object")
			return
		}
		key, ok := p.keyFromToken(tok)
		if !ok {
			p.warn(KindStraySeparator, tok.Offset, "unexpected token where a key was expected, skipped")
			return
		}
		top.key = key
		top.objState = objExpectColon

	case objExpectColon:
		if tok.Kind == TColon {
			top.objState = objExpectValue
			return
		}
		// No ':' present: treat the token as if it had opened the value
		// position directly, so a key immediately followed by its value
		// with the colon dropped still recovers.
		top.objState = objExpectValue
		p.feedObject(top, tok)

	case objExpectValue:
		p.feedValuePosition(top, tok)

	case objExpectCommaOrClose:
		switch tok.Kind {
		case TRBrace:
			p.popFrame()
			return
		case TRBracket:
			p.warn(KindMismatchedCloser, tok.Offset, "']' closes an object opened with '{'")
			p.popFrame()
			return
		case TComma:
			top.objState = objExpectKeyOrClose
			return
		default:
			// Rule 2: missing comma between members.
			p.warn(KindMissingComma, tok.Offset, "missing ',' between object members")
			top.objState = objExpectKeyOrClose
			p.feedObject(top, tok)
		}
	}
}

// keyFromToken implements rule 3: an unquoted key (bareword) is accepted as
// the string key, same as a quoted one.
func (p *RecoveryParser) keyFromToken(tok Token) (string, bool) {
	switch tok.Kind {
	case TString:
		return tok.Str, true
	case TBareword:
		p.warn(KindUnquotedKey, tok.Offset, "unquoted key %q accepted", tok.Str)
		return tok.Str, true
	}
	return "", false
}

// SoftClose implements rule 8: every still-open frame is force-closed with
// its partial contents, and the resulting (possibly incomplete) value tree
// is marked Partial. Called exactly once, at validate-time EOF.
func (p *RecoveryParser) SoftClose() *model.Value {
	for len(p.stack) > 1 {
		top := p.stack[len(p.stack)-1]
		switch top.kind {
		case frameArray:
			top.array.Partial = true
		case frameObject:
			top.object.Partial = true
		}
		p.popFrame()
	}
	if !p.rootStarted {
		return nil
	}
	return p.root
}
