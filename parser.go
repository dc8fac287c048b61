// Package tagparse is the Streaming Facade of §4.6: the single type a host
// program constructs and drives. It wires the Tag Scanner, Value Lexer,
// Recovery Parser, and Type Binder together and owns the parse state
// described in §3 — nothing below this package blocks or retains a
// reference to it beyond a Feed/Validate call.
package tagparse

import (
	"fmt"

	"github.com/tagparse/tagparse/internal/engine"
	"github.com/tagparse/tagparse/model"
)

// Parser is one streaming extraction in progress against a single root
// Descriptor. It is not safe for concurrent Feed calls (§5): the caller
// serializes them.
type Parser struct {
	root *model.Descriptor
	inst model.Instantiator

	accept        map[string]bool
	variantByName map[string]*model.Descriptor
	active        *model.Descriptor

	scanner *engine.Scanner
	lexer   *engine.Lexer
	rp      *engine.RecoveryParser
	binder  *engine.Binder

	offset  int
	records []engine.Record
}

// New builds a Parser bound to root. It returns an error immediately
// (a "programming error" in §7's taxonomy) if root fails the Type Model's
// invariants — unknown-name or cyclic-without-break descriptors never reach
// Feed.
func New(root *model.Descriptor, inst model.Instantiator) (*Parser, error) {
	if err := model.Validate(root); err != nil {
		return nil, err
	}

	p := &Parser{
		root:   root,
		inst:   inst,
		lexer:  engine.NewLexer(),
		rp:     engine.NewRecoveryParser(),
		binder: engine.NewBinder(inst),
	}

	names := tagNamesFor(root)
	p.accept = make(map[string]bool, len(names))
	for _, n := range names {
		p.accept[n] = true
	}
	if root.Kind == model.KindUnion {
		p.variantByName = make(map[string]*model.Descriptor)
		for _, variant := range root.Variants {
			for _, n := range tagNamesFor(variant) {
				p.variantByName[n] = variant
			}
		}
	}

	p.scanner = engine.NewScanner(p.acceptTag)
	return p, nil
}

func (p *Parser) acceptTag(name string) bool { return p.accept[name] }

// tagNamesFor implements the tag surface of §6: the wire tag name(s) that
// select a given descriptor as a parse root.
func tagNamesFor(d *model.Descriptor) []string {
	switch d.Kind {
	case model.KindClass:
		return []string{d.Name}
	case model.KindList:
		return []string{"list"}
	case model.KindTuple:
		return []string{"tuple"}
	case model.KindSet:
		return []string{"set"}
	case model.KindMapping:
		return []string{"dict"}
	case model.KindOptional:
		return tagNamesFor(d.Elem)
	case model.KindUnion:
		var names []string
		for _, v := range d.Variants {
			names = append(names, tagNamesFor(v)...)
		}
		return names
	}
	return nil
}

// Feed appends bytes to the input stream and returns the current
// best-effort typed snapshot, or nil if no payload tag has opened yet or
// the snapshot cannot yet be bound. Feed never returns an error: malformed
// input is recorded (see Records) and, where recoverable, absorbed (§4.6).
func (p *Parser) Feed(b []byte) any {
	events := p.scanner.Feed(b, p.offset)
	p.offset += len(b)
	p.consume(events)
	return p.snapshot()
}

func (p *Parser) consume(events []engine.ScanEvent) {
	for _, ev := range events {
		switch ev.Kind {
		case engine.EvOpen:
			if p.root.Kind == model.KindUnion {
				p.active = p.variantByName[ev.Name]
			} else {
				p.active = p.root
			}
		case engine.EvPayload:
			p.lexer.Feed([]byte{ev.Byte})
			p.drainLexer()
		case engine.EvClose:
			// The Scanner itself tracks closedness (IsComplete below); no
			// further action needed here.
		case engine.EvUnmatchedClose:
			p.records = append(p.records, engine.Record{
				Kind:    engine.KindUnmatchedCloseTag,
				Offset:  ev.Offset,
				Message: fmt.Sprintf("unmatched close tag %q", ev.Name),
			})
		}
	}
}

func (p *Parser) drainLexer() {
	for {
		tok, needMore := p.lexer.Next()
		if len(p.lexer.Warnings) > 0 {
			p.records = append(p.records, p.lexer.Warnings...)
			p.lexer.Warnings = p.lexer.Warnings[:0]
		}
		if needMore {
			return
		}
		p.rp.Feed(tok)
		p.records = append(p.records, p.rp.TakeWarnings()...)
	}
}

func (p *Parser) snapshot() any {
	if p.active == nil {
		return nil
	}
	v, _ := p.rp.Snapshot()
	if v == nil {
		return nil
	}
	out, err := p.binder.Bind(v, p.active)
	p.records = append(p.records, p.binder.TakeWarnings()...)
	if err != nil {
		// Binding errors on a still-growing structure are held and retried
		// on the next Feed rather than surfaced (§4.5, §7).
		return nil
	}
	return out
}

// Validate signals end-of-input: it force-closes any still-open tag/string/
// structure, runs the Type Binder one final time, and returns the final
// object or a binding failure. It is the single point where unresolved
// errors become visible to the caller (§4.6, §7).
func (p *Parser) Validate() (any, error) {
	p.consume(p.scanner.SoftClose(p.offset))
	p.drainLexer()

	if tok, has, fatal := p.lexer.SoftCloseAtEOF(); fatal != nil {
		p.records = append(p.records, *fatal)
		return nil, *fatal
	} else if has {
		p.rp.Feed(tok)
		p.records = append(p.records, p.rp.TakeWarnings()...)
	}

	v := p.rp.SoftClose()
	if v == nil || p.active == nil {
		return nil, fmt.Errorf("tagparse: no payload tag was ever opened")
	}

	out, err := p.binder.Bind(v, p.active)
	p.records = append(p.records, p.binder.TakeWarnings()...)
	if err == nil {
		return out, nil
	}

	if mfe, ok := err.(*engine.MissingFieldsError); ok {
		rec := engine.Record{Kind: engine.KindMissingRequiredField, Offset: p.offset, Message: mfe.Error()}
		p.records = append(p.records, rec)
		return nil, rec
	}
	if rec, ok := err.(engine.Record); ok {
		p.records = append(p.records, rec)
		return nil, rec
	}
	return nil, err
}

// IsComplete reports whether a matching close tag for the root has been
// observed.
func (p *Parser) IsComplete() bool { return p.scanner.Closed() }

// Records returns every (kind, byte_offset, message) entry accumulated so
// far — the parser's error-reporting observer method (§6).
func (p *Parser) Records() []engine.Record { return p.records }
