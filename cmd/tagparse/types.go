package main

import (
	"fmt"
	"reflect"

	"github.com/tagparse/tagparse/model"
	"github.com/tagparse/tagparse/schema"
)

func errUnknownType(name string) error {
	return fmt.Errorf("tagparse: unknown --type %q (known: task, note, citation)", name)
}

// demoTypes is a small registry of built-in Go types --type can name without
// requiring a host program to link its own structs in, the way magicschema's
// Registry maps annotator names to constructors; here it maps a --type name
// to a reflect.Type schema.Build can describe.
var demoTypes = map[string]reflect.Type{
	"task":     reflect.TypeOf(DemoTask{}),
	"note":     reflect.TypeOf(DemoNote{}),
	"citation": reflect.TypeOf(DemoCitation{}),
}

// DemoTask is a sample extraction target: a single actionable item with an
// optional due date and a free-form tag set.
type DemoTask struct {
	Title    string   `tagparse:"title"`
	Done     bool     `tagparse:"done,omitempty"`
	Priority int      `tagparse:"priority,omitempty"`
	Tags     []string `tagparse:"tags,set,omitempty"`
	Due      *string  `tagparse:"due,omitempty"`
}

// DemoNote is a sample extraction target with a nested list of citations.
type DemoNote struct {
	Body      string         `tagparse:"body"`
	Citations []DemoCitation `tagparse:"citations,omitempty"`
}

// DemoCitation is a sample nested class.
type DemoCitation struct {
	Source string `tagparse:"source"`
	Page   int    `tagparse:"page,omitempty"`
}

func buildDemoSchema(name string) (*model.Descriptor, model.Instantiator, error) {
	t, ok := demoTypes[name]
	if !ok {
		return nil, nil, errUnknownType(name)
	}
	d, inst, err := schema.Build(t)
	if err != nil {
		return nil, nil, err
	}
	return d, inst, nil
}
