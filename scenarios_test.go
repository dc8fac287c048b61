package tagparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagparse/tagparse/model"
)

func personClass() *model.Descriptor {
	return model.Class("Person", []model.Field{
		{Name: "name", Type: model.Primitive(model.PrimString), Required: true},
		{Name: "age", Type: model.Primitive(model.PrimInteger), Required: true},
	}, "")
}

func TestScenarioSimpleClassWithSurroundingProse(t *testing.T) {
	p, err := New(personClass(), testInstantiator{})
	require.NoError(t, err)

	p.Feed([]byte(`Hi! <Person>{"name":"Alice","age":30}</Person> bye`))
	out, err := p.Validate()
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Equal(t, "Alice", m["name"])
	assert.EqualValues(t, 30, m["age"])
}

func TestScenarioMessyJSONRecoversAllFields(t *testing.T) {
	class := model.Class("Person", []model.Field{
		{Name: "name", Type: model.Primitive(model.PrimString), Required: true},
		{Name: "age", Type: model.Primitive(model.PrimInteger), Required: true},
		{Name: "interests", Type: model.List(model.Primitive(model.PrimString)), Required: true},
	}, "")
	p, err := New(class, testInstantiator{})
	require.NoError(t, err)

	p.Feed([]byte(`<Person>{'name': 'Alice', age: 25, 'interests': ["coding", 'AI', hiking,]}</Person>`))
	out, err := p.Validate()
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Equal(t, "Alice", m["name"])
	assert.EqualValues(t, 25, m["age"])
	assert.Equal(t, []any{"coding", "AI", "hiking"}, m["interests"])

	kinds := map[string]bool{}
	for _, r := range p.Records() {
		kinds[r.Kind.String()] = true
	}
	assert.True(t, kinds["unquoted_key"], "expected an unquoted-key warning for bareword age")
	assert.True(t, kinds["unquoted_value"], "expected an unquoted-value warning for bareword hiking")
	assert.True(t, kinds["trailing_comma"], "expected a trailing-comma warning before ']'")
}

func TestScenarioChunkedStreamingGrowsProgressively(t *testing.T) {
	p, err := New(personClass(), testInstantiator{})
	require.NoError(t, err)

	chunks := []string{
		`<Person>{"name": "Ali`,
		`ce", "age"`,
		`: 30}</Person>`,
	}

	var snapshots []any
	for _, c := range chunks {
		snapshots = append(snapshots, p.Feed([]byte(c)))
	}

	out, err := p.Validate()
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Equal(t, "Alice", m["name"])
	assert.EqualValues(t, 30, m["age"])

	assert.Nil(t, snapshots[0], "name is still mid-string, not yet a complete required field")
}

func TestScenarioRootListOfIntegers(t *testing.T) {
	listType := model.List(model.Primitive(model.PrimInteger))
	p, err := New(listType, testInstantiator{})
	require.NoError(t, err)

	p.Feed([]byte(`<list>[1, 2, 3]</list>`))
	out, err := p.Validate()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, out)
}

func TestScenarioUnionSelectsVariantByTagName(t *testing.T) {
	cat := model.Class("Cat", []model.Field{
		{Name: "meow_volume", Type: model.Primitive(model.PrimInteger), Required: true},
	}, "")
	dog := model.Class("Dog", []model.Field{
		{Name: "bark_pitch", Type: model.Primitive(model.PrimInteger), Required: true},
	}, "")
	union := model.Union(cat, dog)

	p, err := New(union, testInstantiator{})
	require.NoError(t, err)

	p.Feed([]byte(`<Dog>{"bark_pitch":5}</Dog>`))
	out, err := p.Validate()
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.EqualValues(t, 5, m["bark_pitch"])
}

func TestScenarioMismatchedCloserStillRecoversValue(t *testing.T) {
	p, err := New(personClass(), testInstantiator{})
	require.NoError(t, err)

	p.Feed([]byte(`<Person>{"name": "A", "age": 1]</Person>`))
	out, err := p.Validate()
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Equal(t, "A", m["name"])
	assert.EqualValues(t, 1, m["age"])

	found := false
	for _, r := range p.Records() {
		if r.Kind.String() == "mismatched_closer" {
			found = true
		}
	}
	assert.True(t, found, "expected a mismatched-closer record")
}

func TestInvariantRecoveryIdempotenceOnWellFormedInput(t *testing.T) {
	p, err := New(personClass(), testInstantiator{})
	require.NoError(t, err)

	p.Feed([]byte(`<Person>{"name": "Alice", "age": 30}</Person>`))
	_, err = p.Validate()
	require.NoError(t, err)
	assert.Empty(t, p.Records(), "well-formed input must not trigger any recovery warning")
}

func TestInvariantPartialMonotonicityAcrossFeeds(t *testing.T) {
	p, err := New(personClass(), testInstantiator{})
	require.NoError(t, err)

	p.Feed([]byte(`<Person>{"name": "Alice"`))
	second := p.Feed([]byte(`, "age": 30}`))
	require.NotNil(t, second)
	m := second.(map[string]any)
	assert.Equal(t, "Alice", m["name"], "a field set on an earlier feed must not change on a later one")
	assert.EqualValues(t, 30, m["age"])
}

func TestInvariantDeclarationOrderDeterminismAcrossRepeatedParses(t *testing.T) {
	cat := model.Class("Cat", []model.Field{
		{Name: "meow_volume", Type: model.Primitive(model.PrimInteger), Required: true},
	}, "")
	dog := model.Class("Dog", []model.Field{
		{Name: "bark_pitch", Type: model.Primitive(model.PrimInteger), Required: true},
	}, "")
	union := model.Union(cat, dog)

	for i := 0; i < 3; i++ {
		p, err := New(union, testInstantiator{})
		require.NoError(t, err)
		p.Feed([]byte(`<Cat>{"meow_volume":7}</Cat>`))
		out, err := p.Validate()
		require.NoError(t, err)
		m := out.(map[string]any)
		assert.EqualValues(t, 7, m["meow_volume"])
	}
}
