package jsonimport

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagparse/tagparse/model"
)

func TestImportPrimitiveTypes(t *testing.T) {
	cases := []struct {
		typ  string
		want model.PrimitiveKind
	}{
		{"string", model.PrimString},
		{"integer", model.PrimInteger},
		{"number", model.PrimReal},
		{"boolean", model.PrimBool},
		{"null", model.PrimNull},
	}
	for _, tc := range cases {
		d, _, err := Import("Root", &jsonschema.Schema{Type: tc.typ})
		require.NoError(t, err, tc.typ)
		assert.Equal(t, model.KindPrimitive, d.Kind, tc.typ)
		assert.Equal(t, tc.want, d.Primitive, tc.typ)
	}
}

func TestImportArrayOfStrings(t *testing.T) {
	s := &jsonschema.Schema{
		Type:  "array",
		Items: &jsonschema.Schema{Type: "string"},
	}
	d, _, err := Import("Tags", s)
	require.NoError(t, err)
	require.Equal(t, model.KindList, d.Kind)
	assert.Equal(t, model.PrimString, d.Elem.Primitive)
}

func TestImportArrayWithoutItemsDefaultsToAny(t *testing.T) {
	d, _, err := Import("Anything", &jsonschema.Schema{Type: "array"})
	require.NoError(t, err)
	require.Equal(t, model.KindList, d.Kind)
	assert.Equal(t, model.PrimAny, d.Elem.Primitive)
}

func TestImportObjectWithRequiredAndOptionalFields(t *testing.T) {
	s := &jsonschema.Schema{
		Title:         "Task",
		Description:   "a task extracted from prose",
		Type:          "object",
		PropertyOrder: []string{"title", "done"},
		Required:      []string{"title"},
		Properties: map[string]*jsonschema.Schema{
			"title": {Type: "string"},
			"done":  {Type: "boolean"},
		},
	}
	d, inst, err := Import("Root", s)
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, model.KindClass, d.Kind)
	assert.Equal(t, "Task", d.Name)
	assert.Equal(t, "a task extracted from prose", d.Docstring)
	require.Len(t, d.Fields, 2)

	titleField, ok := d.FieldByName("title")
	require.True(t, ok)
	assert.True(t, titleField.Required)

	doneField, ok := d.FieldByName("done")
	require.True(t, ok)
	assert.False(t, doneField.Required)
	assert.True(t, doneField.HasDefault)
}

func TestImportObjectFallsBackToMapIterationOrderWhenNoPropertyOrder(t *testing.T) {
	s := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"only": {Type: "string"},
		},
	}
	d, _, err := Import("Root", s)
	require.NoError(t, err)
	require.Len(t, d.Fields, 1)
	assert.Equal(t, "only", d.Fields[0].Name)
}

func TestImportResolvesLocalRef(t *testing.T) {
	s := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"address": {Ref: "#/$defs/Address"},
		},
		PropertyOrder: []string{"address"},
		Defs: map[string]*jsonschema.Schema{
			"Address": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"city": {Type: "string"},
				},
				PropertyOrder: []string{"city"},
				Required:      []string{"city"},
			},
		},
	}
	d, _, err := Import("Root", s)
	require.NoError(t, err)
	addrField, ok := d.FieldByName("address")
	require.True(t, ok)
	assert.Equal(t, model.KindClass, addrField.Type.Kind)
	assert.Equal(t, "Address", addrField.Type.Name)
}

func TestImportUnresolvedRefErrors(t *testing.T) {
	s := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"address": {Ref: "#/$defs/Missing"},
		},
		PropertyOrder: []string{"address"},
	}
	_, _, err := Import("Root", s)
	require.Error(t, err)
}

func TestImportAnyOfBecomesUnion(t *testing.T) {
	s := &jsonschema.Schema{
		AnyOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "integer"},
		},
	}
	d, _, err := Import("Root", s)
	require.NoError(t, err)
	require.Equal(t, model.KindUnion, d.Kind)
	require.Len(t, d.Variants, 2)
}

func TestImportSingleAlternativeUnionCollapses(t *testing.T) {
	s := &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
		},
	}
	d, _, err := Import("Root", s)
	require.NoError(t, err)
	assert.Equal(t, model.KindPrimitive, d.Kind)
	assert.Equal(t, model.PrimString, d.Primitive)
}

func TestImportEnumMapsToStringPrimitive(t *testing.T) {
	s := &jsonschema.Schema{Enum: []any{"red", "green", "blue"}}
	d, _, err := Import("Root", s)
	require.NoError(t, err)
	assert.Equal(t, model.KindPrimitive, d.Kind)
	assert.Equal(t, model.PrimString, d.Primitive)
}

func TestImportInstantiatorReturnsMapUnchanged(t *testing.T) {
	_, inst, err := Import("Root", &jsonschema.Schema{Type: "object"})
	require.NoError(t, err)

	fields := map[string]any{"title": "x"}
	out, err := inst.Instantiate(nil, fields)
	require.NoError(t, err)
	assert.Equal(t, fields, out)

	_, ok := inst.InstantiatePartial(nil, fields)
	assert.False(t, ok)
	assert.False(t, inst.UpdatePartial(nil, fields))

	_, err = inst.Describe("anything")
	require.Error(t, err)
}
