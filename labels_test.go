package yoloconv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestLabelFieldLabel(t *testing.T) {
	full := InstanceRecord{
		Superclass: strPtr("building"),
		Class:      strPtr("house_north_america"),
		Subclass:   strPtr("medium"),
	}

	tests := []struct {
		field LabelField
		inst  InstanceRecord
		want  string
	}{
		{LabelClass, full, "house_north_america"},
		{LabelSubclass, full, "medium"},
		{LabelSuperclass, full, "building"},
		{LabelClassSubclass, full, "house_north_america/medium"},
		{LabelPath, full, "building/house_north_america/medium"},
		{LabelPath, InstanceRecord{Class: strPtr("tree"), Subclass: strPtr("")}, "tree"},
		{LabelPath, InstanceRecord{Superclass: strPtr("vegetation"), Class: strPtr("tree")},
			"vegetation/tree"},
		{LabelClass, InstanceRecord{Class: strPtr("")}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.field.String()+"/"+tt.want, func(t *testing.T) {
			got, err := tt.field.Label(tt.inst, DefaultLabelSeparator)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLabelFieldCustomSeparator(t *testing.T) {
	inst := InstanceRecord{Class: strPtr("house"), Subclass: strPtr("medium")}
	got, err := LabelClassSubclass.Label(inst, ":")
	require.NoError(t, err)
	assert.Equal(t, "house:medium", got)
}

func TestLabelFieldMissing(t *testing.T) {
	tests := []struct {
		field     LabelField
		inst      InstanceRecord
		wantField string
	}{
		{LabelClass, InstanceRecord{Subclass: strPtr("medium")}, "class"},
		{LabelSubclass, InstanceRecord{Class: strPtr("house")}, "subclass"},
		{LabelSuperclass, InstanceRecord{Class: strPtr("house")}, "superclass"},
		{LabelClassSubclass, InstanceRecord{Class: strPtr("house")}, "subclass"},
		{LabelPath, InstanceRecord{Class: strPtr("")}, "superclass/class/subclass"},
	}

	for _, tt := range tests {
		t.Run(tt.field.String(), func(t *testing.T) {
			tt.inst.Index = 7
			_, err := tt.field.Label(tt.inst, DefaultLabelSeparator)
			require.ErrorIs(t, err, ErrMissingField)

			var ie *ItemError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.wantField, ie.Field)
			assert.Equal(t, 7, ie.Instance)
		})
	}
}

func TestParseLabelField(t *testing.T) {
	for _, name := range []string{"class", "subclass", "superclass", "class_subclass", "path"} {
		f, err := ParseLabelField(name)
		require.NoError(t, err)
		assert.Equal(t, name, f.String())
	}

	_, err := ParseLabelField("category")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLabelMappings(t *testing.T) {
	m, err := ParseLabelMappings([]string{"house_north_america=house", "house=building"})
	require.NoError(t, err)

	assert.Equal(t, "building", m.Apply("house_north_america"))
	assert.Equal(t, "tree", m.Apply("tree"))

	var none LabelMappings
	assert.Equal(t, "tree", none.Apply("tree"))

	_, err = ParseLabelMappings([]string{"no-separator"})
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = ParseLabelMappings([]string{"=empty"})
	assert.ErrorIs(t, err, ErrConfiguration)
}
