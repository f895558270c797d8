package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLabelTable(t *testing.T) {
	tbl := DefaultLabelTable(false)
	assert.Equal(t, 8, tbl.Len())
	assert.Equal(t, 8, tbl.Classes())
	assert.False(t, tbl.HasUnknown())
	assert.Equal(t, "MEL", tbl.Name(0))
	assert.Equal(t, "SCC", tbl.Name(7))
	assert.Equal(t, "class_8", tbl.Name(8))

	withUnknown := DefaultLabelTable(true)
	assert.Equal(t, 9, withUnknown.Len())
	assert.Equal(t, 8, withUnknown.Classes())
	assert.Equal(t, UnknownLabel, withUnknown.Name(8))

	idx, ok := withUnknown.Index("VASC")
	assert.True(t, ok)
	assert.Equal(t, 6, idx)
	_, ok = withUnknown.Index("XYZ")
	assert.False(t, ok)
}

func TestNewLabelTable_Errors(t *testing.T) {
	tests := []struct {
		name    string
		labels  []string
		unknown bool
	}{
		{"empty", nil, false},
		{"blank_name", []string{"MEL", ""}, false},
		{"duplicate", []string{"MEL", "MEL"}, false},
		{"reserved_unknown", []string{"MEL", UnknownLabel}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLabelTable(tt.labels, tt.unknown)
			assert.Error(t, err)
		})
	}
}

func TestLabelTable_NamesIsCopy(t *testing.T) {
	tbl, err := NewLabelTable([]string{"a", "b"}, false)
	require.NoError(t, err)
	names := tbl.Names()
	names[0] = "z"
	assert.Equal(t, "a", tbl.Name(0))
}

func TestLabelTable_ZeroValue(t *testing.T) {
	var tbl LabelTable
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, "class_2", tbl.Name(2))
}
