package settings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMappingPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	m := NewMapping()
	assert.False(t, m.Set("b", 1))
	assert.False(t, m.Set("a", 2))
	assert.True(t, m.Set("b", 3))

	assert.Equal(t, []string{"b", "a"}, m.Keys())
	assert.Equal(t, 2, m.Len())

	v, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"b":3,"a":2}`, string(data))
}

func TestMappingZeroValue(t *testing.T) {
	t.Parallel()

	var m Mapping
	m.Set("key", "value")
	assert.Equal(t, []string{"key"}, m.Keys())

	var nilMapping *Mapping
	assert.Equal(t, 0, nilMapping.Len())
	assert.Nil(t, nilMapping.Clone())
	_, ok := nilMapping.Get("key")
	assert.False(t, ok)
}

func TestMappingCloneIsDeep(t *testing.T) {
	t.Parallel()

	nested := NewMapping()
	nested.Set("inner", "original")

	m := NewMapping()
	m.Set("list", []string{"a", "b"})
	m.Set("nested", nested)

	cp := m.Clone()
	list, _ := cp.Get("list")
	list.([]string)[0] = "mutated"
	inner, _ := cp.Get("nested")
	inner.(*Mapping).Set("inner", "mutated")

	origList, _ := m.Get("list")
	assert.Equal(t, []string{"a", "b"}, origList)
	v, _ := nested.Get("inner")
	assert.Equal(t, "original", v)
}

func TestMappingYAMLRoundTripKeepsOrder(t *testing.T) {
	t.Parallel()

	src := []byte(`
zeta: 1
alpha:
  second: true
  first: [x, y]
mid: text
`)
	m := NewMapping()
	require.NoError(t, yaml.Unmarshal(src, m))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())

	alpha, _ := m.Get("alpha")
	nested, ok := alpha.(*Mapping)
	require.True(t, ok)
	assert.Equal(t, []string{"second", "first"}, nested.Keys())

	out, err := yaml.Marshal(m)
	require.NoError(t, err)
	again := NewMapping()
	require.NoError(t, yaml.Unmarshal(out, again))
	assert.Equal(t, m.Keys(), again.Keys())

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":{"second":true,"first":["x","y"]},"mid":"text"}`, string(data))
}

func TestMappingUnmarshalRejectsNonMapping(t *testing.T) {
	t.Parallel()

	m := NewMapping()
	err := yaml.Unmarshal([]byte("- a\n- b\n"), m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sequence")
}
