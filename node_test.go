package treestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeOf_Classification(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		branch bool
	}{
		{"string", "bazz", false},
		{"number", 1.5, false},
		{"bool", true, false},
		{"null", nil, false},
		{"array", []any{1.0, 2.0}, false},
		{"empty array", []any{}, false},
		{"object", map[string]any{"a": 1.0}, true},
		{"empty object", map[string]any{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NodeOf(tt.value, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.branch, n.IsBranch())
			if tt.branch {
				assert.Equal(t, KindBranch, n.Kind())
			} else {
				assert.Equal(t, KindLeaf, n.Kind())
				assert.Nil(t, n.Children())
			}
		})
	}
}

func TestNodeOf_Nested(t *testing.T) {
	n, err := NodeOf(map[string]any{
		"a": map[string]any{"b": 1.0},
		"c": []any{map[string]any{"d": "e"}},
	}, 0)
	require.NoError(t, err)

	require.True(t, n.IsBranch())
	a := n.Children()["a"]
	assert.True(t, a.IsBranch())
	assert.Equal(t, 1.0, a.Children()["b"].LeafValue())

	// objects inside arrays stay part of the array literal
	c := n.Children()["c"]
	assert.False(t, c.IsBranch())
	assert.Equal(t, []any{map[string]any{"d": "e"}}, c.LeafValue())
}

func TestNodeOf_NormalizesGoValues(t *testing.T) {
	type server struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	}

	n, err := NodeOf(map[string]any{
		"srv":   server{Host: "h", Port: 80},
		"ports": []int{1, 2},
		"count": 3,
		"tags":  map[string]string{"env": "prod"},
	}, 0)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"srv":   map[string]any{"host": "h", "port": 80.0},
		"ports": []any{1.0, 2.0},
		"count": 3.0,
		"tags":  map[string]any{"env": "prod"},
	}, n.Value())
	assert.True(t, n.Children()["srv"].IsBranch())
}

func TestNodeOf_Unencodable(t *testing.T) {
	_, err := NodeOf(map[string]any{"ch": make(chan int)}, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNodeOf_TooDeep(t *testing.T) {
	v := map[string]any{}
	cur := v
	for i := 0; i < 10; i++ {
		next := map[string]any{}
		cur["n"] = next
		cur = next
	}

	_, err := NodeOf(v, 5)
	assert.ErrorIs(t, err, ErrTooDeep)

	_, err = NodeOf(v, 20)
	assert.NoError(t, err)
}

func TestNodeOf_Cycle(t *testing.T) {
	v := map[string]any{}
	v["self"] = v

	_, err := NodeOf(v, 0)
	assert.ErrorIs(t, err, ErrTooDeep)
}

func TestNodeOf_PassesNodeThrough(t *testing.T) {
	leaf := Leaf("x")
	n, err := NodeOf(leaf, 0)
	require.NoError(t, err)
	assert.Equal(t, leaf, n)
}

func TestNode_ValueIsCopy(t *testing.T) {
	n, err := NodeOf(map[string]any{"list": []any{1.0}}, 0)
	require.NoError(t, err)

	v := n.Value().(map[string]any)
	v["list"].([]any)[0] = 99.0
	v["extra"] = true

	assert.Equal(t, map[string]any{"list": []any{1.0}}, n.Value())
}

func TestBranch_NilChildren(t *testing.T) {
	n := Branch(nil)
	assert.True(t, n.IsBranch())
	assert.Equal(t, map[string]any{}, n.Value())
	assert.Equal(t, "branch", n.Kind().String())
	assert.Equal(t, "leaf", Leaf(nil).Kind().String())
}
