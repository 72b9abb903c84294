package jsontree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_KeepsKeyOrder(t *testing.T) {
	n, err := Parse([]byte(`{"b":1,"a":{"z":true,"y":null},"c":[1,"x"]}`))
	require.NoError(t, err)
	require.Equal(t, Object, n.Kind)

	keys := make([]string, 0, len(n.Members))
	for _, m := range n.Members {
		keys = append(keys, m.Key)
	}
	require.Equal(t, []string{"b", "a", "c"}, keys)

	a, ok := n.Get("a")
	require.True(t, ok)
	require.Equal(t, "z", a.Members[0].Key)
	require.True(t, a.Members[1].Value.IsNull())

	c, _ := n.Get("c")
	require.Len(t, c.Items, 2)
	require.Equal(t, "x", c.Items[1].Text)
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{``, `{`, `{"a":}`, `[1,2`, `{"a":1} {"b":2}`, `<html>`} {
		_, err := Parse([]byte(in))
		require.ErrorIs(t, err, ErrMalformed, in)
	}
}

func TestFind(t *testing.T) {
	daytime := NewAliases("daytime", "isday", "day")

	tests := []struct {
		name   string
		doc    string
		want   Node
		wantOK bool
	}{
		{"flat", `{"isDay":true}`, BoolNode(true), true},
		{"nested", `{"status":{"world":{"day_time":false}}}`, BoolNode(false), true},
		{"in_array", `{"list":[{"x":1},{"Is-Day":1}]}`, NumberNode(1), true},
		{"direct_hit_before_children", `{"world":{"day":0},"isday":true}`, BoolNode(true), true},
		{"first_child_wins", `{"a":{"day":"a"},"b":{"day":"b"}}`, StringNode("a"), true},
		{"null_is_silence", `{"day":null,"w":{"isday":true}}`, BoolNode(true), true},
		{"missing", `{"night":true,"list":[1,2,{"x":"day"}]}`, Node{}, false},
		{"scalar_root", `42`, Node{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, err := Parse([]byte(tc.doc))
			require.NoError(t, err)
			got, ok := Find(n, daytime)
			require.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestFind_AnyDepth(t *testing.T) {
	aliases := NewAliases("target")
	n := NumberNode(7)
	for depth := 0; depth < 50; depth++ {
		if depth%2 == 0 {
			n = ObjectNode(Field("other", StringNode("x")), Field("k", n))
		} else {
			n = ArrayNode(NullNode(), n)
		}
		if depth == 10 {
			n = ObjectNode(Field("TARGET", n))
		}
	}
	got, ok := Find(n, aliases)
	require.True(t, ok)
	require.NotEqual(t, Null, got.Kind)

	_, ok = Find(ArrayNode(ObjectNode(Field("nope", n))), NewAliases("missing"))
	require.False(t, ok)
}

func TestCoercions(t *testing.T) {
	f, ok := BoolNode(true).AsFloat()
	require.True(t, ok)
	require.Equal(t, 1.0, f)
	_, ok = StringNode("3").AsFloat()
	require.False(t, ok)

	require.True(t, StringNode(" Day ").AsTruth())
	require.True(t, StringNode("hardmode").AsTruth())
	require.False(t, StringNode("night").AsTruth())
	require.True(t, NumberNode(2).AsTruth())
	require.False(t, ObjectNode().AsTruth())
}

func TestObjectList(t *testing.T) {
	top, _ := Parse([]byte(`[{"name":"a"},3,{"name":"b"}]`))
	require.Len(t, ObjectList(top, "players"), 2)

	named, _ := Parse([]byte(`{"count":2,"data":[{"name":"a"}],"players":[{"name":"b"},{"name":"c"}]}`))
	require.Len(t, ObjectList(named, "players", "data"), 2)
	require.Len(t, ObjectList(named, "data", "players"), 1)
	require.Nil(t, ObjectList(named, "missing"))
	require.Nil(t, ObjectList(StringNode("x"), "players"))
}

func TestFirstText(t *testing.T) {
	n, _ := Parse([]byte(`{"id":0,"index":"","name":"Chest A","type":12}`))
	s, ok := n.FirstText("id", "index", "name")
	require.True(t, ok)
	require.Equal(t, "Chest A", s)

	s, ok = n.FirstText("id", "type")
	require.True(t, ok)
	require.Equal(t, "12", s)
}
