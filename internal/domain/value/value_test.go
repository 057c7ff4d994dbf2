package value

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/pesto/internal/domain"
)

func mustParseObject(t *testing.T, src string) *Object {
	t.Helper()
	v, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Equal(t, KindObject, v.Kind())
	return v.Object()
}

func TestParse_Kinds(t *testing.T) {
	tests := []struct {
		src  string
		kind Kind
		text string
	}{
		{`"hello"`, KindString, "hello"},
		{`150`, KindNumber, "150"},
		{`1.50`, KindNumber, "1.50"},
		{`true`, KindBool, "true"},
		{`null`, KindNull, ""},
		{`[1,"a"]`, KindList, `[1,"a"]`},
		{`{"b":1,"a":2}`, KindObject, `{"b":1,"a":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := Parse([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.text, v.Text())
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, src := range []string{"", "post.html", `{"a":`, "1 2"} {
		_, err := Parse([]byte(src))
		assert.Error(t, err, "src=%q", src)
	}
}

func TestObject_PreservesOrderAndPosition(t *testing.T) {
	obj := mustParseObject(t, `{"z":1,"a":2,"m":3}`)
	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys())

	obj.Set("a", String("x"))
	obj.Set("b", Bool(true))
	assert.Equal(t, []string{"z", "a", "m", "b"}, obj.Keys())

	obj.Delete("z")
	assert.Equal(t, []string{"a", "m", "b"}, obj.Keys())

	got, err := obj.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","m":3,"b":true}`, string(got))
}

func TestObject_DuplicateKeyLastWins(t *testing.T) {
	obj := mustParseObject(t, `{"a":1,"b":2,"a":3}`)
	assert.Equal(t, []string{"a", "b"}, obj.Keys())
	v, _ := obj.Get("a")
	assert.Equal(t, "3", v.Text())
}

func TestObject_CloneIsIndependent(t *testing.T) {
	obj := mustParseObject(t, `{"a":1}`)
	c := obj.Clone()
	c.Set("b", Null())
	assert.False(t, obj.Has("b"))
	assert.True(t, c.Has("b"))
}

func TestValue_NativeAndEqual(t *testing.T) {
	obj := mustParseObject(t, `{"n":2,"s":"x","l":[true,null],"o":{"k":"v"}}`)
	native := obj.Native()
	assert.Equal(t, int64(2), native["n"])
	assert.Equal(t, "x", native["s"])
	assert.Equal(t, []any{true, nil}, native["l"])
	assert.Equal(t, map[string]any{"k": "v"}, native["o"])

	other := mustParseObject(t, `{"o":{"k":"v"},"l":[true,null],"s":"x","n":2.0}`)
	assert.True(t, obj.Equal(other))
	other.Set("n", Number(3))
	assert.False(t, obj.Equal(other))
}

func TestValue_NativeNumbers(t *testing.T) {
	obj := mustParseObject(t, `{"ts":1700000000000,"views":12345678,"price":19.99,"neg":-3,"big":12345678.5}`)
	native := obj.Native()
	assert.Equal(t, int64(1700000000000), native["ts"])
	assert.Equal(t, int64(12345678), native["views"])
	assert.Equal(t, int64(-3), native["neg"])
	assert.Equal(t, Decimal(19.99), native["price"])
	assert.Equal(t, "12345678.5", fmt.Sprint(native["big"]))
}

func TestParse_OutOfRangeNumberKeepsLiteral(t *testing.T) {
	v, err := Parse([]byte(`{"big":1e400,"tiny":1e-400}`))
	require.NoError(t, err)

	big, ok := v.Object().Get("big")
	require.True(t, ok)
	assert.Equal(t, KindNumber, big.Kind())
	assert.Equal(t, "1e400", big.Text())
	assert.Equal(t, "1e400", big.Native())

	tiny, ok := v.Object().Get("tiny")
	require.True(t, ok)
	assert.Equal(t, "1e-400", tiny.Text())
}

func TestDecodeDump(t *testing.T) {
	docs, err := DecodeDump(strings.NewReader(`[{"id":"1","title":"<a & b>"},{"id":"2"}]`))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	var buf bytes.Buffer
	require.NoError(t, EncodeDump(&buf, docs))
	assert.Equal(t, "[\n  {\n    \"id\": \"1\",\n    \"title\": \"<a & b>\"\n  },\n  {\n    \"id\": \"2\"\n  }\n]\n", buf.String())
}

func TestDecodeDump_RejectsNonObjects(t *testing.T) {
	_, err := DecodeDump(strings.NewReader(`{"id":1}`))
	assert.ErrorContains(t, err, "expected a JSON array")

	_, err = DecodeDump(strings.NewReader(`[{"id":1}, 2]`))
	assert.ErrorContains(t, err, "item 1")
}

func TestObject_MarshalYAMLKeepsOrder(t *testing.T) {
	obj := mustParseObject(t, `{"title":"Hello","date":"2024-01-02","draft":false,"views":10,"tags":["a","true"]}`)
	out, err := yaml.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, "title: Hello\ndate: \"2024-01-02\"\ndraft: false\nviews: 10\ntags:\n    - a\n    - \"true\"\n", string(out))
}

func TestResolve(t *testing.T) {
	doc := mustParseObject(t, `{"a":{"b":{"c":1}},"l":[{"x":1}],"n":null}`)

	v, err := Resolve(doc, "a.b.c", "")
	require.NoError(t, err)
	assert.Equal(t, "1", v.Text())

	v, err = Resolve(doc, "n", ".")
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	v, err = Resolve(doc, "a/b", "/")
	require.NoError(t, err)
	assert.Equal(t, KindObject, v.Kind())

	for _, path := range []string{"missing", "a.x", "a.b.c.d", "l.0.x", "n.x"} {
		_, err := Resolve(doc, path, ".")
		assert.ErrorIs(t, err, domain.ErrPathNotFound, "path=%s", path)
	}
}
