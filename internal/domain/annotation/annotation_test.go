package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello @private=true world", "hello  world"},
		{"hello @private world #kept", "hello  world #kept"},
		{"@a @b=\"x y\" end", "  end"},
		{"keep #tag +prio ++high -low ~maybe ?q !todo=2", "keep #tag +prio ++high -low ~maybe ?q !todo=2"},
		{"score @rank=-1.5 done", "score  done"},
		{"café @réservé ok", "café  ok"},
		{"no tags at all", "no tags at all"},
		{"@dup and @dup again", " and  again"},
		{"x @[y] @_z @^a @`b", "x @[y]  @^a @`b"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Strip(tt.in))
		})
	}
}

func TestFind(t *testing.T) {
	tags := Find(`#go ++urgent @due=2024-01-02 !flag=true @note="a b" ?ns:key-x`)
	require.Len(t, tags, 6)

	assert.Equal(t, Tag{Marker: "#", Name: "go", Raw: "#go"}, tags[0])
	assert.Equal(t, Tag{Marker: "++", Name: "urgent", Raw: "++urgent"}, tags[1])
	assert.Equal(t, "@", tags[2].Marker)
	assert.Equal(t, "due", tags[2].Name)
	assert.Equal(t, "2024-01-02", tags[2].Value)
	assert.True(t, tags[2].Private())
	assert.Equal(t, "true", tags[3].Value)
	assert.False(t, tags[3].Private())
	assert.Equal(t, `"a b"`, tags[4].Value)
	assert.Equal(t, "ns:key-x", tags[5].Name)
}

func TestFind_MarkerRepeatLimit(t *testing.T) {
	tags := Find("++++++six")
	require.Len(t, tags, 1)
	assert.Equal(t, "+++++", tags[0].Marker)
	assert.Equal(t, "+++++six", tags[0].Raw)
}
