package post

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleAddsThenRemoves(t *testing.T) {
	r := EmptyReactions()

	r = r.Toggle(ReactionLike, "alice")
	assert.True(t, r.Has(ReactionLike, "alice"))
	assert.Len(t, r.Like, 1)

	r = r.Toggle(ReactionLike, "alice")
	assert.False(t, r.Has(ReactionLike, "alice"))
	assert.Empty(t, r.Like)
}

func TestToggleKindsAreIndependent(t *testing.T) {
	r := EmptyReactions().Toggle(ReactionLike, "alice").Toggle(ReactionLove, "alice")

	assert.True(t, r.Has(ReactionLike, "alice"))
	assert.True(t, r.Has(ReactionLove, "alice"))
	assert.False(t, r.Has(ReactionHaha, "alice"))

	r = r.Toggle(ReactionLike, "alice")
	assert.False(t, r.Has(ReactionLike, "alice"))
	assert.True(t, r.Has(ReactionLove, "alice"))
}

func TestToggleDoesNotMutateReceiver(t *testing.T) {
	orig := Reactions{Like: []string{"bob"}}
	_ = orig.Toggle(ReactionLike, "alice")
	assert.Equal(t, []string{"bob"}, orig.Like)
}

func TestParseReactionKind(t *testing.T) {
	k, err := ParseReactionKind("haha")
	require.NoError(t, err)
	assert.Equal(t, ReactionHaha, k)

	_, err = ParseReactionKind("angry")
	assert.Error(t, err)
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) int64 { return now.Add(-d).UnixMilli() }

	assert.Equal(t, "Just now", FormatAge(at(30*time.Second), now))
	assert.Equal(t, "5m ago", FormatAge(at(5*time.Minute), now))
	assert.Equal(t, "59m ago", FormatAge(at(59*time.Minute+59*time.Second), now))
	assert.Equal(t, "3h ago", FormatAge(at(3*time.Hour), now))
	assert.Equal(t, "2026-03-08", FormatAge(at(48*time.Hour), now))
}

func TestNormalizeAndClone(t *testing.T) {
	p := &Post{ID: "p1"}
	p.Normalize()
	assert.Equal(t, []string{}, p.Reactions.Like)
	assert.Equal(t, []Comment{}, p.Comments)

	img := "data:image/png;base64,AAAA"
	p.Image = &img
	p.Reactions.Like = []string{"alice"}
	c := p.Clone()
	c.Reactions.Like[0] = "mallory"
	*c.Image = "changed"
	assert.Equal(t, "alice", p.Reactions.Like[0])
	assert.Equal(t, "data:image/png;base64,AAAA", *p.Image)
}
