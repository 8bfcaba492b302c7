package post

import (
	"fmt"
	"slices"
	"time"
)

type ReactionKind string

const (
	ReactionLike ReactionKind = "like"
	ReactionLove ReactionKind = "love"
	ReactionHaha ReactionKind = "haha"
)

func ParseReactionKind(s string) (ReactionKind, error) {
	switch k := ReactionKind(s); k {
	case ReactionLike, ReactionLove, ReactionHaha:
		return k, nil
	}
	return "", fmt.Errorf("unknown reaction kind %q", s)
}

// Reactions holds one independent toggle set per kind; an account may be
// present in several kinds at once.
type Reactions struct {
	Like []string `json:"like" firestore:"like"`
	Love []string `json:"love" firestore:"love"`
	Haha []string `json:"haha" firestore:"haha"`
}

func EmptyReactions() Reactions {
	return Reactions{Like: []string{}, Love: []string{}, Haha: []string{}}
}

func (r Reactions) set(kind ReactionKind) []string {
	switch kind {
	case ReactionLike:
		return r.Like
	case ReactionLove:
		return r.Love
	case ReactionHaha:
		return r.Haha
	}
	return nil
}

func (r Reactions) Has(kind ReactionKind, userID string) bool {
	return slices.Contains(r.set(kind), userID)
}

// Toggle returns a copy with userID added to kind if absent, removed if
// present. The other kinds are copied unchanged.
func (r Reactions) Toggle(kind ReactionKind, userID string) Reactions {
	out := Reactions{
		Like: cloneSet(r.Like),
		Love: cloneSet(r.Love),
		Haha: cloneSet(r.Haha),
	}
	target := &out.Like
	switch kind {
	case ReactionLove:
		target = &out.Love
	case ReactionHaha:
		target = &out.Haha
	}
	if r.Has(kind, userID) {
		*target = slices.DeleteFunc(*target, func(id string) bool { return id == userID })
	} else {
		*target = append(*target, userID)
	}
	return out
}

type Comment struct {
	ID           string `json:"id" firestore:"id"`
	AuthorID     string `json:"authorId" firestore:"authorId"`
	AuthorName   string `json:"authorName" firestore:"authorName"`
	AuthorAvatar string `json:"authorAvatar" firestore:"authorAvatar"`
	Text         string `json:"text" firestore:"text"`
	Timestamp    int64  `json:"timestamp" firestore:"timestamp"`
}

// Post keeps the author's name and avatar as they were when it was written;
// later profile edits do not touch existing posts or comments.
type Post struct {
	ID           string    `json:"id" firestore:"-"`
	AuthorID     string    `json:"authorId" firestore:"authorId"`
	AuthorName   string    `json:"authorName" firestore:"authorName"`
	AuthorAvatar string    `json:"authorAvatar" firestore:"authorAvatar"`
	Text         string    `json:"text" firestore:"text"`
	Image        *string   `json:"image" firestore:"image"`
	Timestamp    int64     `json:"timestamp" firestore:"timestamp"`
	Reactions    Reactions `json:"reactions" firestore:"reactions"`
	Comments     []Comment `json:"comments" firestore:"comments"`
}

func (p *Post) Clone() *Post {
	c := *p
	if p.Image != nil {
		img := *p.Image
		c.Image = &img
	}
	c.Reactions = Reactions{Like: cloneSet(p.Reactions.Like), Love: cloneSet(p.Reactions.Love), Haha: cloneSet(p.Reactions.Haha)}
	c.Comments = slices.Clone(p.Comments)
	if c.Comments == nil {
		c.Comments = []Comment{}
	}
	return &c
}

// Normalize fills missing reaction sets and comments on decoded documents.
func (p *Post) Normalize() {
	p.Reactions = Reactions{Like: orEmpty(p.Reactions.Like), Love: orEmpty(p.Reactions.Love), Haha: orEmpty(p.Reactions.Haha)}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type CreatePostRequest struct {
	Text  string  `json:"text" validate:"max=5000"`
	Image *string `json:"image,omitempty"`
}

type ReactionRequest struct {
	Kind string `json:"kind" validate:"required,oneof=like love haha"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type CaptionRequest struct {
	Draft string  `json:"draft"`
	Image *string `json:"image,omitempty"`
}

// FormatAge renders a post or comment timestamp relative to now.
func FormatAge(ts int64, now time.Time) string {
	diff := now.Sub(time.UnixMilli(ts))
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	}
	return time.UnixMilli(ts).In(now.Location()).Format("2006-01-02")
}

func cloneSet(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
