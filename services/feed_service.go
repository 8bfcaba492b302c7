package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/apperr"
	"saadSocialAPI/internal/message"
	"saadSocialAPI/internal/post"
	"saadSocialAPI/internal/store"
)

// FeedWindow is how many of the most recent posts a feed listener reads
// before filtering to the viewer's circle.
const FeedWindow = 50

// CreatePost snapshots the author's current name and avatar onto the post.
func (s *DataService) CreatePost(ctx context.Context, author *account.Account, text string, image *string) (string, error) {
	image = message.NonEmpty(image)
	if strings.TrimSpace(text) == "" && image == nil {
		return "", apperr.ErrEmptyContent
	}
	p := &post.Post{
		AuthorID:     author.ID,
		AuthorName:   author.Name,
		AuthorAvatar: author.Avatar,
		Text:         text,
		Image:        image,
		Timestamp:    s.now().UnixMilli(),
		Reactions:    post.EmptyReactions(),
		Comments:     []post.Comment{},
	}
	id, err := s.posts.Create(ctx, p)
	if err != nil {
		return "", backendWrite("could not create post", err)
	}
	return id, nil
}

// SubscribeToFeed delivers the posts by userID or friendIDs among the
// FeedWindow most recent posts overall, newest first. A friend's post older
// than the window is absent even if it is the friend's latest.
func (s *DataService) SubscribeToFeed(ctx context.Context, userID string, friendIDs []string, cb func([]*post.Post)) (store.Unsubscribe, error) {
	allowed := append([]string{userID}, friendIDs...)
	unsub, err := s.posts.WatchRecent(ctx, FeedWindow, func(recent []*post.Post) {
		out := make([]*post.Post, 0, len(recent))
		for _, p := range recent {
			if slices.Contains(allowed, p.AuthorID) {
				out = append(out, p)
			}
		}
		cb(out)
	})
	if err != nil {
		return nil, backendRead("could not watch feed", err)
	}
	return s.track(unsub), nil
}

// OwnPosts keeps the posts written by userID, for the profile home view.
func OwnPosts(posts []*post.Post, userID string) []*post.Post {
	out := make([]*post.Post, 0, len(posts))
	for _, p := range posts {
		if p.AuthorID == userID {
			out = append(out, p)
		}
	}
	return out
}

// AddReaction toggles userID in one reaction kind. It reads the post and
// overwrites the whole reactions structure, so concurrent toggles on the
// same post can lose one another (last write wins). A missing post is a
// no-op.
func (s *DataService) AddReaction(ctx context.Context, postID, userID string, kind post.ReactionKind) error {
	p, err := s.posts.Get(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return backendRead("could not read post", err)
	}
	if err := s.posts.SetReactions(ctx, postID, p.Reactions.Toggle(kind, userID)); err != nil {
		return backendWrite("could not update reactions", err)
	}
	return nil
}

// AddComment appends with the backend's add-to-collection primitive, so
// concurrent comments do not overwrite each other.
func (s *DataService) AddComment(ctx context.Context, postID string, author *account.Account, text string) error {
	if strings.TrimSpace(text) == "" {
		return apperr.ErrEmptyContent
	}
	c := post.Comment{
		ID:           uuid.NewString(),
		AuthorID:     author.ID,
		AuthorName:   author.Name,
		AuthorAvatar: author.Avatar,
		Text:         text,
		Timestamp:    s.now().UnixMilli(),
	}
	if err := s.posts.AppendComment(ctx, postID, c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return backendRead("post not found", err)
		}
		return backendWrite("could not add comment", err)
	}
	return nil
}
