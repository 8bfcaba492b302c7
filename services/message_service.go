package services

import (
	"context"

	"saadSocialAPI/internal/apperr"
	"saadSocialAPI/internal/message"
	"saadSocialAPI/internal/store"
)

// SendMessage stores an unread message. At least one of text, image or
// audio must be non-empty.
func (s *DataService) SendMessage(ctx context.Context, senderID, receiverID string, text, image, audio *string) (string, error) {
	text, image, audio = message.NonEmpty(text), message.NonEmpty(image), message.NonEmpty(audio)
	if text == nil && image == nil && audio == nil {
		return "", apperr.ErrEmptyContent
	}
	m := &message.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Image:      image,
		Audio:      audio,
		Timestamp:  s.now().UnixMilli(),
		Read:       false,
	}
	id, err := s.messages.Create(ctx, m)
	if err != nil {
		return "", backendWrite("could not send message", err)
	}
	return id, nil
}

// MarkMessagesAsRead flips every unread senderID → receiverID message in one
// batch. With nothing unread it performs no write at all.
func (s *DataService) MarkMessagesAsRead(ctx context.Context, receiverID, senderID string) error {
	ids, err := s.messages.FindUnread(ctx, receiverID, senderID)
	if err != nil {
		return backendRead("could not query unread messages", err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.messages.MarkRead(ctx, ids); err != nil {
		return backendWrite("could not mark messages read", err)
	}
	return nil
}

// SubscribeToMessages watches every message sent by u1 or u2 and keeps the
// ones between the two, oldest first. Any message of the pair has one of
// them as sender, so the single sender query covers both directions.
func (s *DataService) SubscribeToMessages(ctx context.Context, u1, u2 string, cb func([]*message.Message)) (store.Unsubscribe, error) {
	unsub, err := s.messages.WatchBySenders(ctx, []string{u1, u2}, func(msgs []*message.Message) {
		cb(message.Conversation(msgs, u1, u2))
	})
	if err != nil {
		return nil, backendRead("could not watch conversation", err)
	}
	return s.track(unsub), nil
}

// SubscribeToAllUnread delivers a freshly built senderId → count map on
// every change to userID's unread messages.
func (s *DataService) SubscribeToAllUnread(ctx context.Context, userID string, cb func(map[string]int)) (store.Unsubscribe, error) {
	unsub, err := s.messages.WatchUnread(ctx, userID, func(msgs []*message.Message) {
		cb(message.UnreadBySender(msgs))
	})
	if err != nil {
		return nil, backendRead("could not watch unread messages", err)
	}
	return s.track(unsub), nil
}

// Conversation reads the current thread between u1 and u2 once. It opens a
// conversation listener, takes its first snapshot and releases it.
func (s *DataService) Conversation(ctx context.Context, u1, u2 string) ([]*message.Message, error) {
	first := make(chan []*message.Message, 1)
	unsub, err := s.SubscribeToMessages(ctx, u1, u2, func(msgs []*message.Message) {
		select {
		case first <- msgs:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	defer unsub()

	select {
	case msgs := <-first:
		return msgs, nil
	case <-ctx.Done():
		return nil, apperr.Wrap(apperr.KindInternal, "error_internal", "conversation read timed out", ctx.Err())
	}
}
