package message

import (
	"slices"
	"strings"
)

// Message is directional: exactly one sender and one receiver.
type Message struct {
	ID         string  `json:"id" firestore:"-"`
	SenderID   string  `json:"senderId" firestore:"senderId"`
	ReceiverID string  `json:"receiverId" firestore:"receiverId"`
	Text       *string `json:"text" firestore:"text"`
	Image      *string `json:"image" firestore:"image"`
	Audio      *string `json:"audio" firestore:"audio"`
	Timestamp  int64   `json:"timestamp" firestore:"timestamp"`
	Read       bool    `json:"read" firestore:"read"`
}

func (m *Message) Clone() *Message {
	c := *m
	c.Text = cloneString(m.Text)
	c.Image = cloneString(m.Image)
	c.Audio = cloneString(m.Audio)
	return &c
}

func (m *Message) HasText() bool {
	return m.Text != nil && strings.TrimSpace(*m.Text) != ""
}

// Between reports whether m was exchanged by u1 and u2 in either direction.
func (m *Message) Between(u1, u2 string) bool {
	return (m.SenderID == u1 && m.ReceiverID == u2) || (m.SenderID == u2 && m.ReceiverID == u1)
}

// Conversation keeps the messages exchanged by u1 and u2 and orders them by
// timestamp ascending. Ties keep their input order.
func Conversation(msgs []*Message, u1, u2 string) []*Message {
	out := make([]*Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Between(u1, u2) {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b *Message) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	})
	return out
}

// UnreadBySender counts unread messages per sender. Every call builds a
// fresh map from the full snapshot.
func UnreadBySender(msgs []*Message) map[string]int {
	counts := make(map[string]int)
	for _, m := range msgs {
		if !m.Read {
			counts[m.SenderID]++
		}
	}
	return counts
}

func Total(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

// NonEmpty returns p when it points at a non-blank string, nil otherwise.
func NonEmpty(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}

type SendMessageRequest struct {
	ReceiverID string  `json:"receiverId" validate:"required"`
	Text       *string `json:"text,omitempty" validate:"omitempty,max=5000"`
	Image      *string `json:"image,omitempty"`
	Audio      *string `json:"audio,omitempty"`
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}
