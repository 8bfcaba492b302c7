package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"saadSocialAPI/internal/message"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func replying(text string, err error) (*mockGenerator, *Advisor) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return(text, err)
	return gen, NewAdvisor(gen, "", "")
}

func TestSmartReplyMalformedResponseFallsBack(t *testing.T) {
	_, a := replying("Sure! Here are some replies: hi, hello", nil)
	assert.Equal(t, []string{"Hey there!", "How's it going?", "Good to see you!"}, a.SmartReply(context.Background(), "ctx", "hi"))
}

func TestSmartReplyErrorFallsBack(t *testing.T) {
	_, a := replying("", errors.New("quota exceeded"))
	assert.Equal(t, FallbackReplies(), a.SmartReply(context.Background(), "ctx", "hi"))
}

func TestSmartReplyParsesList(t *testing.T) {
	gen, a := replying(`["Hi!", "Sounds good", "See you"]`, nil)

	replies := a.SmartReply(context.Background(), "we met. it was fun", "see you tomorrow?")
	assert.Equal(t, []string{"Hi!", "Sounds good", "See you"}, replies)

	req := gen.Calls[0].Arguments.Get(1).(Request)
	assert.True(t, req.StringList)
	assert.Equal(t, DefaultModel, req.Model)
	assert.Contains(t, req.Contents[0].Parts[0].Text, `Last message: "see you tomorrow?"`)
	assert.Contains(t, req.Contents[0].Parts[0].Text, "Context of conversation: we met. it was fun")
}

func TestSmartReplyEmptyResponseIsEmptyList(t *testing.T) {
	_, a := replying("  ", nil)
	replies := a.SmartReply(context.Background(), "", "hi")
	assert.NotNil(t, replies)
	assert.Empty(t, replies)
}

func TestDisabledGeneratorUsesFallbacks(t *testing.T) {
	a := NewAdvisor(nil, "", "")
	ctx := context.Background()

	assert.Equal(t, FallbackReplies(), a.SmartReply(ctx, "", "hi"))
	assert.Equal(t, SummaryFailed, a.SummarizeChat(ctx, []string{"Me: hi"}))
	assert.Equal(t, "my draft", a.SuggestCaption(ctx, "my draft", nil))
	assert.Equal(t, AdviceFailed, a.DailyAdvice(ctx, "Cairo", "Clear sky", 30))
	assert.Equal(t, AssistantDown, a.AssistantReply(ctx, nil, "hello"))
}

func TestEmptyResponses(t *testing.T) {
	_, a := replying("", nil)
	ctx := context.Background()

	assert.Equal(t, NoSummary, a.SummarizeChat(ctx, []string{"Me: hi"}))
	assert.Equal(t, "draft", a.SuggestCaption(ctx, "draft", nil))
	assert.Equal(t, AdviceEmpty, a.DailyAdvice(ctx, "Cairo", "Clear sky", 30))
	assert.Equal(t, AssistantEmpty, a.AssistantReply(ctx, nil, "hello"))
}

func TestSuggestCaptionWithImage(t *testing.T) {
	gen, a := replying("Golden hour vibes", nil)
	img := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))

	assert.Equal(t, "Golden hour vibes", a.SuggestCaption(context.Background(), "sunset", &img))

	req := gen.Calls[0].Arguments.Get(1).(Request)
	require.Len(t, req.Contents[0].Parts, 2)
	assert.Contains(t, req.Contents[0].Parts[0].Text, "'sunset'")
	assert.Equal(t, "image/png", req.Contents[0].Parts[1].MIMEType)
	assert.Equal(t, []byte("png-bytes"), req.Contents[0].Parts[1].Data)
}

func TestSuggestCaptionEmptyDraftSkipsModel(t *testing.T) {
	gen, a := replying("unused", nil)
	assert.Equal(t, "", a.SuggestCaption(context.Background(), "", nil))
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestAssistantReplyDropsLeadingGreeting(t *testing.T) {
	gen, a := replying("Happy to help 😊", nil)
	history := []Turn{
		{Role: RoleModel, Text: AssistantGreeting("Alice")},
		{Role: RoleUser, Text: "How do I add friends?"},
		{Role: RoleModel, Text: "Use Discovery."},
	}

	assert.Equal(t, "Happy to help 😊", a.AssistantReply(context.Background(), history, "Thanks!"))

	req := gen.Calls[0].Arguments.Get(1).(Request)
	assert.Equal(t, DefaultAssistantModel, req.Model)
	assert.Equal(t, assistantInstruction, req.System)
	require.Len(t, req.Contents, 3)
	assert.Equal(t, RoleUser, req.Contents[0].Role)
	assert.Equal(t, "How do I add friends?", req.Contents[0].Parts[0].Text)
	assert.Equal(t, "Thanks!", req.Contents[2].Parts[0].Text)
}

func TestAssistantGreeting(t *testing.T) {
	assert.Equal(t, "Hi Alice! I'm Gemini, your Saad Social Assistant. How can I help you today?", AssistantGreeting("Alice"))
}

func textMsg(sender, receiver, s string) *message.Message {
	return &message.Message{SenderID: sender, ReceiverID: receiver, Text: &s}
}

func TestReplyContextUsesLastFiveTexts(t *testing.T) {
	img := "data:image/png;base64,AA=="
	msgs := []*message.Message{
		textMsg("a", "b", "one"),
		textMsg("b", "a", "two"),
		textMsg("a", "b", "three"),
		{SenderID: "b", ReceiverID: "a", Image: &img},
		textMsg("a", "b", "four"),
		textMsg("b", "a", "five"),
	}
	assert.Equal(t, "two. three. four. five", ReplyContext(msgs))
}

func TestSummaryLines(t *testing.T) {
	msgs := []*message.Message{
		textMsg("me", "bob", "hi"),
		textMsg("bob", "me", "hey"),
	}
	assert.Equal(t, []string{"Me: hi", "Bob: hey"}, SummaryLines(msgs, "me", "Bob"))
}

func TestWantsSuggestions(t *testing.T) {
	assert.False(t, WantsSuggestions(nil, "bob"))
	assert.True(t, WantsSuggestions([]*message.Message{textMsg("bob", "me", "hi")}, "bob"))
	assert.False(t, WantsSuggestions([]*message.Message{textMsg("me", "bob", "hi")}, "bob"))
	audio := "data:audio/webm;base64,AA=="
	assert.False(t, WantsSuggestions([]*message.Message{{SenderID: "bob", Audio: &audio}}, "bob"))
}

func TestDecodeDataURL(t *testing.T) {
	mime, data, err := DecodeDataURL("data:;base64," + base64.StdEncoding.EncodeToString([]byte("x")))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, []byte("x"), data)

	_, _, err = DecodeDataURL("https://example.com/a.png")
	assert.Error(t, err)

	_, _, err = DecodeDataURL("data:image/png;base64,!!!")
	assert.Error(t, err)
}
