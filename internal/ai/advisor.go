package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"saadSocialAPI/internal/logger"
	"saadSocialAPI/internal/message"
)

const (
	DefaultModel          = "gemini-3-flash-preview"
	DefaultAssistantModel = "gemini-3-pro-preview"
)

const (
	NoSummary      = "No summary available."
	SummaryFailed  = "Could not generate summary."
	AdviceEmpty    = "Have a wonderful day!"
	AdviceFailed   = "Enjoy your day and stay positive! ✨"
	AssistantEmpty = "I'm sorry, I couldn't process that. Could you try again?"
	AssistantDown  = "Oops! I'm having trouble connecting right now."

	assistantInstruction = "You are the helpful AI assistant for 'Saad Social Chat', a modern real-time social networking app. Help users navigate the app, suggest conversation starters, or just chat. Be friendly, concise, and use emojis."
)

// FallbackReplies is returned whenever smart replies cannot be produced.
func FallbackReplies() []string {
	return []string{"Hey there!", "How's it going?", "Good to see you!"}
}

type Advisor struct {
	gen            Generator
	model          string
	assistantModel string
}

func NewAdvisor(gen Generator, model, assistantModel string) *Advisor {
	if gen == nil {
		gen = Disabled{}
	}
	if model == "" {
		model = DefaultModel
	}
	if assistantModel == "" {
		assistantModel = DefaultAssistantModel
	}
	return &Advisor{gen: gen, model: model, assistantModel: assistantModel}
}

func (a *Advisor) ask(ctx context.Context, req Request) (string, error) {
	if req.Model == "" {
		req.Model = a.model
	}
	return a.gen.Generate(ctx, req)
}

func (a *Advisor) SmartReply(ctx context.Context, convContext, lastMessage string) []string {
	prompt := fmt.Sprintf(`
        Context of conversation: %s
        Last message: "%s"
        Based on the context and the last message, suggest 3 short, friendly, and natural-sounding replies.
      `, convContext, lastMessage)
	text, err := a.ask(ctx, Request{
		Contents:   []Content{TextContent(RoleUser, prompt)},
		StringList: true,
	})
	if err != nil {
		logger.L().Warn("Smart reply generation failed", zap.Error(err))
		return FallbackReplies()
	}
	if strings.TrimSpace(text) == "" {
		text = "[]"
	}
	var replies []string
	if err := json.Unmarshal([]byte(text), &replies); err != nil {
		logger.L().Warn("Smart reply response is not a string list", zap.Error(err))
		return FallbackReplies()
	}
	if replies == nil {
		replies = []string{}
	}
	return replies
}

func (a *Advisor) SummarizeChat(ctx context.Context, lines []string) string {
	prompt := "Summarize the following conversation in one short sentence: \n" + strings.Join(lines, "\n")
	text, err := a.ask(ctx, Request{Contents: []Content{TextContent(RoleUser, prompt)}})
	if err != nil {
		logger.L().Warn("Chat summary generation failed", zap.Error(err))
		return SummaryFailed
	}
	if text == "" {
		return NoSummary
	}
	return text
}

// SuggestCaption rewrites draft, optionally looking at an inline image data
// URL. The draft comes back unchanged on any failure.
func (a *Advisor) SuggestCaption(ctx context.Context, draft string, image *string) string {
	var parts []Part
	if img := message.NonEmpty(image); img != nil {
		parts = append(parts, Part{Text: "Look at this image description (optional) and draft text: '" + draft + "'. Suggest a catchy social media caption for this post."})
		mime, data, err := DecodeDataURL(*img)
		if err != nil {
			logger.L().Warn("Caption image is not a data URL", zap.Error(err))
			return draft
		}
		parts = append(parts, Part{MIMEType: mime, Data: data})
	} else {
		if draft == "" {
			return draft
		}
		parts = append(parts, Part{Text: "Draft text: '" + draft + "'. Rewrite this to be more engaging for a social feed."})
	}

	text, err := a.ask(ctx, Request{Contents: []Content{{Role: RoleUser, Parts: parts}}})
	if err != nil {
		logger.L().Warn("Caption generation failed", zap.Error(err))
		return draft
	}
	if text == "" {
		return draft
	}
	return text
}

func (a *Advisor) DailyAdvice(ctx context.Context, city, condition string, temp int) string {
	prompt := fmt.Sprintf("I am at a personal social networking dashboard in %s. Current local weather is %s at %d°C. Give me one very short, helpful, and friendly sentence of lifestyle advice for today. Use a warm tone and a relevant emoji.", city, condition, temp)
	text, err := a.ask(ctx, Request{Contents: []Content{TextContent(RoleUser, prompt)}})
	if err != nil {
		logger.L().Warn("Daily advice generation failed", zap.Error(err))
		return AdviceFailed
	}
	if text == "" {
		return AdviceEmpty
	}
	return text
}

// Turn is one entry of the assistant transcript as the client holds it.
type Turn struct {
	Role Role   `json:"role" validate:"required,oneof=user model"`
	Text string `json:"text"`
}

func AssistantGreeting(name string) string {
	return fmt.Sprintf("Hi %s! I'm Gemini, your Saad Social Assistant. How can I help you today?", name)
}

// AssistantReply continues the transcript with input. A leading model turn
// (the greeting) is dropped because the model expects history to open with
// a user turn.
func (a *Advisor) AssistantReply(ctx context.Context, history []Turn, input string) string {
	contents := make([]Content, 0, len(history)+1)
	for i, t := range history {
		if i == 0 && t.Role != RoleUser {
			continue
		}
		contents = append(contents, TextContent(t.Role, t.Text))
	}
	contents = append(contents, TextContent(RoleUser, input))

	text, err := a.ask(ctx, Request{
		Model:    a.assistantModel,
		System:   assistantInstruction,
		Contents: contents,
	})
	if err != nil {
		logger.L().Warn("Assistant reply failed", zap.Error(err))
		return AssistantDown
	}
	if text == "" {
		return AssistantEmpty
	}
	return text
}

// ReplyContext joins the texts among the last five messages.
func ReplyContext(msgs []*message.Message) string {
	var texts []string
	for _, m := range tail(msgs, 5) {
		if m.HasText() {
			texts = append(texts, *m.Text)
		}
	}
	return strings.Join(texts, ". ")
}

// SummaryLines labels the texts among the last ten messages with "Me" or
// the peer's name.
func SummaryLines(msgs []*message.Message, selfID, peerName string) []string {
	var lines []string
	for _, m := range tail(msgs, 10) {
		if !m.HasText() {
			continue
		}
		who := peerName
		if m.SenderID == selfID {
			who = "Me"
		}
		lines = append(lines, who+": "+*m.Text)
	}
	return lines
}

// WantsSuggestions reports whether the conversation ends with a text
// message from peerID.
func WantsSuggestions(msgs []*message.Message, peerID string) bool {
	if len(msgs) == 0 {
		return false
	}
	last := msgs[len(msgs)-1]
	return last.SenderID == peerID && last.HasText()
}

func tail(msgs []*message.Message, n int) []*message.Message {
	if len(msgs) > n {
		return msgs[len(msgs)-n:]
	}
	return msgs
}

// DecodeDataURL splits "data:<mime>;base64,<payload>" into its MIME type and
// decoded bytes. A missing MIME type defaults to image/jpeg.
func DecodeDataURL(s string) (string, []byte, error) {
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return "", nil, fmt.Errorf("not a data url")
	}
	mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if mime == "" {
		mime = "image/jpeg"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data url: %w", err)
	}
	return mime, data, nil
}

type AssistantRequest struct {
	History []Turn `json:"history" validate:"max=100,dive"`
	Input   string `json:"input" validate:"required,max=4000"`
}
