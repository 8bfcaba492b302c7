// Package ai holds the generative model clients behind smart replies, chat
// summaries, caption suggestions, daily advice and the in-app assistant.
// Every Advisor call degrades to a fixed fallback string instead of failing.
package ai

import (
	"context"

	"github.com/pkg/errors"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Part is either text or inline binary data such as an image.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

type Content struct {
	Role  Role
	Parts []Part
}

func TextContent(role Role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

type Request struct {
	Model    string
	System   string
	Contents []Content
	// StringList constrains the response to a JSON array of strings.
	StringList bool
}

// Generator sends one request to a model and returns its text output.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

var ErrNoGenerator = errors.New("no model configured")

// Disabled is the Generator used when no API key is configured.
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) (string, error) {
	return "", ErrNoGenerator
}
