package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("model returned no text")

// MessageSender sends one Messages API request.
// *anthropic.MessageService satisfies it.
type MessageSender interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Planner asks the model for raw plan text.
type Planner struct {
	sender    MessageSender
	model     anthropic.Model
	maxTokens int64
	tracker   *TokenTracker
}

// NewPlanner creates a Planner that sends requests through client.
func NewPlanner(client *Client) *Planner {
	return &Planner{
		sender:    client.Messages(),
		model:     client.Model(),
		maxTokens: client.MaxTokens(),
		tracker:   client.Tracker(),
	}
}

// NewPlannerWithSender creates a Planner over an arbitrary sender.
// A nil tracker gets a fresh one.
func NewPlannerWithSender(sender MessageSender, model anthropic.Model, maxTokens int64, tracker *TokenTracker) *Planner {
	if tracker == nil {
		tracker = NewTokenTracker()
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Planner{sender: sender, model: model, maxTokens: maxTokens, tracker: tracker}
}

// Tracker returns the token tracker the planner records usage on.
func (p *Planner) Tracker() *TokenTracker {
	return p.tracker
}

// Generate sends prompt as a single user message and returns the concatenated
// text of the response, which is the raw plan text to compile.
func (p *Planner) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.sender.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate plan: %w", err)
	}

	p.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	text := extractText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func extractText(resp *anthropic.Message) string {
	var b strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(variant.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
