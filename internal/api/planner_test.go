package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type fakeSender struct {
	reply string
	err   error
	got   anthropic.MessageNewParams
}

func (f *fakeSender) New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	f.got = body
	if f.err != nil {
		return nil, f.err
	}
	var msg anthropic.Message
	if err := json.Unmarshal([]byte(f.reply), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func reply(texts ...string) string {
	type block struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	blocks := make([]block, len(texts))
	for i, text := range texts {
		blocks[i] = block{Type: "text", Text: text}
	}
	content, _ := json.Marshal(blocks)
	return `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-20250514",` +
		`"stop_reason":"end_turn","content":` + string(content) +
		`,"usage":{"input_tokens":120,"output_tokens":80}}`
}

func TestPlanner_Generate(t *testing.T) {
	sender := &fakeSender{reply: reply("#Task1: List chillers\n", "#Agent1: IoT Data Download\n")}
	p := NewPlannerWithSender(sender, anthropic.ModelClaudeSonnet4_20250514, 0, nil)

	got, err := p.Generate(context.Background(), "plan this")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want := "#Task1: List chillers\n#Agent1: IoT Data Download"
	if got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}
	if sender.got.MaxTokens != DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", sender.got.MaxTokens, DefaultMaxTokens)
	}
	if sender.got.Model != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("Model = %q", sender.got.Model)
	}
	if len(sender.got.Messages) != 1 {
		t.Errorf("sent %d messages, want 1", len(sender.got.Messages))
	}

	in, out := p.Tracker().Total()
	if in != 120 || out != 80 || p.Tracker().Calls() != 1 {
		t.Errorf("tracker = (%d, %d, %d calls), want (120, 80, 1 call)", in, out, p.Tracker().Calls())
	}
}

func TestPlanner_GenerateError(t *testing.T) {
	boom := errors.New("overloaded")
	p := NewPlannerWithSender(&fakeSender{err: boom}, "m", 100, nil)

	_, err := p.Generate(context.Background(), "plan this")
	if !errors.Is(err, boom) {
		t.Fatalf("Generate error = %v, want wrapped %v", err, boom)
	}
	if !strings.HasPrefix(err.Error(), "generate plan:") {
		t.Errorf("error = %q, want generate plan prefix", err.Error())
	}
	if p.Tracker().Calls() != 0 {
		t.Error("failed call should not be tracked")
	}
}

func TestPlanner_GenerateEmpty(t *testing.T) {
	p := NewPlannerWithSender(&fakeSender{reply: reply("   ")}, "m", 100, nil)

	if _, err := p.Generate(context.Background(), "plan this"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Generate error = %v, want ErrEmptyResponse", err)
	}
}

func TestNewPlanner_UsesClientSettings(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "k", MaxTokens: 777})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	p := NewPlanner(client)
	if p.maxTokens != 777 || p.model != client.Model() || p.Tracker() != client.Tracker() {
		t.Errorf("planner = %+v, want settings from client", p)
	}
}
