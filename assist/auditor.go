// Package assist wraps a Gemini chat session primed on the ledger rules, so
// a replay report can be explained in plain language.
package assist

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/tbuchner/folio/docs"
)

const model = "gemini-2.5-pro"

// Auditor is a chat with a model that knows the ledger format, the action
// semantics, and how the returns are computed. It answers questions about a
// concrete replay.
type Auditor struct {
	chat *genai.Chat
}

// NewAuditor starts the chat session. The embedded documentation becomes the
// system instruction: the model reasons from the same rules the replay
// enforces.
func NewAuditor(ctx context.Context, client *genai.Client) (*Auditor, error) {
	rules, err := docs.GetTopics("ledger", "actions", "xirr")
	if err != nil {
		return nil, err
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an auditor for a personal portfolio ledger. The user gives
			you the outcome of a ledger replay: holdings, warnings, and
			possibly the fatal error that stopped it. Explain what happened
			and what to fix in the ledger, entry by entry, briefly.

			These are the exact rules the replay enforces:

			` + rules}}},
	}
	chat, err := client.Chats.Create(ctx, model, config, nil)
	if err != nil {
		return nil, err
	}
	return &Auditor{chat: chat}, nil
}

// Explain sends the rendered replay artifacts and the user's question, and
// returns the model's answer.
func (a *Auditor) Explain(ctx context.Context, summary, report, question string) (string, error) {
	if question == "" {
		question = "Explain this replay report and how to fix the ledger."
	}
	resp, err := a.chat.Send(ctx,
		&genai.Part{Text: "Replay report:\n\n" + report},
		&genai.Part{Text: "Holdings:\n\n" + summary},
		&genai.Part{Text: question},
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from the auditor")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
