package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/docqa/internal/model"
)

const answerPrompt = `You are an extractive question answering system.
Answer the question using ONLY the context below.
- The answer MUST be a span copied verbatim from the context.
- Keep the span as short as possible.
- Return a JSON object only: {"answer": "<span>", "confidence": <number between 0 and 1>}.
- If the context does not contain the answer, return the most relevant span with a low confidence.

QUESTION:
%s

CONTEXT:
%s`

type IAnswerer interface {
	Answer(ctx context.Context, question string, passage string) (*model.Answer, error)
}

// Answerer turns a generator into an extractive QA oracle. Start and End are
// rune offsets of the answer inside the context, or -1 when the generator
// produced text that is not a verbatim span.
type Answerer struct {
	gen IGenerator
}

func NewAnswerer(gen IGenerator) *Answerer {
	return &Answerer{gen: gen}
}

func (a *Answerer) Answer(ctx context.Context, question string, passage string) (*model.Answer, error) {
	if a.gen == nil {
		return nil, fmt.Errorf("answer generator not configured")
	}
	out, err := a.gen.Generate(ctx, fmt.Sprintf(answerPrompt, question, passage))
	if err != nil {
		return nil, err
	}
	return parseAnswer(out, passage)
}

type answerPayload struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

func parseAnswer(output string, passage string) (*model.Answer, error) {
	var payload answerPayload
	if err := json.Unmarshal([]byte(extractJSON(output, '{', '}')), &payload); err != nil {
		return nil, fmt.Errorf("parse answer: %w", err)
	}
	text := strings.TrimSpace(payload.Answer)
	res := &model.Answer{
		Text:       text,
		Confidence: clamp01(payload.Confidence),
		Start:      -1,
		End:        -1,
	}
	if text == "" {
		return res, nil
	}
	if idx := strings.Index(passage, text); idx >= 0 {
		res.Start = utf8.RuneCountInString(passage[:idx])
		res.End = res.Start + utf8.RuneCountInString(text)
	}
	return res, nil
}

// extractJSON strips markdown fences and returns the outermost open..close section.
func extractJSON(output string, open, close byte) string {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	start := strings.IndexByte(clean, open)
	end := strings.LastIndexByte(clean, close)
	if start >= 0 && end > start {
		return clean[start : end+1]
	}
	return clean
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
