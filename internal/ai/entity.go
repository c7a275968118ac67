package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xxxsen/docqa/internal/model"
)

const entityPrompt = `You are a named entity recognizer.
Find the named entities in the text below.
- Use labels such as PERSON, ORG, GPE, LOC, DATE, TIME, MONEY, PERCENT, QUANTITY, CARDINAL, PRODUCT, EVENT.
- Each entity text MUST be copied verbatim from the input.
- Return a JSON array only: [{"text": "...", "label": "..."}]. Return [] when there are none.

TEXT:
%s`

type IEntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]model.Entity, error)
}

type EntityRecognizer struct {
	gen IGenerator
}

func NewEntityRecognizer(gen IGenerator) *EntityRecognizer {
	return &EntityRecognizer{gen: gen}
}

func (r *EntityRecognizer) Recognize(ctx context.Context, text string) ([]model.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return []model.Entity{}, nil
	}
	if r.gen == nil {
		return nil, fmt.Errorf("entity generator not configured")
	}
	out, err := r.gen.Generate(ctx, fmt.Sprintf(entityPrompt, text))
	if err != nil {
		return nil, err
	}
	return parseEntities(out, text)
}

func parseEntities(output string, text string) ([]model.Entity, error) {
	var raw []model.Entity
	if err := json.Unmarshal([]byte(extractJSON(output, '[', ']')), &raw); err != nil {
		return nil, fmt.Errorf("parse entities: %w", err)
	}
	res := make([]model.Entity, 0, len(raw))
	seen := make(map[model.Entity]bool, len(raw))
	for _, ent := range raw {
		ent.Text = strings.TrimSpace(ent.Text)
		ent.Label = strings.ToUpper(strings.TrimSpace(ent.Label))
		if ent.Text == "" || ent.Label == "" {
			continue
		}
		if !strings.Contains(text, ent.Text) {
			continue
		}
		if seen[ent] {
			continue
		}
		seen[ent] = true
		res = append(res, ent)
	}
	return res, nil
}
