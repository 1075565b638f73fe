package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

const classifySystem = `You are a sustainability product analyst. Answer with one JSON object and nothing else.`

const classifyTemplate = `Analyze the product: %q.

1. Is this product non-sustainable, with a clearly more eco-friendly alternative? (boolean)
2. Suggest ONE specific, highly-rated sustainable alternative product name.
3. Give a short, punchy reason why it is better (max 10 words).
4. Estimate an EcoScore (0-100) for the alternative.
5. Give a search query to find the alternative in an online shop.

Output JSON only:
{"isNonSustainable": boolean, "originalName": string, "swap": {"name": string, "description": string, "ecoScore": number, "searchQuery": string}}
If the product is already the best option, set "isNonSustainable": false.`

// SwapSuggestion is the alternative proposed by the model.
type SwapSuggestion struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	EcoScore    float64 `json:"ecoScore"`
	SearchQuery string  `json:"searchQuery"`
}

// Classification is the structured answer to a product query.
type Classification struct {
	IsNonSustainable bool            `json:"isNonSustainable"`
	OriginalName     string          `json:"originalName"`
	Swap             *SwapSuggestion `json:"swap"`

	// older prompt wording, still honoured when models echo it
	HasBetterAlternative bool `json:"hasBetterAlternative,omitempty"`
}

// HasSwap reports whether the model proposed a usable alternative.
func (c *Classification) HasSwap() bool {
	return c != nil && (c.IsNonSustainable || c.HasBetterAlternative) &&
		c.Swap != nil && strings.TrimSpace(c.Swap.Name) != ""
}

var fenceRe = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\\n?(.*?)\\n?\\s*```\\s*$")

// StripCodeFences removes a surrounding markdown code fence, if any.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ParseClassification decodes a model reply. Malformed JSON gets one repair
// pass; ok is false when the reply still cannot be decoded.
func ParseClassification(raw string) (*Classification, bool) {
	text := StripCodeFences(raw)
	if text == "" {
		return nil, false
	}
	var c Classification
	if err := json.Unmarshal([]byte(text), &c); err == nil {
		return &c, true
	}
	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &c); err != nil {
		return nil, false
	}
	return &c, true
}

// Classifier asks a Generator whether a product has a sustainable swap.
type Classifier struct {
	gen Generator
}

func NewClassifier(gen Generator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify returns an error only when the model call itself fails. An
// unparseable reply yields (nil, nil): no alternative found.
func (c *Classifier) Classify(ctx context.Context, product string) (*Classification, error) {
	reply, err := c.gen.Generate(ctx, Prompt{
		System: classifySystem,
		User:   fmt.Sprintf(classifyTemplate, product),
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}
	parsed, ok := ParseClassification(reply)
	if !ok {
		return nil, nil
	}
	return parsed, nil
}
