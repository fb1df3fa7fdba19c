package assistant

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/llm"
	"github.com/dvloznov/financeiro/internal/resolver"
)

// Suggestion is a category proposed for a transaction description.
type Suggestion struct {
	CategoryName string  `json:"categoryName"`
	Confidence   float64 `json:"confidence"`
}

const (
	confidenceExact   = 0.9
	confidencePartial = 0.7
	confidenceFuzzy   = 0.5
	maxFuzzyDistance  = 2
)

// Classifier asks the model to pick one category for a description.
type Classifier struct {
	model llm.ChatModel
	log   zerolog.Logger
}

func NewClassifier(model llm.ChatModel, log zerolog.Logger) *Classifier {
	return &Classifier{model: model, log: log}
}

// Classify returns a suggestion, or false when the description is too short,
// the model fails or its answer matches none of the categories.
func (c *Classifier) Classify(ctx context.Context, description string, categories []string) (Suggestion, bool) {
	if utf8.RuneCountInString(strings.TrimSpace(description)) < 3 || len(categories) == 0 {
		return Suggestion{}, false
	}

	reply, err := c.model.Chat(ctx, llm.Request{
		System:   classifierInstruction,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: classifierPrompt(description, categories)}},
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("Category classification failed")
		return Suggestion{}, false
	}
	return MatchSuggestion(reply.Text, categories)
}

// MatchSuggestion maps a model answer onto one of categories: exact name,
// then a category named inside the answer, then the closest name within a
// small edit distance.
func MatchSuggestion(answer string, categories []string) (Suggestion, bool) {
	a := resolver.Fold(strings.Trim(strings.TrimSpace(answer), `."'`))
	if a == "" {
		return Suggestion{}, false
	}
	for _, name := range categories {
		if resolver.Fold(name) == a {
			return Suggestion{CategoryName: name, Confidence: confidenceExact}, true
		}
	}
	for _, name := range categories {
		if f := resolver.Fold(name); f != "" && strings.Contains(a, f) {
			return Suggestion{CategoryName: name, Confidence: confidencePartial}, true
		}
	}

	best, bestDist := "", maxFuzzyDistance+1
	for _, name := range categories {
		if d := levenshtein.ComputeDistance(a, resolver.Fold(name)); d < bestDist {
			best, bestDist = name, d
		}
	}
	if best == "" {
		return Suggestion{}, false
	}
	return Suggestion{CategoryName: best, Confidence: confidenceFuzzy}, true
}
