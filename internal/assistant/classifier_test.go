package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dvloznov/financeiro/internal/llm"
)

func TestMatchSuggestion(t *testing.T) {
	cats := []string{"Alimentação", "Transporte", "Saúde"}
	tests := []struct {
		answer   string
		wantName string
		wantConf float64
		wantOK   bool
	}{
		{answer: "Transporte", wantName: "Transporte", wantConf: 0.9, wantOK: true},
		{answer: " alimentacao. ", wantName: "Alimentação", wantConf: 0.9, wantOK: true},
		{answer: "A categoria é Saúde", wantName: "Saúde", wantConf: 0.7, wantOK: true},
		{answer: "Transprte", wantName: "Transporte", wantConf: 0.5, wantOK: true},
		{answer: "Lazer", wantOK: false},
		{answer: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			got, ok := MatchSuggestion(tt.answer, cats)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (got.CategoryName != tt.wantName || got.Confidence != tt.wantConf) {
				t.Errorf("got %+v, want %s/%v", got, tt.wantName, tt.wantConf)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	cats := []string{"Alimentação", "Transporte"}

	t.Run("short description skips the model", func(t *testing.T) {
		model := &MockChatModel{ChatFunc: func(context.Context, llm.Request, int) (llm.Reply, error) {
			t.Fatal("model called")
			return llm.Reply{}, nil
		}}
		if _, ok := NewClassifier(model, quietLogger()).Classify(context.Background(), "ab", cats); ok {
			t.Errorf("expected no suggestion")
		}
	})

	t.Run("model answer is matched", func(t *testing.T) {
		model := &MockChatModel{ChatFunc: func(_ context.Context, req llm.Request, _ int) (llm.Reply, error) {
			if !strings.Contains(req.Messages[0].Content, "- Alimentação\n- Transporte") {
				t.Errorf("prompt does not list categories: %q", req.Messages[0].Content)
			}
			return llm.Reply{Text: "Transporte"}, nil
		}}
		got, ok := NewClassifier(model, quietLogger()).Classify(context.Background(), "Uber para o trabalho", cats)
		if !ok || got.CategoryName != "Transporte" || got.Confidence != 0.9 {
			t.Errorf("got %+v, %v", got, ok)
		}
	})

	t.Run("model error degrades to no suggestion", func(t *testing.T) {
		model := &MockChatModel{ChatFunc: func(context.Context, llm.Request, int) (llm.Reply, error) {
			return llm.Reply{}, errors.New("down")
		}}
		if _, ok := NewClassifier(model, quietLogger()).Classify(context.Background(), "Uber", cats); ok {
			t.Errorf("expected no suggestion")
		}
	})
}
