package answer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/video-stream/recap/internal/failure"
)

// fakeCompleter records prompts and replays a canned reply.
type fakeCompleter struct {
	reply   string
	err     error
	prompts []Prompt
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	f.prompts = append(f.prompts, p)
	return f.reply, f.err
}

func TestAnswer(t *testing.T) {
	fc := &fakeCompleter{reply: "The launch moved to May."}
	got, err := NewResponder(fc).Answer(context.Background(), "When is the launch?", "We agreed the launch moves to May.")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got != "The launch moved to May." {
		t.Fatalf("answer = %q", got)
	}

	if len(fc.prompts) != 1 {
		t.Fatalf("completer called %d times, want 1", len(fc.prompts))
	}
	p := fc.prompts[0]
	if p.System != SystemPrompt || p.Temperature != 0.5 || p.MaxTokens != 1000 {
		t.Fatalf("unexpected prompt settings %+v", p)
	}
	for _, want := range []string{
		"Context: We agreed the launch moves to May.",
		"Question: When is the launch?",
		NotFoundReply,
	} {
		if !strings.Contains(p.User, want) {
			t.Errorf("user prompt missing %q:\n%s", want, p.User)
		}
	}
}

func TestAnswerValidation(t *testing.T) {
	tests := []struct {
		name       string
		question   string
		transcript string
	}{
		{"empty question", "", "transcript"},
		{"blank question", "   ", "transcript"},
		{"empty transcript", "question?", ""},
		{"both empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCompleter{reply: "x"}
			_, err := NewResponder(fc).Answer(context.Background(), tt.question, tt.transcript)
			if !failure.Is(err, failure.KindInvalidInput) {
				t.Fatalf("err = %v, want invalid input", err)
			}
			if len(fc.prompts) != 0 {
				t.Fatal("completer called for invalid input")
			}
		})
	}
}

func TestAnswerFallbackOnEmptyReply(t *testing.T) {
	got, err := NewResponder(&fakeCompleter{reply: "  "}).Answer(context.Background(), "q", "t")
	if err != nil {
		t.Fatal(err)
	}
	if got != FallbackAnswer {
		t.Fatalf("answer = %q, want fallback", got)
	}
}

func TestAnswerProviderError(t *testing.T) {
	_, err := NewResponder(&fakeCompleter{err: errors.New("rate limited")}).Answer(context.Background(), "q", "t")
	if !failure.Is(err, failure.KindAnswer) {
		t.Fatalf("err = %v, want answer failure", err)
	}
}

func TestOpenAICompleter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer gsk_test" {
			t.Errorf("Authorization = %q", got)
		}
		var req struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		if req.Model != DefaultGroqModel || req.Temperature != 0.5 || req.MaxTokens != 1000 {
			t.Errorf("unexpected request %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"forty-two"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c, err := NewCompleter(context.Background(), ProviderConfig{
		Provider: ProviderGroq,
		APIKey:   "gsk_test",
		BaseURL:  srv.URL + "/openai/v1",
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := NewResponder(c).Answer(context.Background(), "What is the answer?", "The answer is forty-two.")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got != "forty-two" {
		t.Fatalf("answer = %q", got)
	}
}

func TestGeminiCompleter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"from "},{"text":"gemini"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewCompleter(context.Background(), ProviderConfig{
		Provider: ProviderGemini,
		APIKey:   "AIza-test",
		BaseURL:  srv.URL,
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Complete(context.Background(), Prompt{System: SystemPrompt, User: "hi", Temperature: Temperature, MaxTokens: MaxTokens})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "from gemini" {
		t.Fatalf("reply = %q", got)
	}
}

func TestNewCompleterUnknownProvider(t *testing.T) {
	if _, err := NewCompleter(context.Background(), ProviderConfig{Provider: "llama"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
