package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"uplook_backend/internal/config"
	"uplook_backend/internal/util"
)

func TestParseSentimentReply(t *testing.T) {
	cases := []struct {
		reply string
		want  float64
	}{
		{"0.42", 0.42},
		{"Score: -0.7.", -0.7},
		{"`1.8`", 1},
		{"-3", -1},
		{"\"0\"", 0},
	}
	for _, tc := range cases {
		got, err := ParseSentimentReply(tc.reply)
		if err != nil {
			t.Errorf("ParseSentimentReply(%q) failed: %v", tc.reply, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSentimentReply(%q): expected %v, got %v", tc.reply, tc.want, got)
		}
	}

	if _, err := ParseSentimentReply("I cannot score this"); err == nil {
		t.Error("expected an error when the reply has no number")
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	var gotAuth string
	var gotReq ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"-0.35"}}]}`))
	}))
	defer srv.Close()

	svc := NewAIService(config.AIConfig{BaseURL: srv.URL + "/v1/", APIKey: "secret", Model: "mini"})
	score, err := svc.AnalyzeSentiment(context.Background(), "rough day at work")
	if err != nil {
		t.Fatalf("AnalyzeSentiment failed: %v", err)
	}
	if score != -0.35 {
		t.Errorf("expected -0.35, got %v", score)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotReq.Model != "mini" || len(gotReq.Messages) != 2 || gotReq.Messages[1].Content != "rough day at work" {
		t.Errorf("unexpected request body: %+v", gotReq)
	}
}

func TestAnalyzeSentiment_Errors(t *testing.T) {
	if _, err := NewAIService(config.AIConfig{}).AnalyzeSentiment(context.Background(), "x"); !errors.Is(err, util.ErrSentimentDisabled) {
		t.Errorf("expected ErrSentimentDisabled, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := NewAIService(config.AIConfig{BaseURL: srv.URL, APIKey: "k"})
	if _, err := svc.AnalyzeSentiment(context.Background(), "x"); err == nil {
		t.Error("expected an error for a non-200 response")
	}
}
