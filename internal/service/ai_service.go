package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"uplook_backend/internal/config"
	"uplook_backend/internal/util"
)

// AIService 调用兼容 OpenAI 的 chat/completions 接口给日记打情感分
type AIService struct {
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{config: cfg, client: &http.Client{Timeout: 30 * time.Second}}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []AIChatMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const sentimentPrompt = "You score the emotional tone of a personal journal entry. " +
	"Reply with a single number between -1 and 1 (compound polarity: -1 very negative, 0 neutral, 1 very positive) and nothing else."

func (s *AIService) Enabled() bool {
	return s.config.Enabled()
}

// AnalyzeSentiment 返回 [-1, 1] 区间的情感分
func (s *AIService) AnalyzeSentiment(ctx context.Context, text string) (float64, error) {
	if !s.Enabled() {
		return 0, util.ErrSentimentDisabled
	}

	body, err := json.Marshal(ChatCompletionRequest{
		Model: s.config.Model,
		Messages: []AIChatMessage{
			{Role: "system", Content: sentimentPrompt},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.config.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(raw))
	}

	var out ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode AI response: %w", err)
	}
	if out.Error != nil {
		return 0, fmt.Errorf("AI API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return 0, fmt.Errorf("AI API returned no choices")
	}
	return ParseSentimentReply(out.Choices[0].Message.Content)
}

// ParseSentimentReply 取回复中的第一个数字并裁剪到 [-1, 1]
func ParseSentimentReply(reply string) (float64, error) {
	for _, field := range strings.Fields(reply) {
		field = strings.Trim(field, " \t\r\n\"'`.,;:")
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsNaN(v) {
			continue
		}
		return math.Max(-1, math.Min(1, v)), nil
	}
	return 0, fmt.Errorf("no sentiment score in reply %q", reply)
}
