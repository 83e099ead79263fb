package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient implements Client using the OpenAI chat completions API.
// A custom base URL allows any OpenAI-compatible server.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIClient creates a client for the OpenAI API.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewOpenAICompatibleClient(defaultOpenAIBaseURL, apiKey)
}

// NewOpenAICompatibleClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAICompatibleClient(baseURL, apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Chat sends a non-streaming chat request.
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	messages := make([]openAIMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, openAIMessage{Role: string(m.Role), Content: m.Content})
	}

	requestBody := openAIRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, &Error{Kind: KindProvider, Detail: "openai chat: marshaling request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &Error{Kind: KindProvider, Detail: "openai chat: creating request", Err: err}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapErr(ctx, "openai chat: request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapErr(ctx, "openai chat: reading response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Kind:   KindProvider,
			Detail: fmt.Sprintf("openai chat: status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return nil, &Error{Kind: KindParse, Detail: "openai chat: unmarshaling response", Err: err}
	}

	if openAIResp.Error != nil {
		return nil, &Error{Kind: KindProvider, Detail: "openai chat: " + openAIResp.Error.Message}
	}

	if len(openAIResp.Choices) == 0 {
		return nil, &Error{Kind: KindParse, Detail: "openai chat: no choices in response"}
	}

	return &ChatResponse{Content: openAIResp.Choices[0].Message.Content}, nil
}
