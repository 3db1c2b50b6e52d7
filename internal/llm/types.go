// Package llm is a small client for the Gemini generateContent API: plain
// prompts, multi-turn contents, and function calling.
package llm

import (
	"context"
	"strings"
)

const (
	RoleUser     = "user"
	RoleModel    = "model"
	RoleFunction = "function"
)

type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// Part holds exactly one of Text, FunctionCall or FunctionResponse.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Schema is the OpenAPI subset Gemini accepts for function parameters.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type Request struct {
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Contents          []Content         `json:"contents"`
	Tools             []Tool            `json:"tools,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type Response struct {
	Candidates []Candidate `json:"candidates"`
}

// Content returns the first candidate's content, or an empty model turn.
func (r *Response) Content() Content {
	if r == nil || len(r.Candidates) == 0 {
		return Content{Role: RoleModel}
	}
	c := r.Candidates[0].Content
	if c.Role == "" {
		c.Role = RoleModel
	}
	return c
}

// Text joins every text part of the first candidate.
func (r *Response) Text() string {
	var sb strings.Builder
	for _, p := range r.Content().Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

func (r *Response) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range r.Content().Parts {
		if p.FunctionCall != nil {
			calls = append(calls, *p.FunctionCall)
		}
	}
	return calls
}

// Client is implemented by GeminiClient and by fakes in tests.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

func UserText(text string) Content {
	return Content{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// GenerateText sends a single user prompt and returns the reply text.
func GenerateText(ctx context.Context, c Client, prompt string) (string, error) {
	resp, err := c.Generate(ctx, Request{Contents: []Content{UserText(prompt)}})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
