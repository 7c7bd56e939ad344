// Package aiparse turns a free-text request such as "gym every day at 7pm"
// into a task draft using the Gemini generateContent API.
package aiparse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/timerange"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"
)

var (
	ErrNoAPIKey      = errors.New("aiparse: api key is not configured")
	ErrEmptyPrompt   = errors.New("aiparse: prompt is empty")
	ErrMissingFields = errors.New("aiparse: response is missing required fields")
	ErrInvalidTime   = errors.New("aiparse: response has an invalid time")
)

// Response is the structured object the model is asked to produce.
type Response struct {
	Title      string `json:"title"`
	Category   string `json:"category"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Reminder   *int   `json:"reminder,omitempty"`
	Recurrence string `json:"recurrence,omitempty"`
}

// Draft is a validated response, ready to be saved as a new task.
type Draft struct {
	Title      string
	Category   model.Category
	Time       timerange.Window
	Reminder   int
	Recurrence *model.Recurrence
}

// Parser is anything that can turn a prompt into a raw response.
type Parser interface {
	Parse(ctx context.Context, prompt string) (Response, error)
}

type GeminiClient struct {
	BaseURL string
	Model   string
	APIKey  string
	HTTP    *http.Client
	Now     func() time.Time
}

func NewGeminiClient(baseURL, model, apiKey string, timeout time.Duration) *GeminiClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeminiClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
		Now:     time.Now,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func responseSchema() map[string]any {
	categories := make([]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		categories = append(categories, string(c))
	}
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"title":     map[string]any{"type": "STRING", "description": "The concise title of the task."},
			"category":  map[string]any{"type": "STRING", "enum": categories},
			"startTime": map[string]any{"type": "STRING", "description": "Start time in HH:MM AM/PM format."},
			"endTime":   map[string]any{"type": "STRING", "description": "End time in HH:MM AM/PM format. Same as start for instant events."},
			"reminder":  map[string]any{"type": "NUMBER", "description": "Minutes before start. Default 15 for timed events."},
			"recurrence": map[string]any{
				"type": "STRING",
				"enum": []string{string(model.FrequencyDaily), string(model.FrequencyWeekly), string(model.FrequencyMonthly)},
			},
		},
		"required": []string{"title", "category", "startTime", "endTime"},
	}
}

func (c *GeminiClient) prompt(request string) string {
	return fmt.Sprintf("Parse the following user request into a structured task object. "+
		"Infer recurrence (Daily, Weekly, Monthly) and reminder time. "+
		"If a reminder isn't specified for a timed event, default it to 15 minutes. "+
		"Current date is %s. Request: %q", c.Now().Format("Mon Jan 02 2006"), request)
}

var fencePattern = regexp.MustCompile("^```(?:json)?\\s*|```\\s*$")

func (c *GeminiClient) Parse(ctx context.Context, request string) (Response, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return Response{}, ErrNoAPIKey
	}
	if strings.TrimSpace(request) == "" {
		return Response{}, ErrEmptyPrompt
	}
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: c.prompt(request)}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema(),
		},
	})
	if err != nil {
		return Response{}, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.BaseURL, url.PathEscape(c.Model), url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("call gemini: %w", err)
	}
	defer res.Body.Close()

	var body generateResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return Response{}, fmt.Errorf("decode gemini response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		if body.Error != nil {
			return Response{}, fmt.Errorf("gemini: %d %s", body.Error.Code, body.Error.Message)
		}
		return Response{}, fmt.Errorf("gemini: status %d", res.StatusCode)
	}
	if len(body.Candidates) == 0 || len(body.Candidates[0].Content.Parts) == 0 {
		return Response{}, ErrMissingFields
	}

	text := fencePattern.ReplaceAllString(strings.TrimSpace(body.Candidates[0].Content.Parts[0].Text), "")
	var out Response
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return Response{}, fmt.Errorf("decode task json: %w", err)
	}
	return out, nil
}

// Coerce validates a response. Unknown categories fall back to Work and
// unknown recurrence values are dropped.
func Coerce(r Response) (Draft, error) {
	if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.StartTime) == "" || strings.TrimSpace(r.EndTime) == "" {
		return Draft{}, ErrMissingFields
	}
	start, ok := timerange.ParseClock(r.StartTime)
	if !ok {
		return Draft{}, fmt.Errorf("%w: %q", ErrInvalidTime, r.StartTime)
	}
	end, ok := timerange.ParseClock(r.EndTime)
	if !ok {
		return Draft{}, fmt.Errorf("%w: %q", ErrInvalidTime, r.EndTime)
	}

	d := Draft{
		Title:    strings.TrimSpace(r.Title),
		Category: model.CategoryWork,
		Time:     timerange.NewRange(start, end),
	}
	if start == end {
		d.Time = timerange.NewInstant(start)
	}
	if c, ok := model.ParseCategory(r.Category); ok {
		d.Category = c
	}
	if f, ok := model.ParseFrequency(r.Recurrence); ok {
		d.Recurrence = &model.Recurrence{Frequency: f}
	}
	if r.Reminder != nil && *r.Reminder > 0 {
		d.Reminder = *r.Reminder
	}
	return d, nil
}

// ParseTask runs the parser and coerces its response.
func ParseTask(ctx context.Context, p Parser, prompt string) (Draft, error) {
	r, err := p.Parse(ctx, prompt)
	if err != nil {
		return Draft{}, err
	}
	return Coerce(r)
}
