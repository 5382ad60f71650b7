// Package gemini implements the generator's model over the Google GenAI SDK,
// on either the Gemini API (API key) or Vertex AI (application default
// credentials).
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bodul/autocross/internal/config"
	"github.com/bodul/autocross/internal/generator"
	"github.com/bodul/autocross/internal/logger"

	"google.golang.org/genai"
)

const (
	defaultRegion = "europe-west1"
	defaultModel  = "gemini-2.5-flash"
)

// ErrNotConfigured is returned when neither an API key nor a project is set.
var ErrNotConfigured = errors.New("gemini: set GEMINI_API_KEY or GCP_PROJECT_ID")

// Client wraps the GenAI client for one model.
type Client struct {
	client      *genai.Client
	modelName   string
	temperature float32
	safety      []*genai.SafetySetting
	log         *logger.Logger
}

// Option tweaks client construction.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(url string) Option {
	return func(cc *genai.ClientConfig) { cc.HTTPOptions.BaseURL = url }
}

// New creates a client. An API key selects the Gemini API backend;
// otherwise Vertex AI is used with application default credentials (set
// GOOGLE_APPLICATION_CREDENTIALS to a service account key file).
func New(ctx context.Context, cfg config.AI, opts ...Option) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	cc := &genai.ClientConfig{}
	if cfg.APIKey != "" {
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	} else {
		region := cfg.Region
		if region == "" {
			region = defaultRegion
		}
		cc.Project = cfg.Project
		cc.Location = region
		cc.Backend = genai.BackendVertexAI
	}
	for _, o := range opts {
		o(cc)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{
		client:      client,
		modelName:   model,
		temperature: cfg.Temperature,
		safety:      safetySettings(cfg.SafetyThreshold),
		log:         logger.Named("gemini"),
	}, nil
}

// Model returns the model name in use.
func (g *Client) Model() string { return g.modelName }

// Close releases resources held by the client.
func (g *Client) Close() error {
	return nil
}

func safetySettings(threshold string) []*genai.SafetySetting {
	t := genai.HarmBlockThreshold(strings.ToUpper(strings.TrimSpace(threshold)))
	if t == "" {
		t = genai.HarmBlockThresholdBlockMediumAndAbove
	}
	cats := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	out := make([]*genai.SafetySetting, 0, len(cats))
	for _, c := range cats {
		out = append(out, &genai.SafetySetting{Category: c, Threshold: t})
	}
	return out
}

// Generate sends one call in JSON response mode with the schema matching
// its stage and returns the first candidate's text.
func (g *Client) Generate(ctx context.Context, call generator.Call) (string, error) {
	var parts []*genai.Part
	if a := call.Attachment; a != nil && len(a.Data) > 0 {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: a.MIMEType, Data: a.Data}})
	}
	parts = append(parts, &genai.Part{Text: call.Prompt})

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{Role: "user", Parts: parts}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(g.temperature),
			TopP:             genai.Ptr(float32(1)),
			ResponseMIMEType: "application/json",
			ResponseSchema:   schemaFor(call.Stage),
			SafetySettings:   g.safety,
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	if err := blocked(resp); err != nil {
		g.log.Warn().Str("stage", call.Stage.String()).Err(err).Msg("response blocked")
		return "", err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty gemini response", generator.ErrNoCandidate)
	}
	return text, nil
}

func blocked(resp *genai.GenerateContentResponse) error {
	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" {
		return fmt.Errorf("%w: prompt blocked (%s) %s", generator.ErrNoCandidate, pf.BlockReason, pf.BlockReasonMessage)
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("%w: no candidates", generator.ErrNoCandidate)
	}
	if c := resp.Candidates[0]; c.FinishReason == genai.FinishReasonSafety {
		return fmt.Errorf("%w: candidate stopped for safety", generator.ErrNoCandidate)
	}
	return nil
}
