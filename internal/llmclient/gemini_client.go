// internal/llmclient/gemini_client.go
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/xkilldash9x/browsepilot/api/schemas"
	"github.com/xkilldash9x/browsepilot/internal/config"
)

const (
	defaultMaxElapsedTime = 2 * time.Minute
	defaultMaxInterval    = 30 * time.Second
)

// GeminiClient implements schemas.ModelClient on the Gemini API. It holds no
// conversation state; every call sends the full history.
type GeminiClient struct {
	client  *genai.Client
	model   string
	cfg     config.ModelConfig
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ schemas.ModelClient = (*GeminiClient)(nil)

// NewGeminiClient initializes the client. The API key comes from cfg.
func NewGeminiClient(ctx context.Context, cfg config.ModelConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("gemini model name is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.APITimeout},
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	c := &GeminiClient{
		client: client,
		model:  cfg.Name,
		cfg:    cfg,
		logger: logger.Named("llm_client.gemini").With(zap.String("model", cfg.Name)),
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c, nil
}

// Generate sends the history and tool declarations and returns the first
// candidate. Transient API failures are retried with exponential backoff.
func (c *GeminiClient) Generate(ctx context.Context, history []schemas.Content, tools []schemas.ActionDescriptor) (*schemas.ModelResponse, error) {
	contents, err := toGenAIContents(history)
	if err != nil {
		return nil, err
	}
	genCfg := c.generationConfig(tools)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = defaultMaxElapsedTime
	if c.cfg.Retry.MaxElapsedTime > 0 {
		b.MaxElapsedTime = c.cfg.Retry.MaxElapsedTime
	}
	b.MaxInterval = defaultMaxInterval
	if c.cfg.Retry.MaxInterval > 0 {
		b.MaxInterval = c.cfg.Retry.MaxInterval
	}

	var result *schemas.ModelResponse
	operation := func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		startTime := time.Now()
		resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
		duration := time.Since(startTime)
		if err != nil {
			return c.classifyError(ctx, err)
		}

		parsed, err := c.parseResponse(resp)
		if err != nil {
			return err
		}

		fields := []zap.Field{zap.Duration("duration", duration), zap.Int("parts", len(parsed.Parts))}
		if parsed.Usage != nil {
			fields = append(fields,
				zap.Int("total_tokens", parsed.Usage.TotalTokens),
				zap.Int("prompt_tokens", parsed.Usage.PromptTokens),
				zap.Int("candidates_tokens", parsed.Usage.CandidatesTokens),
			)
		}
		c.logger.Debug("LLM generation complete (Gemini)", fields...)
		result = parsed
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("Gemini request failed, retrying...", zap.Error(err), zap.Duration("backoff", wait))
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}
	return result, nil
}

// classifyError marks everything but rate limiting, server errors and
// transport failures as permanent.
func (c *GeminiClient) classifyError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return backoff.Permanent(err)
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	default:
		return fmt.Errorf("gemini request failed: %w", err)
	}

	c.logger.Error("Gemini API returned error status", zap.Int("status", code), zap.Error(err))
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
		return err
	default:
		return backoff.Permanent(err)
	}
}

func (c *GeminiClient) parseResponse(resp *genai.GenerateContentResponse) (*schemas.ModelResponse, error) {
	out := &schemas.ModelResponse{}

	if resp.UsageMetadata != nil {
		out.Usage = &schemas.Usage{
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CandidatesTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		out.Feedback = &schemas.Feedback{BlockReason: string(fb.BlockReason), Message: fb.BlockReasonMessage}
		c.logger.Warn("Gemini returned prompt feedback",
			zap.String("block_reason", out.Feedback.BlockReason),
			zap.String("message", out.Feedback.Message))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		if out.Feedback != nil {
			return nil, backoff.Permanent(fmt.Errorf("gemini blocked the prompt (reason: %s)", out.Feedback.BlockReason))
		}
		return nil, backoff.Permanent(fmt.Errorf("gemini API returned no candidates"))
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		switch candidate.FinishReason {
		case genai.FinishReasonSafety, genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent:
			return nil, backoff.Permanent(fmt.Errorf("gemini blocked the response (reason: %s)", candidate.FinishReason))
		}
		return nil, fmt.Errorf("gemini API returned empty content (reason: %s)", candidate.FinishReason)
	}

	parts, err := fromGenAIParts(candidate.Content.Parts)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	out.Parts = parts
	return out, nil
}

func (c *GeminiClient) generationConfig(tools []schemas.ActionDescriptor) *genai.GenerateContentConfig {
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.cfg.Temperature),
	}
	if c.cfg.SystemInstructions != "" {
		genCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: c.cfg.SystemInstructions}}}
	}
	if c.cfg.CandidateCount > 0 {
		genCfg.CandidateCount = int32(c.cfg.CandidateCount)
	}
	if c.cfg.MaxOutputTokens > 0 {
		genCfg.MaxOutputTokens = int32(c.cfg.MaxOutputTokens)
	}
	if c.cfg.TopP > 0 {
		genCfg.TopP = genai.Ptr(c.cfg.TopP)
	}
	if c.cfg.TopK > 0 {
		genCfg.TopK = genai.Ptr(float32(c.cfg.TopK))
	}
	genCfg.SafetySettings = safetySettings(c.cfg.SafetyFilters)
	if len(tools) > 0 {
		genCfg.Tools = []*genai.Tool{{FunctionDeclarations: toFunctionDeclarations(tools)}}
	}
	return genCfg
}

func safetySettings(filters map[string]string) []*genai.SafetySetting {
	if len(filters) == 0 {
		return nil
	}
	categories := make([]string, 0, len(filters))
	for category := range filters {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	settings := make([]*genai.SafetySetting, 0, len(filters))
	for _, category := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  genai.HarmCategory(category),
			Threshold: genai.HarmBlockThreshold(filters[category]),
		})
	}
	return settings
}
