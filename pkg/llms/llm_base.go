package llms

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/introduceourtown/townrec/config"
	"github.com/introduceourtown/townrec/internal"
	"github.com/introduceourtown/townrec/pkg/models"
)

const DefaultTemperature = 0.0
const DefaultAPITimeout = 30 * time.Second
const InvalidLLMModelError = "llm model is not set or is invalid"

const (
	ServiceOpenAI       = "openai"
	ServiceOpenAICompat = "openai_compat"
)

var log = internal.GetLogger()

func NewLLMClient(ctx context.Context, cfg *config.Config) (models.LLM, error) {
	if cfg.LLM.Model == "" {
		return nil, NewLLMError(InvalidLLMModelError, nil)
	}

	switch cfg.LLM.Service {
	case ServiceOpenAI, "":
		return NewOpenAILLM(ctx, cfg)
	case ServiceOpenAICompat:
		// fine-tuned and self-hosted models with an OpenAI compatible API
		return NewOpenAICompatLLM(ctx, cfg)
	default:
		return nil, fmt.Errorf("invalid LLM service: %s", cfg.LLM.Service)
	}
}

type LLMError struct {
	message       string
	originalError error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm error: %s (original error: %v)", e.message, e.originalError)
}

func (e *LLMError) Unwrap() error {
	return e.originalError
}

func NewLLMError(message string, originalError error) *LLMError {
	return &LLMError{message: message, originalError: originalError}
}

// NewRetryableHTTPClient returns an HTTP client with the given retryMax and timeout.
// The retryable HTTP transport is wrapped in an OpenTelemetry transport.
// A retryMax of 0 sends each request exactly once.
func NewRetryableHTTPClient(retryMax int, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultAPITimeout
	}

	retryableHTTPClient := retryablehttp.NewClient()
	retryableHTTPClient.RetryMax = retryMax
	retryableHTTPClient.HTTPClient.Timeout = timeout
	retryableHTTPClient.Logger = internal.NewLeveledLogrus(log)
	retryableHTTPClient.Backoff = retryablehttp.DefaultBackoff
	retryableHTTPClient.CheckRetry = retryPolicy

	return &http.Client{
		Transport: otelhttp.NewTransport(
			retryableHTTPClient.StandardClient().Transport,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}
}

// retryPolicy is a retryablehttp.CheckRetry function. It is used to determine
// whether a request should be retried or not.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	// do not retry on context.Canceled or context.DeadlineExceeded
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	// Do not retry 400 errors as they're used by OpenAI to indicate maximum
	// context length exceeded
	if resp != nil && resp.StatusCode == http.StatusBadRequest {
		return false, err
	}

	shouldRetry, _ := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	return shouldRetry, nil
}

// defaultCallOptions returns the configured temperature and max tokens. Options
// passed to Call are applied after these and take precedence.
func defaultCallOptions(cfg *config.Config) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(cfg.LLM.Temperature)}
	if cfg.LLM.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(cfg.LLM.MaxTokens))
	}
	return opts
}
