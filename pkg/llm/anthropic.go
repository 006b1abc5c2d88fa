package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/sells-group/agent-eval/internal/resilience"
)

// AnthropicClient implements Client using the official anthropic-sdk-go.
type AnthropicClient struct {
	client       sdk.Client
	defaultModel string
}

// NewAnthropic creates an Anthropic-backed client. defaultModel is used
// when Options.Model is empty.
func NewAnthropic(apiKey, defaultModel string) *AnthropicClient {
	return &AnthropicClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
		defaultModel: defaultModel,
	}
}

func (c *AnthropicClient) Complete(ctx context.Context, prompt string, opts Options) (*Completion, error) {
	model := opts.Model
	if model == "" {
		model = c.defaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}
	if opts.System != "" {
		params.System = []sdk.TextBlockParam{{Text: opts.System}}
	}
	if opts.Temperature != nil {
		params.Temperature = sdk.Float(*opts.Temperature)
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifySDKError(err)
	}

	var text strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}

	return &Completion{
		Text:             text.String(),
		PromptTokens:     msg.Usage.InputTokens,
		CompletionTokens: msg.Usage.OutputTokens,
		LatencyMS:        float64(time.Since(start)) / float64(time.Millisecond),
	}, nil
}

// classifySDKError maps SDK errors onto the resilience taxonomy so the
// harness can make retry decisions without knowing about the SDK.
func classifySDKError(err error) error {
	var apierr *sdk.Error
	if errors.As(err, &apierr) {
		class := resilience.ClassForHTTPStatus(apierr.StatusCode)
		if class.Retryable() {
			return resilience.NewTransientError(
				eris.Wrap(err, "llm: anthropic request"),
				class,
				apierr.StatusCode,
			)
		}
		return eris.Wrapf(err, "llm: anthropic request rejected (status %d)", apierr.StatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return resilience.NewTransientError(
			eris.Wrap(err, "llm: anthropic request timed out"),
			resilience.ClassTimeout,
			0,
		)
	}
	if class := resilience.Classify(err); class.Retryable() {
		return resilience.NewTransientError(eris.Wrap(err, "llm: anthropic transport"), class, 0)
	}

	return eris.Wrap(err, "llm: anthropic request")
}
