// Package llm implements the LLMClient of spec.md §4.6: a single
// shared streaming client per process, first-sentence callback, and
// structured per-call timing events. Streaming is done via
// google.golang.org/genai rather than hand-rolled SSE parsing,
// grounded on the vango-go-vai-lite example's use of the same SDK for
// a hosted streaming-completion proxy. The first-sentence split and
// timeout/cancellation semantics are grounded on openai_service.py's
// generate_completion_streaming.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/circuitbreaker"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/errkind"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/obslog"
)

// sentenceBoundary matches the first complete sentence per spec.md
// §4.4: split on ". ! ?" followed by whitespace.
var sentenceBoundary = regexp.MustCompile(`(?s)^(.*?[.!?])\s+(.*)$`)

// Client is the process-wide streaming LLM client.
type Client struct {
	genai   *genai.Client
	model   string
	breaker *circuitbreaker.Breaker
}

// New constructs a Client against the configured model.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{
		genai:   c,
		model:   model,
		breaker: circuitbreaker.Get("llm", circuitbreaker.DefaultConfig("llm")),
	}, nil
}

// Result is the outcome of a streaming completion.
type Result struct {
	Text             string
	TimeToFirstToken time.Duration
	TotalTime        time.Duration
	TimedOut         bool
}

// CompleteStreaming implements spec.md §4.6's complete_streaming
// contract: streams tokens up to maxTokens, invoking onFirstSentence
// exactly once with the first complete sentence's text, respecting
// timeout, and returning any accumulated prefix on cancellation.
func (c *Client) CompleteStreaming(
	ctx context.Context,
	prompt string,
	maxTokens int32,
	timeout time.Duration,
	onFirstSentence func(sentence string),
) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var collected strings.Builder
	var firstTokenAt time.Duration
	gotFirstToken := false
	firstSentenceSent := false

	genErr := c.breaker.Call(ctx, func(ctx context.Context) error {
		config := &genai.GenerateContentConfig{
			MaxOutputTokens: maxTokens,
			Temperature:     genai.Ptr[float32](0.5),
		}

		iter := c.genai.Models.GenerateContentStream(ctx, c.model, genai.Text(prompt), config)
		for chunk, err := range iter {
			if err != nil {
				return err
			}
			token := chunk.Text()
			if token == "" {
				continue
			}
			if !gotFirstToken {
				gotFirstToken = true
				firstTokenAt = time.Since(start)
			}
			collected.WriteString(token)

			if !firstSentenceSent && onFirstSentence != nil {
				if m := sentenceBoundary.FindStringSubmatch(collected.String()); m != nil {
					firstSentenceSent = true
					onFirstSentence(strings.TrimSpace(m[1]))
				}
			}
		}
		return nil
	})

	total := time.Since(start)
	text := strings.TrimSpace(collected.String())

	obslog.Event("llm_client").
		Dur("ttft", firstTokenAt).
		Dur("total", total).
		Int("chars", len(text)).
		Msg("completion finished")

	if genErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			if text != "" {
				return Result{Text: text, TimeToFirstToken: firstTokenAt, TotalTime: total, TimedOut: true}, nil
			}
			return Result{TimedOut: true}, errkind.Wrap(errkind.Timeout, "llm stream deadline exceeded", genErr)
		}
		return Result{Text: text}, errkind.Wrap(errkind.TransientUpstream, "llm stream failed", genErr)
	}

	return Result{Text: text, TimeToFirstToken: firstTokenAt, TotalTime: total}, nil
}
