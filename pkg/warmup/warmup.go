// Package warmup implements the WarmupController of spec.md §4.13,
// grounded on utils/model_warmup.py's ModelWarmupHandler, whose
// asyncio.gather parallel-warmup pattern is reproduced here with
// golang.org/x/sync/errgroup.
package warmup

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/llm"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/obslog"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/tts"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/ttscache"
)

// CommonPhrases are pre-synthesized into the TTS cache at startup
// (spec.md §4.13). The cache is keyed by exact text, so only a reply
// identical to one of these strings is later served from this warmup;
// no template or fixed fallback in pkg/response is one of them.
var CommonPhrases = []string{
	"Hi, is this a good time to talk for a couple of minutes?",
	"I understand, thanks for your time. Have a great day.",
	"Sorry, could you say that again?",
	"Let me get someone on a follow up call to cover that in detail.",
	"Sounds good, I'll follow up with the details over email.",
}

// Controller runs parallel warmup of the LLM client and the TTS
// client/cache at process startup; their outbound connections are
// opened by those warmup calls.
type Controller struct {
	llm    *llm.Client
	tts    *tts.Client
	cache  *ttscache.Cache
	voice  string
	format string
}

// New constructs a Controller over the process-wide clients.
func New(llmClient *llm.Client, ttsClient *tts.Client, cache *ttscache.Cache, voice, format string) *Controller {
	return &Controller{llm: llmClient, tts: ttsClient, cache: cache, voice: voice, format: format}
}

// Run fires LLM warmup and TTS warmup (which fills the TTS cache with
// CommonPhrases) concurrently, bounding the whole sequence to timeout. A failure in one leg is
// logged but does not block the others or fail startup — warmup is
// best-effort latency amortization, not a readiness gate.
func (c *Controller) Run(ctx context.Context, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return c.warmupLLM(ctx) })
	g.Go(func() error { return c.warmupTTS(ctx) })

	if err := g.Wait(); err != nil {
		obslog.Warn("warmup").Err(err).Msg("warmup leg failed, continuing")
	}

	obslog.Event("warmup").Dur("elapsed", time.Since(start)).Msg("warmup complete")
}

func (c *Controller) warmupLLM(ctx context.Context) error {
	_, err := c.llm.CompleteStreaming(ctx, "Say ok.", 8, 4*time.Second, nil)
	if err != nil {
		obslog.Warn("warmup_llm").Err(err).Msg("llm warmup call failed")
	}
	return nil
}

func (c *Controller) warmupTTS(ctx context.Context) error {
	for _, phrase := range CommonPhrases {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := c.tts.Synthesize(ctx, phrase, c.voice, c.format); err != nil {
			obslog.Warn("warmup_tts").Err(err).Str("phrase", phrase).Msg("tts warmup call failed")
		}
	}
	return nil
}
