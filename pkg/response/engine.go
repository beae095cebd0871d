package response

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/engine"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/latency"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/llm"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/obslog"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/prompt"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/quality"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/respcache"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/tts"
)

// Tier labels which pipeline stage actually produced the reply, fed
// into the quality scorer's response-distribution report.
type Tier = quality.Source

// Turn is the full output of one conversational turn: the text that
// will be spoken, the audio bytes for it (nil if carrier-native TTS is
// used instead, per spec.md §4.5's degrade path), and the tier that
// produced it.
type Turn struct {
	Text       string
	Audio      []byte
	AudioErr   error
	Tier       Tier
	QualityRaw quality.Metrics
}

// Engine orchestrates the three-tier pipeline of spec.md §4.4: quick
// templates, the TTL response cache, and streaming LLM completion with
// TTS synthesis overlapped at the first sentence boundary (structured
// concurrency: the TTS child task is spawned from inside the LLM
// streaming call and awaited alongside it, newly designed here since
// no source file implements the canonical overlapped design —
// SPEC_FULL.md §12.4).
type Engine struct {
	quick    *QuickResponder
	cache    respcache.Store
	cacheTTL time.Duration
	llm      *llm.Client
	tts      *tts.Client
	prompt   *prompt.Builder
	quality  *quality.Scorer
	voice    string
	format   string
}

// Config collects Engine's dependencies.
type Config struct {
	Cache    respcache.Store
	CacheTTL time.Duration
	LLM      *llm.Client
	TTS      *tts.Client
	Prompt   *prompt.Builder
	Quality  *quality.Scorer
	Voice    string
	Format   string
}

// New constructs an Engine.
func New(cfg Config) *Engine {
	return &Engine{
		quick:    NewQuickResponder(),
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		llm:      cfg.LLM,
		tts:      cfg.TTS,
		prompt:   cfg.Prompt,
		quality:  cfg.Quality,
		voice:    cfg.Voice,
		format:   cfg.Format,
	}
}

// Respond runs the three-tier pipeline for one turn and returns the
// reply text plus synthesized audio. lt is the caller's latency.Turn
// for this turn; Respond marks prompt_built, llm_first_token/llm_done
// (when the LLM tier is used), and tts_done.
func (e *Engine) Respond(
	ctx context.Context,
	state engine.SalesState,
	lead prompt.Lead,
	tone engine.ChannelTone,
	fullTranscript, userText string,
	cacheKey respcache.Key,
	quickAlreadyUsed bool,
	quickSeed int,
	lt *latency.Turn,
) Turn {
	if e.quick.Eligible(state, quickAlreadyUsed) {
		text, _ := e.quick.Render(state, tone, lead.Name, quickSeed)
		lt.Mark(latency.MarkPromptBuilt)
		return e.finish(ctx, text, quality.SourceQuick, userText, lt)
	}

	if cached, ok := e.cache.Get(cacheKey); ok {
		lt.Mark(latency.MarkPromptBuilt)
		return e.finish(ctx, cached, quality.SourceCached, userText, lt)
	}

	builtPrompt := e.prompt.Build(state, lead, tone, fullTranscript, userText)
	lt.Mark(latency.MarkPromptBuilt)

	text, audio, audioErr := e.streamWithOverlap(ctx, builtPrompt, state, lt)

	e.cache.Set(cacheKey, text, e.cacheTTL)

	m := e.quality.Analyze(text, quality.SourceLLM, userText)
	return Turn{Text: text, Audio: audio, AudioErr: audioErr, Tier: quality.SourceLLM, QualityRaw: m}
}

// streamWithOverlap runs the LLM stream as the parent task; as soon as
// the first sentence boundary is seen, a child task is spawned to
// begin TTS synthesis on that sentence while the LLM keeps streaming
// the rest. Both are awaited together; cancelling ctx cancels both
// (spec.md §4.4's overlap requirement).
func (e *Engine) streamWithOverlap(ctx context.Context, builtPrompt string, state engine.SalesState, lt *latency.Turn) (string, []byte, error) {
	g, gctx := errgroup.WithContext(ctx)

	var firstSentenceAudio []byte
	var firstSentenceErr error
	var firstSentence string

	onFirstSentence := func(sentence string) {
		firstSentence = sentence
		g.Go(func() error {
			audio, err := e.tts.Synthesize(gctx, sentence, e.voice, e.format)
			lt.Mark(latency.MarkTTSDone)
			firstSentenceAudio = audio
			firstSentenceErr = err
			return nil // TTS failure degrades, does not fail the turn
		})
	}

	var result llm.Result
	var llmErr error
	g.Go(func() error {
		timeout := time.Duration(state.Timeout() * float64(time.Second))
		result, llmErr = e.llm.CompleteStreaming(gctx, builtPrompt, 150, timeout, onFirstSentence)
		lt.Mark(latency.MarkLLMDone)
		if result.TimeToFirstToken > 0 {
			lt.Mark(latency.MarkLLMFirstToken)
		}
		return nil // errors surfaced via llmErr, not failing the group
	})

	_ = g.Wait()

	if llmErr != nil {
		obslog.Err("response_engine", llmErr).Str("state", state.String()).Msg("llm completion failed")
		return "I'm sorry, could you repeat that?", nil, llmErr
	}

	text := result.Text
	if text == "" {
		text = firstSentence
	}
	text = cleanReply(text)

	if firstSentenceAudio != nil && sentenceCoversReply(firstSentence, text) {
		return text, firstSentenceAudio, firstSentenceErr
	}

	audio, err := e.tts.Synthesize(ctx, text, e.voice, e.format)
	lt.Mark(latency.MarkTTSDone)
	return text, audio, err
}

// sentenceCoversReply reports whether the full reply is just the
// sentence already synthesized, so the overlapped audio can be reused
// verbatim instead of re-synthesizing (common case: a one-sentence
// reply, which is the expected norm under the 150-token budget).
func sentenceCoversReply(firstSentence, full string) bool {
	return firstSentence != "" && len(full) <= len(firstSentence)+2
}

func (e *Engine) finish(ctx context.Context, text string, tier Tier, userText string, lt *latency.Turn) Turn {
	text = cleanReply(text)
	audio, err := e.tts.Synthesize(ctx, text, e.voice, e.format)
	lt.Mark(latency.MarkTTSDone)
	m := e.quality.Analyze(text, tier, userText)
	return Turn{Text: text, Audio: audio, AudioErr: err, Tier: tier, QualityRaw: m}
}
