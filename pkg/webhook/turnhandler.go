// Package webhook's TurnHandler implements spec.md §4.12's critical
// path, grounded on the teacher's CallHandlers in
// pkg/telephony/call-handlers.go: an HTTP-facing struct wired to the
// lower-level engine/store/response/carrier packages, registering
// routes the same way NewCallHandlers/RegisterRoutes does, but driving
// the SPIN sales-conversation turn instead of SignalWire media-bridge
// session bookkeeping.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/broadcast"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/carrier"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/engine"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/errkind"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/intake"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/latency"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/messaging"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/obslog"
	"github.com/gorilla/websocket"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/prompt"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/quality"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/respcache"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/response"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/store"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/ttscache"
)

// callRuntime is the in-memory ConversationState plus bookkeeping the
// TurnHandler needs between turns of the same call. Per spec.md §3's
// CallGraph ownership note, TurnHandler owns this for the duration of
// a turn. Between turns it is kept in Handler.runtimes keyed by call ID
// (rebuilt from the Call row when absent), and the background
// goroutines finishTurn starts also read it.
type callRuntime struct {
	conv           *engine.ConversationState
	lead           store.Lead
	failures       *engine.FailureTracker
	turnSeq        int
	quickUsed      map[engine.SalesState]bool
	fullTranscript string
}

// Handler wires the webhook surface to the engine.
type Handler struct {
	store         *store.Store
	respEngine    *response.Engine
	ttsCache      *ttscache.Cache
	broadcast     *broadcast.Registry
	carrierClient *carrier.Client
	baseURL       string
	authToken     string
	verifySigs    bool
	latencyAgg    *latency.Tracker
	quality       *quality.Scorer
	followUp      *messaging.FollowUpSender
	voice         string
	format        string
	upgrader      websocket.Upgrader
	dialValidator *intake.Validator

	runtimesMu sync.Mutex
	runtimes   map[uuid.UUID]*callRuntime
}

// Config bundles Handler's dependencies.
type Config struct {
	Store            *store.Store
	Response         *response.Engine
	TTSCache         *ttscache.Cache
	Broadcast        *broadcast.Registry
	Carrier          *carrier.Client
	BaseURL          string
	AuthToken        string
	VerifySignatures bool
	Latency          *latency.Tracker
	Quality          *quality.Scorer
	FollowUp         *messaging.FollowUpSender
	Voice            string
	Format           string
}

// New constructs a Handler.
func New(cfg Config) *Handler {
	dialValidator, err := intake.NewValidator()
	if err != nil {
		obslog.Err("webhook", err).Msg("compile dial request schema failed")
	}
	return &Handler{
		store:         cfg.Store,
		respEngine:    cfg.Response,
		ttsCache:      cfg.TTSCache,
		broadcast:     cfg.Broadcast,
		carrierClient: cfg.Carrier,
		baseURL:       cfg.BaseURL,
		authToken:     cfg.AuthToken,
		verifySigs:    cfg.VerifySignatures,
		latencyAgg:    cfg.Latency,
		quality:       cfg.Quality,
		followUp:      cfg.FollowUp,
		voice:         cfg.Voice,
		format:        cfg.Format,
		upgrader:      websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024, CheckOrigin: func(*http.Request) bool { return true }},
		dialValidator: dialValidator,
		runtimes:      map[uuid.UUID]*callRuntime{},
	}
}

// RegisterRoutes wires the carrier webhook endpoints, the audio-serving
// endpoint of spec.md §6.2, the duplex broadcast endpoint of §6.3, and
// the operator endpoints of §6.4.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/webhook/", h.dispatch)
	mux.HandleFunc("/admin/calls", h.handleDial)
	mux.HandleFunc("/calls/quality/metrics", h.handleQualityMetrics)
	mux.HandleFunc("/calls/", h.handleCallsPath)
	obslog.Event("webhook").Msg("registered webhook routes")
}

// handleCallsPath routes the "/calls/{call_id}/..." surface: the
// tts audio endpoint, the transcript endpoint, and the live-broadcast
// websocket endpoint.
func (h *Handler) handleCallsPath(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.Contains(r.URL.Path, "/tts/"):
		h.handleAudio(w, r)
	case hasSuffix(r.URL.Path, "/transcript"):
		h.handleTranscript(w, r)
	case hasSuffix(r.URL.Path, "/live"):
		h.handleLive(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.writeBadInput(w, "could not parse form body")
		return
	}
	if h.verifySigs && !h.verifyRequest(r) {
		obslog.Warn("webhook").Str("path", r.URL.Path).Msg("signature verification failed")
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	switch {
	case hasSuffix(r.URL.Path, "/turn"):
		h.handleTurn(w, r)
	case hasSuffix(r.URL.Path, "/status"):
		h.handleStatus(w, r)
	case hasSuffix(r.URL.Path, "/recording"):
		h.handleRecording(w, r)
	default:
		h.handleFirstContact(w, r)
	}
}

func (h *Handler) verifyRequest(r *http.Request) bool {
	sig := r.Header.Get("X-Carrier-Signature")
	if sig == "" {
		return false
	}
	reqURL := CanonicalURL(r, h.baseURL)
	return VerifySignature(reqURL, r.PostForm, sig, h.authToken)
}

func (h *Handler) writeBadInput(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusBadRequest)
}

func (h *Handler) getRuntime(callID uuid.UUID) (*callRuntime, bool) {
	h.runtimesMu.Lock()
	defer h.runtimesMu.Unlock()
	rt, ok := h.runtimes[callID]
	return rt, ok
}

func (h *Handler) setRuntime(callID uuid.UUID, rt *callRuntime) {
	h.runtimesMu.Lock()
	defer h.runtimesMu.Unlock()
	h.runtimes[callID] = rt
}

func (h *Handler) dropRuntime(callID uuid.UUID) {
	h.runtimesMu.Lock()
	defer h.runtimesMu.Unlock()
	delete(h.runtimes, callID)
}

// handleFirstContact implements spec.md §6.1's
// "POST /webhook/{call_id}" — first contact when the carrier connects.
func (h *Handler) handleFirstContact(w http.ResponseWriter, r *http.Request) {
	callID, ok := parseCallID(r.URL.Path, "")
	if !ok {
		h.writeBadInput(w, "missing call id")
		return
	}

	ctx := r.Context()
	call, lead, rt, err := h.loadOrCreateRuntime(ctx, callID)
	if err != nil {
		obslog.Err("webhook", err).Str("call_id", callID.String()).Msg("load runtime failed")
		h.writeStateViolation(w)
		return
	}

	lt := latency.NewTurn(callID.String(), rt.conv.State.String())
	lt.Mark(latency.MarkPromptBuilt)

	turn := h.respEngine.Respond(ctx, rt.conv.State, leadToPromptLead(lead), rt.conv.Tone,
		"", "", respcache.Key{}, rt.quickUsed[rt.conv.State], rt.turnSeq, lt)
	rt.quickUsed[rt.conv.State] = true

	h.finishTurn(ctx, call, rt, "", turn, lt, w)
}

// handleTurn implements spec.md §6.1's "POST /webhook/{call_id}/turn":
// the nine-step critical path of §4.12.
func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	callID, ok := parseCallID(r.URL.Path, "/turn")
	if !ok {
		h.writeBadInput(w, "missing call id")
		return
	}
	userText := r.FormValue("SpeechResult")

	ctx := r.Context()

	// Step 1: load Call/Lead, reconstruct ConversationState.
	call, lead, rt, err := h.loadOrCreateRuntime(ctx, callID)
	if err != nil {
		obslog.Err("webhook", err).Str("call_id", callID.String()).Msg("load runtime failed")
		h.writeStateViolation(w)
		return
	}
	if rt.conv.State.IsTerminal() {
		h.respondHangup(w)
		return
	}

	lt := latency.NewTurn(callID.String(), rt.conv.State.String())

	// Step 2: route state using detected intents.
	detector := engine.NewIntentDetector()
	normalized := engine.Normalize(userText)
	intents := detector.Detect(normalized)
	rt.conv.BANT = rt.conv.BANT.UpdateFromText(normalized, rt.conv.PainPointCount)
	engine.ApplyRouting(rt.conv, intents, userText)

	// Step 3: append user utterance; persistence happens at finishTurn
	// time in a fire-and-forget goroutine (critical path never awaits it).
	rt.fullTranscript += "\nProspect: " + userText
	userSeq := rt.turnSeq
	rt.turnSeq++
	// turnSeq advances by two per turn (prospect line, agent line), so
	// halve it to get a seed that advances by one per turn.
	rotationSeed := rt.turnSeq / 2

	// Step 4: call ResponseEngine.
	cacheKey := respcache.BuildKey(rt.conv.State, lead.ID.String(), userText)
	turn := h.respEngine.Respond(ctx, rt.conv.State, leadToPromptLead(lead), rt.conv.Tone,
		rt.fullTranscript, userText, cacheKey, rt.quickUsed[rt.conv.State], rotationSeed, lt)
	rt.quickUsed[rt.conv.State] = true

	// Step 5 (failure-mode repair, a supplemented feature): if the reply
	// looks like a repeat or the discovery phase has stalled, splice in a
	// rotating repair phrase instead of the raw LLM text. The audio
	// already synthesized was for the discarded text, so it is dropped
	// here too — buildTurnMarkup's degrade guard then falls back to
	// carrier-native speech for the repair phrase instead of pointing at
	// audio that was never written under the new text's digest.
	if mode := rt.failures.Observe(rt.conv.State, turn.Text); mode != engine.FailureNone {
		if repair, rerr := engine.RepairPhrase(mode, rotationSeed); rerr == nil {
			turn.Text = repair
			turn.Audio = nil
		}
	}

	h.persistUserTurn(callID, userSeq, userText, rt.conv.State)
	h.finishTurn(ctx, call, rt, userText, turn, lt, w)
}

// finishTurn performs steps 5-9 common to both first-contact and
// per-turn responses: persist the reply, broadcast, build markup,
// emit the latency event.
func (h *Handler) finishTurn(ctx context.Context, call *store.Call, rt *callRuntime, userText string, turn response.Turn, lt *latency.Turn, w http.ResponseWriter) {
	rt.fullTranscript += "\nAgent: " + turn.Text
	replySeq := rt.turnSeq
	rt.turnSeq++

	// Step 6: append reply to transcript (fire-and-forget, isolated
	// session per spec.md §4.12 step 3/6).
	h.persistReplyTurn(call.ID, replySeq, turn.Text, rt.conv.State)
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.store.UpdateState(bgCtx, call.ID, rt.conv.State, rt.conv.BANT); err != nil {
			obslog.Err("webhook", err).Str("call_id", call.ID.String()).Msg("persist state failed")
		}
		lt.Mark(latency.MarkPersistDone)
	}()

	// Step 7: broadcast event, not awaited.
	bus := h.broadcast.Get(call.ID.String())
	go bus.Publish(broadcast.Event{
		CallID: call.ID.String(),
		Kind:   "call_transcript_update",
		At:     time.Now(),
		Data: map[string]string{
			"prospect": userText,
			"agent":    turn.Text,
			"state":    rt.conv.State.String(),
		},
	})

	// Step 8: build carrier markup.
	audioURL := h.audioURLFor(call.ID, turn)
	markup, err := h.buildTurnMarkup(call.ID, rt.conv, audioURL, turn)
	if err != nil {
		obslog.Err("webhook", err).Msg("build markup failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(markup)

	if rt.conv.EndCall {
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			tier := rt.conv.BANT.Tier()
			_ = h.store.Finish(bgCtx, call.ID, store.CallStatusCompleted, tier)
			h.broadcast.Drop(call.ID.String())
			h.dropRuntime(call.ID)

			if h.followUp != nil && (tier == engine.TierHot || tier == engine.TierWarm) {
				h.followUp.SendBookingConfirmation(bgCtx, h.sendSMS, rt.lead.Name, rt.lead.Phone)
			}
		}()
	}

	// Step 9: emit the latency event.
	lt.Finish()
	if h.latencyAgg != nil {
		h.latencyAgg.Record(lt.Elapsed(latency.MarkTotal))
	}
}

func (h *Handler) persistUserTurn(callID uuid.UUID, seq int, text string, state engine.SalesState) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.store.AppendTranscript(ctx, store.TranscriptLine{
			CallID: callID, Seq: seq, Speaker: "prospect", Text: text, State: state, CreatedAt: time.Now(),
		}); err != nil {
			obslog.Err("webhook", err).Msg("persist user turn failed")
		}
	}()
}

func (h *Handler) persistReplyTurn(callID uuid.UUID, seq int, text string, state engine.SalesState) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.store.AppendTranscript(ctx, store.TranscriptLine{
			CallID: callID, Seq: seq, Speaker: "agent", Text: text, State: state, CreatedAt: time.Now(),
		}); err != nil {
			obslog.Err("webhook", err).Msg("persist reply turn failed")
		}
	}()
}

// audioURLFor resolves the content-addressed audio-serving URL for a
// turn's TTS bytes (spec.md §6.2), or "" if synthesis failed (the
// degrade path uses Say markup instead).
func (h *Handler) audioURLFor(callID uuid.UUID, turn response.Turn) string {
	if turn.AudioErr != nil || len(turn.Audio) == 0 {
		return ""
	}
	key := ttscache.Key{Text: turn.Text, Voice: h.voice, Format: h.format}
	filename := filepath.Base(h.ttsCache.FilePath(key))
	return carrier.AudioURLPath(callID.String(), filename)
}

// buildTurnMarkup implements step 8: play the reply, gather the next
// utterance with the state's timeout tier, or hang up if end_call.
func (h *Handler) buildTurnMarkup(callID uuid.UUID, conv *engine.ConversationState, audioURL string, turn response.Turn) ([]byte, error) {
	if conv.EndCall {
		if audioURL != "" {
			return carrier.HangupWithPlay(audioURL)
		}
		return carrier.HangupResponse()
	}

	timeoutSeconds := int(conv.State.Timeout())
	if timeoutSeconds < 4 {
		timeoutSeconds = 4
	}
	turnAction := fmt.Sprintf("%s/webhook/%s/turn", h.baseURL, callID.String())

	if audioURL == "" {
		return carrier.SpokenFallback(turn.Text, "", turnAction, timeoutSeconds)
	}
	return carrier.PlayAndGather(audioURL, turnAction, timeoutSeconds)
}

// sendSMS adapts carrier.Client.SendSMS to the plain-error send
// signature FollowUpSender.SendBookingConfirmation expects.
func (h *Handler) sendSMS(ctx context.Context, from, to, body string) error {
	_, err := h.carrierClient.SendSMS(ctx, from, to, body)
	return err
}

func (h *Handler) respondHangup(w http.ResponseWriter) {
	markup, _ := carrier.HangupResponse()
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(markup)
}

func (h *Handler) writeStateViolation(w http.ResponseWriter) {
	http.Error(w, string(errkind.StateViolation), http.StatusConflict)
}

// handleStatus implements spec.md §6.1's lifecycle-callback endpoint.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	callID, ok := parseCallID(r.URL.Path, "/status")
	if !ok {
		h.writeBadInput(w, "missing call id")
		return
	}
	status := r.FormValue("CallStatus")
	obslog.Event("webhook").Str("call_id", callID.String()).Str("status", status).Msg("call status callback")

	if isTerminalStatus(status) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var tier engine.Tier
		if rt, ok := h.getRuntime(callID); ok {
			tier = rt.conv.BANT.Tier()
		}
		_ = h.store.Finish(ctx, callID, mapCarrierStatus(status), tier)
		h.broadcast.Drop(callID.String())
		h.dropRuntime(callID)
	}
	w.WriteHeader(http.StatusOK)
}

// handleRecording implements spec.md §6.1's recording-ready callback.
func (h *Handler) handleRecording(w http.ResponseWriter, r *http.Request) {
	callID, ok := parseCallID(r.URL.Path, "/recording")
	if !ok {
		h.writeBadInput(w, "missing call id")
		return
	}
	recordingURL := r.FormValue("RecordingUrl")
	obslog.Event("webhook").Str("call_id", callID.String()).Str("recording_url", recordingURL).Msg("recording ready")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.store.SetRecordingURL(ctx, callID, recordingURL); err != nil {
			obslog.Err("webhook", err).Str("call_id", callID.String()).Msg("persist recording url failed")
		}
	}()

	w.WriteHeader(http.StatusOK)
}

// handleAudio implements spec.md §6.2's content-addressed audio
// serving endpoint.
func (h *Handler) handleAudio(w http.ResponseWriter, r *http.Request) {
	_, filename, ok := parseAudioPath(r.URL.Path)
	if !ok || strings.ContainsAny(filename, "/\\") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "audio/"+strings.TrimPrefix(filepath.Ext(filename), "."))
	http.ServeFile(w, r, h.ttsCache.PathForFilename(filename))
}

// handleDial implements the admin-facing "POST /admin/calls" that
// starts a new outbound call: validate the dial request against its
// JSON schema, persist the Lead and Call, then ask the carrier to
// place the call against this call's webhook.
func (h *Handler) handleDial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.dialValidator == nil {
		http.Error(w, "dial request validator unavailable", http.StatusServiceUnavailable)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeBadInput(w, "could not read request body")
		return
	}
	req, err := h.dialValidator.Validate(raw)
	if err != nil {
		h.writeBadInput(w, err.Error())
		return
	}

	ctx := r.Context()
	lead, err := h.store.CreateLead(ctx, store.Lead{
		Name: req.Lead.Name, Company: req.Lead.Company, Title: req.Lead.Title,
		Industry: req.Lead.Industry, Context: req.Lead.Context, Phone: req.Phone,
	})
	if err != nil {
		obslog.Err("webhook", err).Msg("create lead failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	call, err := h.store.CreateCall(ctx, lead.ID)
	if err != nil {
		obslog.Err("webhook", err).Msg("create call failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	placed, err := h.carrierClient.PlaceCall(ctx, carrier.PlaceCallRequest{
		To:                req.Phone,
		AnswerURL:         fmt.Sprintf("%s/webhook/%s", h.baseURL, call.ID.String()),
		StatusCallbackURL: fmt.Sprintf("%s/webhook/%s/status", h.baseURL, call.ID.String()),
		RecordCall:        true,
	})
	if err != nil {
		obslog.Err("webhook", err).Str("call_id", call.ID.String()).Msg("place call failed")
		http.Error(w, "carrier dial failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]interface{}{
		"call_id":      call.ID,
		"lead_id":      lead.ID,
		"provider_sid": placed.SID,
		"status":       placed.Status,
	})
}

// handleQualityMetrics implements spec.md §6.4's
// "GET /calls/quality/metrics" operator endpoint.
func (h *Handler) handleQualityMetrics(w http.ResponseWriter, r *http.Request) {
	if h.quality == nil {
		http.Error(w, "quality scorer not configured", http.StatusServiceUnavailable)
		return
	}
	report := h.quality.Report()
	writeJSON(w, map[string]interface{}{
		"total_responses":      report.TotalResponses,
		"response_distribution": report.Distribution,
		"quality_metrics": map[string]float64{
			"avg_overall_score":   report.AvgOverall,
			"avg_length_words":    report.AvgLengthWords,
			"avg_sentiment_score": report.AvgSentiment,
			"avg_question_density": report.AvgQuestion,
			"avg_engagement_level": report.AvgEngagement,
		},
		"quality_status": report.Status,
	})
}

// handleTranscript implements spec.md §6.4's
// "GET /calls/{call_id}/transcript" operator endpoint.
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	callID, ok := parseCallsID(r.URL.Path, "/transcript")
	if !ok {
		h.writeBadInput(w, "missing call id")
		return
	}
	ctx := r.Context()

	call, err := h.store.GetCall(ctx, callID)
	if err != nil {
		h.writeStateViolation(w)
		return
	}
	lines, err := h.store.Transcript(ctx, callID)
	if err != nil {
		obslog.Err("webhook", err).Str("call_id", callID.String()).Msg("load transcript failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var sb strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&sb, "%s: %s\n", l.Speaker, l.Text)
	}

	duration := 0.0
	if call.EndedAt != nil {
		duration = call.EndedAt.Sub(call.StartedAt).Seconds()
	}

	writeJSON(w, map[string]interface{}{
		"call_id":            call.ID,
		"lead_id":            call.LeadID,
		"status":             call.Status,
		"duration":           duration,
		"sentiment":          call.BANT.Mean(),
		"interest_level":     call.BANT.Tier(),
		"recording_url":      call.RecordingURL,
		"full_transcript":    sb.String(),
		"transcript_summary": transcriptSummary(lines),
	})
}

// transcriptSummary is a minimal extractive summary (first and last
// agent lines), since the real summarization pipeline is out of scope
// (spec.md's post-call enrichment pipeline).
func transcriptSummary(lines []store.TranscriptLine) string {
	if len(lines) == 0 {
		return ""
	}
	var first, last string
	for _, l := range lines {
		if l.Speaker != "agent" {
			continue
		}
		if first == "" {
			first = l.Text
		}
		last = l.Text
	}
	if first == last {
		return first
	}
	return first + " ... " + last
}

// handleLive implements spec.md §6.3's duplex broadcast transport:
// upgrades to a websocket and subscribes the connection to the call's
// Bus until it disconnects.
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	callID, ok := parseCallsID(r.URL.Path, "/live")
	if !ok {
		h.writeBadInput(w, "missing call id")
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		obslog.Warn("webhook").Err(err).Msg("websocket upgrade failed")
		return
	}
	bus := h.broadcast.Get(callID.String())
	bus.Serve(r.Context(), conn)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) loadOrCreateRuntime(ctx context.Context, callID uuid.UUID) (*store.Call, *store.Lead, *callRuntime, error) {
	call, err := h.store.GetCall(ctx, callID)
	if err != nil {
		return nil, nil, nil, err
	}

	if rt, ok := h.getRuntime(callID); ok {
		return call, &rt.lead, rt, nil
	}

	// No in-memory runtime: this is either the first turn of a known
	// call, or a process restart. Either way the Call row tells us which
	// Lead and SalesState to resume from (spec.md §4.12 step 1).
	lead, err := h.store.GetLead(ctx, call.LeadID)
	if err != nil {
		return nil, nil, nil, err
	}

	conv := engine.NewConversationState(engine.ToneColdCall)
	conv.State = call.CurrentState
	rt := &callRuntime{
		conv:      conv,
		lead:      *lead,
		failures:  engine.NewFailureTracker(),
		quickUsed: map[engine.SalesState]bool{},
	}
	h.setRuntime(callID, rt)
	return call, lead, rt, nil
}

func leadToPromptLead(l *store.Lead) prompt.Lead {
	return prompt.Lead{Name: l.Name, Company: l.Company, Title: l.Title, Industry: l.Industry, Context: l.Context}
}

func mapCarrierStatus(carrierStatus string) store.CallStatus {
	switch carrierStatus {
	case "completed":
		return store.CallStatusCompleted
	case "failed", "error":
		return store.CallStatusFailed
	case "no-answer":
		return store.CallStatusNoAnswer
	case "busy":
		return store.CallStatusFailed
	case "canceled":
		return store.CallStatusFailed
	default:
		return store.CallStatusInProgress
	}
}

func isTerminalStatus(status string) bool {
	switch status {
	case "completed", "failed", "error", "no-answer", "busy", "canceled":
		return true
	default:
		return false
	}
}

func hasSuffix(path, suffix string) bool {
	return strings.HasSuffix(path, suffix)
}

func parseCallID(path, suffix string) (uuid.UUID, bool) {
	trimmed := strings.TrimPrefix(path, "/webhook/")
	trimmed = strings.TrimSuffix(trimmed, suffix)
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

func parseCallsID(path, suffix string) (uuid.UUID, bool) {
	trimmed := strings.TrimPrefix(path, "/calls/")
	trimmed = strings.TrimSuffix(trimmed, suffix)
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

func parseAudioPath(path string) (callID, filename string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/calls/")
	parts := strings.SplitN(trimmed, "/tts/", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

