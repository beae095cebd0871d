// Package quality implements the QualityScorer of spec.md §4.10,
// grounded on utils/quality_tracker.py's ResponseQualityTracker.
package quality

import (
	"regexp"
	"strings"
	"sync"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/obslog"
)

var (
	positiveMarkers = []string{
		"makes sense", "great", "perfect", "exactly", "agreed",
		"sounds good", "interested", "like this", "love that",
		"that's helpful", "very useful", "absolutely",
	}
	negativeMarkers = []string{
		"not interested", "don't need", "waste of time", "irrelevant",
		"boring", "confusing", "unhelpful", "bad", "terrible",
	}
	engagementMarkers = []string{
		"how", "when", "what", "tell me", "show me", "explain",
		"interested", "curious", "question", "ask",
	}
)

var sentenceSplit = regexp.MustCompile(`[.!?]`)

// Status buckets the overall score per spec.md §4.10.
type Status string

const (
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusAcceptable Status = "acceptable"
	StatusDegraded  Status = "degraded"
	StatusPoor      Status = "poor"
)

// Source tags the reply's origin for the response-distribution report
// (spec.md §6.4).
type Source string

const (
	SourceQuick  Source = "quick"
	SourceCached Source = "cached"
	SourceLLM    Source = "llm"
)

// Metrics is the per-response analysis output.
type Metrics struct {
	ResponseType    Source
	WordCount       int
	LengthScore     float64
	SentimentScore  float64
	QuestionDensity float64
	DensityScore    float64
	EngagementScore float64
	CoherenceScore  float64
	OverallScore    float64
}

// Scorer tracks a sliding window of recent scores per spec.md §4.10.
type Scorer struct {
	mu            sync.Mutex
	history       []Metrics
	totalByType   map[Source]int64
	baseline      float64
	alertMargin   float64
}

// New constructs a Scorer with the given baseline and alert margin
// (spec.md §6.6 QUALITY_BASELINE_SCORE / QUALITY_ALERT_THRESHOLD).
func New(baseline, alertMargin float64) *Scorer {
	return &Scorer{
		totalByType: map[Source]int64{},
		baseline:    baseline,
		alertMargin: alertMargin,
	}
}

// Analyze computes the five weighted sub-scores (20/25/20/15/20) and
// records the result in the sliding window. Must complete in <=5ms
// (spec.md §4.10). pkg/response calls it synchronously on the reply
// path, once per reply, and returns the Metrics in response.Turn.
func (s *Scorer) Analyze(replyText string, source Source, userText string) Metrics {
	replyLower := strings.ToLower(strings.TrimSpace(replyText))
	userLower := strings.ToLower(strings.TrimSpace(userText))

	wordCount := len(strings.Fields(replyText))
	lengthScore := scoreLength(wordCount)
	sentimentScore := analyzeSentiment(replyLower)

	questionCount := strings.Count(replyText, "?")
	sentenceCount := len(sentenceSplit.Split(replyText, -1)) - 1
	if sentenceCount < 1 {
		sentenceCount = 1
	}
	density := float64(questionCount) / float64(sentenceCount)
	densityScore := scoreQuestionDensity(density)

	engagementScore := countMarkers(replyLower, engagementMarkers)
	coherenceScore := scoreCoherence(replyLower, userLower)

	overall := lengthScore*0.20 + sentimentScore*0.25 + densityScore*0.20 +
		engagementScore*0.15 + coherenceScore*0.20

	m := Metrics{
		ResponseType:    source,
		WordCount:       wordCount,
		LengthScore:     lengthScore,
		SentimentScore:  sentimentScore,
		QuestionDensity: density,
		DensityScore:    densityScore,
		EngagementScore: engagementScore,
		CoherenceScore:  coherenceScore,
		OverallScore:    overall,
	}

	s.mu.Lock()
	s.history = append(s.history, m)
	if len(s.history) > 200 {
		s.history = s.history[len(s.history)-200:]
	}
	s.totalByType[source]++
	s.mu.Unlock()

	obslog.Event("quality").
		Str("source", string(source)).
		Float64("overall_score", overall).
		Msg("response scored")

	return m
}

func scoreLength(words int) float64 {
	switch {
	case words < 20:
		return 30.0
	case words < 50:
		return 70.0
	case words <= 150:
		return 100.0
	case words <= 200:
		return 80.0
	default:
		return 50.0
	}
}

func analyzeSentiment(lower string) float64 {
	positive := countOccurrences(lower, positiveMarkers)
	negative := countOccurrences(lower, negativeMarkers)
	if positive+negative == 0 {
		return 70.0
	}
	ratio := float64(positive) / float64(positive+negative)
	return min(100.0, ratio*100)
}

func scoreQuestionDensity(density float64) float64 {
	switch {
	case density == 0:
		return 70.0
	case density >= 0.2 && density <= 0.8:
		return 100.0
	case density < 0.2:
		return 80.0
	default:
		return 60.0
	}
}

func countMarkers(text string, markers []string) float64 {
	count := countOccurrences(text, markers)
	return min(100.0, float64(count)*20)
}

var stopWords = map[string]bool{
	"is": true, "are": true, "the": true, "a": true, "an": true,
	"to": true, "of": true, "in": true, "for": true, "and": true, "or": true,
}

func scoreCoherence(reply, userText string) float64 {
	replyWords := wordSet(reply)
	userWords := wordSet(userText)
	for w := range stopWords {
		delete(replyWords, w)
		delete(userWords, w)
	}
	if len(userWords) == 0 {
		return 80.0
	}
	overlap := 0
	for w := range replyWords {
		if userWords[w] {
			overlap++
		}
	}
	ratio := float64(overlap) / float64(len(userWords))
	score := ratio * 100
	return clamp(score, 60.0, 100.0)
}

func wordSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(s) {
		out[w] = true
	}
	return out
}

func countOccurrences(text string, markers []string) int {
	count := 0
	for _, m := range markers {
		if strings.Contains(text, m) {
			count++
		}
	}
	return count
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AssessStatus buckets score per spec.md §4.10's thresholds.
func AssessStatus(score float64) Status {
	switch {
	case score >= 85:
		return StatusExcellent
	case score >= 75:
		return StatusGood
	case score >= 65:
		return StatusAcceptable
	case score >= 50:
		return StatusDegraded
	default:
		return StatusPoor
	}
}

// Alert is emitted when the windowed mean falls below baseline by more
// than alertMargin.
type Alert struct {
	Severity    string
	Message     string
	Degradation float64
}

// CheckAlert inspects the last 50 scores against the configured
// baseline (spec.md §4.10).
func (s *Scorer) CheckAlert() *Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return nil
	}
	window := s.history
	if len(window) > 50 {
		window = window[len(window)-50:]
	}
	var sum float64
	for _, m := range window {
		sum += m.OverallScore
	}
	avg := sum / float64(len(window))

	if avg < s.baseline-s.alertMargin {
		degradation := s.baseline - avg
		severity := "warning"
		if degradation >= s.alertMargin*2 {
			severity = "critical"
		}
		return &Alert{
			Severity:    severity,
			Degradation: degradation,
			Message:     "quality degraded below baseline",
		}
	}
	return nil
}

// Report is the operator-facing summary for spec.md §6.4.
type Report struct {
	TotalResponses int64
	Distribution   map[Source]float64
	AvgOverall     float64
	AvgLengthWords float64
	AvgSentiment   float64
	AvgQuestion    float64
	AvgEngagement  float64
	Status         Status
}

// Report computes the operator metrics endpoint payload.
func (s *Scorer) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, n := range s.totalByType {
		total += n
	}

	dist := map[Source]float64{}
	if total > 0 {
		for src, n := range s.totalByType {
			dist[src] = float64(n) / float64(total) * 100
		}
	}

	recent := s.history
	if len(recent) > 100 {
		recent = recent[len(recent)-100:]
	}

	var sumOverall, sumLen, sumSent, sumQ, sumEng float64
	for _, m := range recent {
		sumOverall += m.OverallScore
		sumLen += float64(m.WordCount)
		sumSent += m.SentimentScore
		sumQ += m.QuestionDensity
		sumEng += m.EngagementScore
	}
	n := float64(len(recent))
	if n == 0 {
		n = 1
	}

	avgOverall := sumOverall / n
	return Report{
		TotalResponses: total,
		Distribution:   dist,
		AvgOverall:     avgOverall,
		AvgLengthWords: sumLen / n,
		AvgSentiment:   sumSent / n,
		AvgQuestion:    sumQ / n,
		AvgEngagement:  sumEng / n,
		Status:         AssessStatus(avgOverall),
	}
}
