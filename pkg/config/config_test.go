package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadAppliesDefaultsWhenUnset(t *testing.T) {
	t.Setenv("LLM_MODEL", "")
	t.Setenv("TTS_VOICE", "")
	t.Setenv("QUALITY_BASELINE_SCORE", "")

	cfg := Load()
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, "Joanna", cfg.TTSVoice)
	assert.Equal(t, 75.0, cfg.QualityBaselineScore)
	assert.True(t, cfg.SignatureVerificationEnabled)
}

func TestLoadReadsOverridesFromEnvironment(t *testing.T) {
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("TTS_MEMORY_CACHE_SIZE", "200")
	t.Setenv("RESPONSE_CACHE_TTL_SECONDS", "120")
	t.Setenv("SIGNATURE_VERIFICATION_ENABLED", "false")

	cfg := Load()
	assert.Equal(t, "gpt-4o", cfg.LLMModel)
	assert.Equal(t, 200, cfg.TTSMemoryCacheSize)
	assert.Equal(t, 120*time.Second, cfg.ResponseCacheTTL)
	assert.False(t, cfg.SignatureVerificationEnabled)
}

func TestGetEnvIgnoresBlankValueAsUnset(t *testing.T) {
	t.Setenv("SOME_KEY", "   ")
	assert.Equal(t, "fallback", getEnv("SOME_KEY", "fallback"))
}

func TestGetEnvIntFallsBackOnUnparseable(t *testing.T) {
	t.Setenv("BAD_INT", "not-a-number")
	assert.Equal(t, 42, getEnvInt("BAD_INT", 42))
}

func TestGetEnvBoolParsesTrueFalse(t *testing.T) {
	t.Setenv("FLAG", "true")
	assert.True(t, getEnvBool("FLAG", false))

	t.Setenv("FLAG", "false")
	assert.False(t, getEnvBool("FLAG", true))
}
