// Package config loads runtime settings from the environment, with optional
// .env file support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds every tunable knob of the pipeline. Zero-config defaults
// are production reasonable; environment variables override individual
// fields.
type Settings struct {
	// Provider selects the model backend: "openai" or "anthropic".
	Provider string
	// OpenAIAPIKey and AnthropicAPIKey authenticate the model backends.
	OpenAIAPIKey    string
	AnthropicAPIKey string
	// TavilyAPIKey enables external web search when set.
	TavilyAPIKey string

	// RouterHistoryWindow is how many trailing messages routing sees.
	RouterHistoryWindow int
	// ComposeHistoryWindow is how many trailing messages a direct answer sees.
	ComposeHistoryWindow int
	// MaxModelCallsPerTurn bounds model calls per turn; 0 is unlimited.
	MaxModelCallsPerTurn int

	// CompactThreshold (characters) triggers history compaction; 0 disables.
	CompactThreshold int
	// CompactKeepRecent messages survive compaction verbatim.
	CompactKeepRecent int

	// RetrieveK passages are requested per knowledge lookup.
	RetrieveK int
	// RelevanceThreshold is the minimum verdict confidence for the internal
	// answer path.
	RelevanceThreshold float64

	// MaxDocumentChars rejects oversized summarization inputs; 0 disables.
	MaxDocumentChars int
	// SingleChunkChars is the single-call summarization cutoff.
	SingleChunkChars int
	// MaxChunks caps the chunk plan; 0 disables.
	MaxChunks int

	// RetryMaxAttempts and RetryInitialInterval shape capability retries.
	RetryMaxAttempts     int
	RetryInitialInterval time.Duration
	// CallTimeout caps each individual capability call; 0 disables.
	CallTimeout time.Duration
}

// Defaults returns the baseline settings before environment overrides.
func Defaults() Settings {
	return Settings{
		Provider:             "openai",
		RouterHistoryWindow:  3,
		ComposeHistoryWindow: 10,
		MaxModelCallsPerTurn: 0,
		CompactThreshold:     8_000,
		CompactKeepRecent:    2,
		RetrieveK:            5,
		RelevanceThreshold:   0.6,
		MaxDocumentChars:     500_000,
		SingleChunkChars:     1_000,
		MaxChunks:            50,
		RetryMaxAttempts:     3,
		RetryInitialInterval: 200 * time.Millisecond,
		CallTimeout:          30 * time.Second,
	}
}

// Load reads a .env file when present and applies environment overrides on
// top of the defaults. A missing .env file is not an error.
func Load() (Settings, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv applies environment overrides on top of the defaults without
// touching any .env file.
func FromEnv() (Settings, error) {
	s := Defaults()

	s.Provider = stringEnv("TRIAD_PROVIDER", s.Provider)
	s.OpenAIAPIKey = stringEnv("OPENAI_API_KEY", s.OpenAIAPIKey)
	s.AnthropicAPIKey = stringEnv("ANTHROPIC_API_KEY", s.AnthropicAPIKey)
	s.TavilyAPIKey = stringEnv("TAVILY_API_KEY", s.TavilyAPIKey)

	var err error
	if s.RouterHistoryWindow, err = intEnv("TRIAD_ROUTER_HISTORY_WINDOW", s.RouterHistoryWindow); err != nil {
		return s, err
	}
	if s.ComposeHistoryWindow, err = intEnv("TRIAD_COMPOSE_HISTORY_WINDOW", s.ComposeHistoryWindow); err != nil {
		return s, err
	}
	if s.MaxModelCallsPerTurn, err = intEnv("TRIAD_MAX_MODEL_CALLS_PER_TURN", s.MaxModelCallsPerTurn); err != nil {
		return s, err
	}
	if s.CompactThreshold, err = intEnv("TRIAD_COMPACT_THRESHOLD", s.CompactThreshold); err != nil {
		return s, err
	}
	if s.CompactKeepRecent, err = intEnv("TRIAD_COMPACT_KEEP_RECENT", s.CompactKeepRecent); err != nil {
		return s, err
	}
	if s.RetrieveK, err = intEnv("TRIAD_RETRIEVE_K", s.RetrieveK); err != nil {
		return s, err
	}
	if s.RelevanceThreshold, err = floatEnv("TRIAD_RELEVANCE_THRESHOLD", s.RelevanceThreshold); err != nil {
		return s, err
	}
	if s.MaxDocumentChars, err = intEnv("TRIAD_MAX_DOCUMENT_CHARS", s.MaxDocumentChars); err != nil {
		return s, err
	}
	if s.SingleChunkChars, err = intEnv("TRIAD_SINGLE_CHUNK_CHARS", s.SingleChunkChars); err != nil {
		return s, err
	}
	if s.MaxChunks, err = intEnv("TRIAD_MAX_CHUNKS", s.MaxChunks); err != nil {
		return s, err
	}
	if s.RetryMaxAttempts, err = intEnv("TRIAD_RETRY_MAX_ATTEMPTS", s.RetryMaxAttempts); err != nil {
		return s, err
	}
	if s.RetryInitialInterval, err = durationEnv("TRIAD_RETRY_INITIAL_INTERVAL", s.RetryInitialInterval); err != nil {
		return s, err
	}
	if s.CallTimeout, err = durationEnv("TRIAD_CALL_TIMEOUT", s.CallTimeout); err != nil {
		return s, err
	}

	return s, s.validate()
}

func (s Settings) validate() error {
	switch s.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("config: unknown provider %q", s.Provider)
	}
	if s.RelevanceThreshold < 0 || s.RelevanceThreshold > 1 {
		return fmt.Errorf("config: relevance threshold %v outside [0, 1]", s.RelevanceThreshold)
	}
	if s.CompactKeepRecent < 0 {
		return fmt.Errorf("config: compact keep recent must not be negative")
	}
	return nil
}

func stringEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
