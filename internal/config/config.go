// Package config loads process configuration from environment variables.
// Config *file* loading is explicitly out of scope; every field has an
// env var and a default, and CLI flags may override individual fields
// after Load returns.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config aggregates every component's settings into nested sections.
type Config struct {
	Audio    AudioConfig
	Screen   ScreenConfig
	STT      STTConfig
	Storage  StorageConfig
	Query    QueryConfig
	RPC      RPCConfig
	Reactive ReactiveConfig
}

// AudioConfig controls device capture and VAD.
type AudioConfig struct {
	SampleRate           int
	VADThreshold         float64
	MaxSilenceChunks     int
	CaptureSystemAudio   bool
	ExcludedAudioDevices []string
}

// ScreenConfig controls capture cadence and change gating.
type ScreenConfig struct {
	CaptureRate           float64 // Hz
	ChangeThreshold       float64 // significance gate, default 0.05
	StealthModeEnabled    bool
	CompressedJPEGQuality int
}

// STTConfig controls the speech-to-text model manager.
type STTConfig struct {
	ModelDir        string
	PreferredModel  string // e.g. "base.en"; empty means best-available
	DownloadMissing bool
}

// StorageConfig controls the relational store.
type StorageConfig struct {
	DatabasePath string
	DataDir      string // session-scoped PNG frame directory root
}

// QueryConfig controls the NL query layer and security validator.
type QueryConfig struct {
	MaxQueryLength    int
	MaxResultLimit    int
	ReadOnly          bool
	LLMProviders      []string // preference order, e.g. "anthropic,openai"
}

// RPCConfig controls the JSON-RPC surface and the capture daemon's live
// event-watch endpoint.
type RPCConfig struct {
	ProtocolVersion string
	ServerName      string
	WatchAddr       string // host:port the capture daemon's watch websocket listens on
}

// ReactiveConfig controls coding-problem detection and solution generation.
type ReactiveConfig struct {
	Enabled          bool
	Cooldown         float64 // seconds
	ContextWindow    int     // rolling screens kept for the detector
	CacheEnabled     bool
	DetectionThresh  float64
}

// Load reads Config from the environment, falling back to defaults.
func Load() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:           getEnvInt("AUDIO_SAMPLE_RATE", 16000),
			VADThreshold:         getEnvFloat("AUDIO_VAD_THRESHOLD", 0.5),
			MaxSilenceChunks:     getEnvInt("AUDIO_MAX_SILENCE_CHUNKS", 15),
			CaptureSystemAudio:   getEnvBool("AUDIO_CAPTURE_SYSTEM", true),
			ExcludedAudioDevices: getEnvList("AUDIO_EXCLUDED_DEVICES", []string{"iphone", "teams"}),
		},
		Screen: ScreenConfig{
			CaptureRate:           getEnvFloat("SCREEN_CAPTURE_RATE", 1.0),
			ChangeThreshold:       getEnvFloat("SCREEN_CHANGE_THRESHOLD", 0.05),
			StealthModeEnabled:    getEnvBool("SCREEN_STEALTH_MODE", true),
			CompressedJPEGQuality: getEnvInt("SCREEN_JPEG_QUALITY", 80),
		},
		STT: STTConfig{
			ModelDir:        getEnv("STT_MODEL_DIR", defaultModelDir()),
			PreferredModel:  getEnv("STT_PREFERRED_MODEL", ""),
			DownloadMissing: getEnvBool("STT_DOWNLOAD_MISSING", true),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("STORAGE_DB_PATH", defaultDataDir()+"/observatory.db"),
			DataDir:      getEnv("STORAGE_DATA_DIR", defaultDataDir()+"/frames"),
		},
		Query: QueryConfig{
			MaxQueryLength: getEnvInt("QUERY_MAX_LENGTH", 1000),
			MaxResultLimit: getEnvInt("QUERY_MAX_RESULT_LIMIT", 500),
			ReadOnly:       getEnvBool("QUERY_READ_ONLY", false),
			LLMProviders:   getEnvList("QUERY_LLM_PROVIDERS", []string{"anthropic", "openai"}),
		},
		RPC: RPCConfig{
			ProtocolVersion: getEnv("RPC_PROTOCOL_VERSION", "2024-11-05"),
			ServerName:      getEnv("RPC_SERVER_NAME", "observatory"),
			WatchAddr:       getEnv("RPC_WATCH_ADDR", "127.0.0.1:7787"),
		},
		Reactive: ReactiveConfig{
			Enabled:         getEnvBool("REACTIVE_ENABLED", true),
			Cooldown:        getEnvFloat("REACTIVE_COOLDOWN", 10.0),
			ContextWindow:   getEnvInt("REACTIVE_CONTEXT_WINDOW", 5),
			CacheEnabled:    getEnvBool("REACTIVE_CACHE_ENABLED", true),
			DetectionThresh: getEnvFloat("REACTIVE_DETECTION_THRESHOLD", 0.7),
		},
	}
}

// DefaultDataDir exposes the same XDG-aware base directory Load uses
// for its own defaults, so callers outside this package (such as the
// capture daemon's PID file) stay under the same root without
// duplicating the lookup.
func DefaultDataDir() string {
	return defaultDataDir()
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return xdg + "/savant-ai"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".savant-ai"
	}
	return home + "/.local/share/savant-ai"
}

func defaultModelDir() string {
	return defaultDataDir() + "/models"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
