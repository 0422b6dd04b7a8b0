// Package config provides centralized configuration management.
// Keeps os.Getenv calls out of the rest of the codebase.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// ParleyEnv holds all parley environment variables.
type ParleyEnv struct {
	// DataDir is where the sqlite database lives (PARLEY_DATA_DIR)
	DataDir string

	// AgentURL is the agent-invocation service base URL (PARLEY_AGENT_URL)
	AgentURL string

	// APIKey authenticates against the agent service (PARLEY_API_KEY)
	APIKey string

	// Persona is the default persona for new sessions (PARLEY_PERSONA)
	Persona string

	// Streaming selects streaming invocations (PARLEY_STREAMING)
	Streaming bool

	// SaveDelay is the autosave quiet period (PARLEY_SAVE_DELAY_MS)
	SaveDelay time.Duration

	// DirectoryLimit bounds directory listings (PARLEY_DIRECTORY_LIMIT)
	DirectoryLimit int
}

var (
	env     *ParleyEnv
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Env() *ParleyEnv {
	envOnce.Do(func() {
		env = &ParleyEnv{
			DataDir:        getEnvDefault("PARLEY_DATA_DIR", defaultDataDir()),
			AgentURL:       getEnvDefault("PARLEY_AGENT_URL", "http://localhost:8780"),
			APIKey:         os.Getenv("PARLEY_API_KEY"),
			Persona:        getEnvDefault("PARLEY_PERSONA", "scribe"),
			Streaming:      os.Getenv("PARLEY_STREAMING") == "1",
			SaveDelay:      time.Duration(getEnvInt("PARLEY_SAVE_DELAY_MS", 2000)) * time.Millisecond,
			DirectoryLimit: getEnvInt("PARLEY_DIRECTORY_LIMIT", 50),
		}
	})
	return env
}

// ResetEnv resets the cached environment (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".parley"
	}
	return filepath.Join(home, ".parley")
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
