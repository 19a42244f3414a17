package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	switch environment {
	case "development", "staging":
		prefix = "staging"
	case "test":
		prefix = "test"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

func (kb *KeyBuilder) KeyTypeStats(filterHash string) string {
	return kb.BuildKey(fmt.Sprintf(KeyTypeStats, filterHash))
}

// KeyStatsPattern matches every cached stats entry
func (kb *KeyBuilder) KeyStatsPattern() string {
	return kb.BuildKey(KeyStatsPrefix + "*")
}

func (kb *KeyBuilder) KeyVoteLock(pollID, voterID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyVoteLock, pollID, voterID))
}
