package config

import "time"

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format string) *Logger {
	return &Logger{level: level, format: format}
}

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(provider, openAIAPIKey, geminiProject string) *LLM {
	return &LLM{
		provider:      provider,
		openAIAPIKey:  openAIAPIKey,
		geminiProject: geminiProject,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, contentPath string) *Repository {
	return &Repository{backend: backend, contentPath: contentPath}
}

// NewAgentForTest creates an Agent config for testing purposes
func NewAgentForTest(maxRounds, dimension int, ttl time.Duration) *Agent {
	return &Agent{maxRounds: maxRounds, dimension: dimension, queryCacheTTL: ttl}
}
