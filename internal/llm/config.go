package llm

import (
	"os"
	"strconv"
	"time"
)

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	TaskMilestones TaskType = "milestones"
	TaskIntent     TaskType = "intent"
	TaskAssistant  TaskType = "assistant"
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// LLMConfig holds all configuration for the LLM subsystem.
type LLMConfig struct {
	Enabled    bool
	LogCalls   bool
	Endpoint   string // base URL of an OpenAI-compatible API
	APIKey     string
	Model      string
	TimeoutMs  int
	MaxRetries int
	// MinConfidence drops intent matches scored below it.
	MinConfidence float64
	Tasks         map[TaskType]TaskConfig
}

// DefaultConfig returns an LLMConfig with sensible defaults.
// LLM is disabled by default.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Enabled:       false,
		Endpoint:      "http://localhost:11434/v1",
		Model:         "llama3.2",
		TimeoutMs:     15000,
		MaxRetries:    1,
		MinConfidence: 0.5,
		Tasks: map[TaskType]TaskConfig{
			TaskMilestones: {Temperature: 0.2, MaxTokens: 4096, TimeoutMs: 45000},
			TaskIntent:     {Temperature: 0.1, MaxTokens: 512, TimeoutMs: 10000},
			TaskAssistant:  {Temperature: 0.5, MaxTokens: 1024, TimeoutMs: 60000},
		},
	}
}

// LoadConfig reads PATHWAYS_LLM_* variables over the defaults.
func LoadConfig() LLMConfig {
	cfg := DefaultConfig()

	if v := os.Getenv("PATHWAYS_LLM_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("PATHWAYS_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("PATHWAYS_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("PATHWAYS_LLM_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("PATHWAYS_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("PATHWAYS_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("PATHWAYS_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("PATHWAYS_LLM_MIN_CONFIDENCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			cfg.MinConfidence = f
		}
	}

	applyTaskTimeoutEnv(&cfg, TaskMilestones, "PATHWAYS_LLM_MILESTONES_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskIntent, "PATHWAYS_LLM_INTENT_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskAssistant, "PATHWAYS_LLM_ASSISTANT_TIMEOUT_MS")

	return cfg
}

// TaskTimeout returns the timeout of one attempt of task.
func (c LLMConfig) TaskTimeout(task TaskType) time.Duration {
	ms := c.TimeoutMs
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		ms = tc.TimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

func applyTaskTimeoutEnv(cfg *LLMConfig, task TaskType, envName string) {
	n, err := strconv.Atoi(os.Getenv(envName))
	if err != nil || n <= 0 {
		return
	}
	tc := cfg.Tasks[task]
	tc.TimeoutMs = n
	cfg.Tasks[task] = tc
}
