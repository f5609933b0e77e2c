package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	GitHubAPIURL string
	GitHubToken  string

	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string

	GitHubTimeout   time.Duration
	CloneTimeout    time.Duration
	LLMTimeout      time.Duration
	ShutdownTimeout time.Duration
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port: os.Getenv("PORT"),

		GitHubAPIURL: os.Getenv("GITHUB_API_URL"),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),

		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   os.Getenv("OPENAI_MODEL"),

		GitHubTimeout:   secondsEnv("GITHUB_TIMEOUT", 10),
		CloneTimeout:    secondsEnv("CLONE_TIMEOUT", 60),
		LLMTimeout:      secondsEnv("LLM_TIMEOUT", 90),
		ShutdownTimeout: secondsEnv("SHUTDOWN_TIMEOUT", 10),
	}

	if cfg.Port == "" {
		cfg.Port = ":8080"
	}
	if !strings.HasPrefix(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}

	if cfg.GitHubAPIURL == "" {
		cfg.GitHubAPIURL = "https://api.github.com"
	}
	cfg.GitHubAPIURL = strings.TrimSuffix(cfg.GitHubAPIURL, "/")

	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	return cfg
}

func secondsEnv(key string, fallback int) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return time.Duration(fallback) * time.Second
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return time.Duration(fallback) * time.Second
	}
	return time.Duration(n) * time.Second
}
