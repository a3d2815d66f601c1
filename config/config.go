// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads runtime configuration from the environment, with
// an optional .env file for local development. Every setting has a
// documented default so a bare environment still yields a runnable
// configuration.
package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/poiesic/revenant/ai"
)

// Config is the full runtime configuration.
//
// Environment variables and defaults:
//
//	REVENANT_DB_PATH      storage directory            (default "revenant.db")
//	HTTP_ADDR             HTTP listen address          (default ":8000")
//	OPENAI_BASE_URL       OpenAI-compatible API base   (default "https://api.openai.com/v1")
//	OPENAI_API_KEY        API key                      (default "none")
//	EMBEDDING_MODEL       embedding model              (default "text-embedding-3-small")
//	COMPLETION_MODEL      completion model             (default "gpt-4-turbo-preview")
//	TEMPERATURE           sampling temperature         (default 0.8)
//	MAX_CONTEXT_MESSAGES  history window per request   (default 20)
type Config struct {
	DBPath             string
	HTTPAddr           string
	BaseURL            string
	APIKey             string
	EmbeddingModel     string
	CompletionModel    string
	Temperature        float64
	MaxContextMessages int
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables win over the file.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Debug("no .env file loaded", "err", err)
	}

	return &Config{
		DBPath:             getEnv("REVENANT_DB_PATH", "revenant.db"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8000"),
		BaseURL:            getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		APIKey:             getEnv("OPENAI_API_KEY", "none"),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		CompletionModel:    getEnv("COMPLETION_MODEL", "gpt-4-turbo-preview"),
		Temperature:        getEnvFloat("TEMPERATURE", 0.8),
		MaxContextMessages: getEnvInt("MAX_CONTEXT_MESSAGES", 20),
	}
}

// AIConfig derives the AI provider configuration.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.BaseURL),
		ai.WithToken(c.APIKey),
		ai.WithEmbeddingModel(c.EmbeddingModel),
		ai.WithCompletionModel(c.CompletionModel),
		ai.WithTemperature(c.Temperature),
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("invalid float in environment, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid int in environment, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return parsed
}
