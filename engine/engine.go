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

package engine

import (
	"context"
	"log/slog"

	"github.com/poiesic/revenant/ai"
	"github.com/poiesic/revenant/core"
	"github.com/poiesic/revenant/storage"
	"github.com/poiesic/revenant/vectorstore"
)

const (
	// DefaultMaxContextMessages bounds the conversation history sent to
	// the completion model.
	DefaultMaxContextMessages = 20

	// DefaultContextDocs is how many archive chunks are retrieved per
	// generation.
	DefaultContextDocs = 5

	// DefaultTemperature is the sampling temperature when the config
	// does not override it.
	DefaultTemperature = 0.8
)

// Result is a generated reply plus the archive chunks that grounded it.
type Result struct {
	Response          string        `json:"response"`
	CheckpointVersion string        `json:"checkpoint_version"`
	Sources           []core.Source `json:"sources"`
}

// Engine generates replies in the archived person's voice. Each call
// retrieves relevant archive chunks, folds in recent conversation, and
// persists the new turns only after the completion succeeds.
type Engine struct {
	store       *vectorstore.Store
	checkpoints storage.CheckpointRepository
	messages    storage.MessageRepository
	completer   ai.Completer

	temperature        float64
	maxContextMessages int
	contextDocs        int
	logger             *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTemperature sets the default sampling temperature.
func WithTemperature(temperature float64) Option {
	return func(e *Engine) {
		e.temperature = temperature
	}
}

// WithMaxContextMessages sets the conversation history window.
func WithMaxContextMessages(limit int) Option {
	return func(e *Engine) {
		e.maxContextMessages = limit
	}
}

// WithContextDocs sets how many archive chunks are retrieved per call.
func WithContextDocs(count int) Option {
	return func(e *Engine) {
		e.contextDocs = count
	}
}

// NewEngine creates an Engine over the given store, repositories, and
// completion service.
func NewEngine(
	store *vectorstore.Store,
	checkpoints storage.CheckpointRepository,
	messages storage.MessageRepository,
	completer ai.Completer,
	opts ...Option,
) *Engine {
	e := &Engine{
		store:              store,
		checkpoints:        checkpoints,
		messages:           messages,
		completer:          completer,
		temperature:        DefaultTemperature,
		maxContextMessages: DefaultMaxContextMessages,
		contextDocs:        DefaultContextDocs,
		logger:             slog.Default().With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate produces a reply to userMessage in the persona's voice. An
// empty version targets the active checkpoint; with none active the call
// fails with core.ErrNoActiveCheckpoint. Both the user turn and the
// assistant turn are persisted, in that order, only after the completion
// succeeds.
func (e *Engine) Generate(ctx context.Context, version, userMessage string) (*Result, error) {
	version, checkpoint, err := e.resolveCheckpoint(ctx, version)
	if err != nil {
		return nil, err
	}
	return e.generate(ctx, version, checkpoint, userMessage, e.temperature, true)
}

// Regenerate discards the persona's most recent reply and produces a new
// one for the same user message. A non-nil temperatureOverride applies to
// this call only. The conversation ends with the same number of messages
// it had before the prior reply was appended, plus the new reply.
func (e *Engine) Regenerate(ctx context.Context, version string, temperatureOverride *float64) (*Result, error) {
	version, checkpoint, err := e.resolveCheckpoint(ctx, version)
	if err != nil {
		return nil, err
	}

	recent, err := e.messages.RecentMessages(ctx, version, 2)
	if err != nil {
		return nil, err
	}
	if len(recent) < 2 {
		return nil, core.ErrNoPriorConversation
	}

	// The delete commits here, so the history re-read below cannot see
	// the stale reply.
	if _, err := e.messages.DeleteLatestMessage(ctx, version); err != nil {
		return nil, err
	}

	temperature := e.temperature
	if temperatureOverride != nil {
		temperature = *temperatureOverride
	}

	// recent is oldest-first, so after the delete the remaining latest
	// message is the user turn we regenerate from. It stays in the log;
	// only the new assistant turn is appended.
	return e.generate(ctx, version, checkpoint, recent[0].Content, temperature, false)
}

func (e *Engine) generate(
	ctx context.Context,
	version string,
	checkpoint *core.Checkpoint,
	userMessage string,
	temperature float64,
	persistUserTurn bool,
) (*Result, error) {
	matches, err := e.store.Query(ctx, version, userMessage, e.contextDocs)
	if err != nil {
		return nil, err
	}

	systemPrompt := buildSystemPrompt(matches, checkpoint.Config)

	history, err := e.messages.RecentMessages(ctx, version, e.maxContextMessages)
	if err != nil {
		return nil, err
	}

	turns := make([]ai.Turn, 0, len(history)+2)
	turns = append(turns, ai.Turn{Role: core.RoleSystem, Content: systemPrompt})
	for _, message := range history {
		turns = append(turns, ai.Turn{Role: message.Role, Content: message.Content})
	}
	// On regeneration the user turn is already the tail of the history
	if persistUserTurn {
		turns = append(turns, ai.Turn{Role: core.RoleUser, Content: userMessage})
	}

	reply, err := e.completer.Complete(ctx, turns, temperature)
	if err != nil {
		e.logger.Error("completion failed", "checkpoint", version, "err", err)
		return nil, err
	}

	// Nothing persists unless the completion succeeded
	newTurns := []*core.Message{}
	if persistUserTurn {
		newTurns = append(newTurns, &core.Message{
			CheckpointVersion: version,
			Role:              core.RoleUser,
			Content:           userMessage,
		})
	}
	newTurns = append(newTurns, &core.Message{
		CheckpointVersion: version,
		Role:              core.RoleAssistant,
		Content:           reply,
	})
	if _, err := e.messages.AppendMessages(ctx, newTurns...); err != nil {
		return nil, err
	}

	sources := make([]core.Source, 0, len(matches))
	for _, match := range matches {
		sources = append(sources, core.Source{
			Content:   match.Document,
			Metadata:  match.Metadata,
			Relevance: 1 - match.Distance,
		})
	}

	e.logger.Info("generated reply", "checkpoint", version, "sources", len(sources), "temperature", temperature)
	return &Result{
		Response:          reply,
		CheckpointVersion: version,
		Sources:           sources,
	}, nil
}

// resolveCheckpoint maps an empty version to the active checkpoint and
// loads the checkpoint record for its persona config.
func (e *Engine) resolveCheckpoint(ctx context.Context, version string) (string, *core.Checkpoint, error) {
	if version == "" {
		active, err := e.checkpoints.GetActiveCheckpoint(ctx)
		if err != nil {
			return "", nil, err
		}
		if active == nil {
			return "", nil, core.ErrNoActiveCheckpoint
		}
		return active.Version, active, nil
	}

	checkpoint, err := e.checkpoints.GetCheckpoint(ctx, version)
	if err != nil {
		return "", nil, err
	}
	return version, checkpoint, nil
}
