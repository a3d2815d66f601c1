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


package core

import "errors"

// Domain errors. These map 1:1 to client-facing failures at the HTTP
// boundary; everything else is surfaced as an opaque server error.
var (
	// ErrDuplicateVersion indicates a checkpoint version already exists.
	ErrDuplicateVersion = errors.New("checkpoint version already exists")

	// ErrNotFound indicates the addressed checkpoint does not exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrNoActiveCheckpoint indicates no version was given and none is
	// active. This is a configuration state, not a missing entity.
	ErrNoActiveCheckpoint = errors.New("no active checkpoint")

	// ErrNoPriorConversation indicates regeneration was requested with
	// fewer than two prior messages.
	ErrNoPriorConversation = errors.New("no previous conversation to regenerate")

	// ErrUpstream indicates the embedding or completion capability failed.
	ErrUpstream = errors.New("upstream AI service failure")
)

// Validation errors
var (
	// ErrInvalidMessage indicates a Message failed validation.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidRole indicates an unrecognized Role value.
	ErrInvalidRole = errors.New("invalid role")

	// ErrEmptyVersion indicates a checkpoint version string is empty.
	ErrEmptyVersion = errors.New("version cannot be empty")
)
