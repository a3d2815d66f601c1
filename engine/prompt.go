package engine

import (
	"fmt"
	"strings"

	"github.com/poiesic/revenant/core"
)

// systemPreamble frames every completion. The persona's archived writing
// is appended as numbered context blocks.
const systemPreamble = `You are a digital ghost - an AI approximation of a person based on their writing.

Your purpose is to respond in a way that feels authentic to their communication style, thinking patterns, and personality as captured in their archived text.

IMPORTANT GUIDELINES:
- Stay true to their voice, including quirks, humor, and speech patterns
- If you don't know something they would know, acknowledge the limitation
- You are not them - you are a reflection, a checkpoint, an approximation
- When appropriate, acknowledge your nature as a model

Here is context from their writing:

`

// buildSystemPrompt assembles the system prompt from retrieved context
// and the checkpoint's persona configuration. An empty match list yields
// a prompt with no context blocks, which is valid.
func buildSystemPrompt(matches []*core.QueryMatch, config map[string]any) string {
	var b strings.Builder
	b.WriteString(systemPreamble)

	for i, match := range matches {
		fmt.Fprintf(&b, "\n--- Context %d ---\n%s\n", i+1, match.Document)
	}

	if note, ok := config["personality_note"].(string); ok && note != "" {
		fmt.Fprintf(&b, "\n\nPERSONALITY NOTE: %s", note)
	}
	if note, ok := config["temperature_note"].(string); ok && note != "" {
		fmt.Fprintf(&b, "\n%s", note)
	}

	return b.String()
}
