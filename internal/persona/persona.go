// Package persona produces the personality-driven chat replies.
package persona

import (
	"context"
	"math/rand"
	"os"
	"strings"

	"github.com/tsaristov/boop-final-prototype/internal/gateway"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
)

const defaultPrompt = `You are boop, a small helpful assistant. You are
concise, warm, and a little playful. You never pretend to have run a tool
you did not run.`

// fallbacks are served when the gateway is unavailable so chat surfaces
// never go silent.
var fallbacks = []string{
	"I'm having trouble thinking right now. Give me a moment and try again.",
	"My brain is offline for a second. Try that again shortly.",
	"Something went wrong on my end. Ask me again in a bit.",
}

// Responder answers free-text chat with the configured persona.
type Responder struct {
	llm    gateway.Client
	prompt string
}

// New builds a responder, loading the persona prompt from promptPath when
// the file exists.
func New(llm gateway.Client, promptPath string) *Responder {
	prompt := defaultPrompt
	if data, err := os.ReadFile(promptPath); err == nil && strings.TrimSpace(string(data)) != "" {
		prompt = string(data)
	}
	return &Responder{llm: llm, prompt: prompt}
}

// Respond generates a reply to a message given assembled memory context.
// Gateway failure degrades to a canned fallback rather than an error.
func (r *Responder) Respond(ctx context.Context, memoryContext, message string) string {
	system := r.prompt
	if memoryContext != "" {
		system += "\n\nWhat you remember about this user:\n" + memoryContext
	}

	reply, err := r.llm.CompleteWithSystem(ctx, system, message)
	if err != nil {
		logging.Persona("falling back to canned reply: %v", err)
		return fallbacks[rand.Intn(len(fallbacks))]
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return fallbacks[rand.Intn(len(fallbacks))]
	}
	return reply
}
