package guardrail

import "strings"

// RefusalMessage is returned verbatim for off-topic input
const RefusalMessage = "I can only answer questions about this portfolio. Please ask me about projects, skills, or blog posts."

var defaultDenyPhrases = []string{
	"write code",
	"fastapi",
	"python code",
	"javascript",
	"react",
	"what is the capital of",
	"who is the president of",
	"ignore your instructions",
	"you are now",
	"act as",
}

// Guardrail classifies user input as off-topic before any model call.
// Matching is case-insensitive substring search, so it can over-match
// (e.g. "react" inside "reactive").
type Guardrail struct {
	phrases []string
}

type Option func(*Guardrail)

// WithExtraPhrases adds deny phrases on top of the built-in list
func WithExtraPhrases(phrases ...string) Option {
	return func(g *Guardrail) {
		for _, p := range phrases {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" {
				g.phrases = append(g.phrases, p)
			}
		}
	}
}

func New(opts ...Option) *Guardrail {
	g := &Guardrail{
		phrases: append([]string{}, defaultDenyPhrases...),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsOffTopic reports whether text should be refused without consulting the
// model.
func (g *Guardrail) IsOffTopic(text string) bool {
	lower := strings.ToLower(text)

	for _, phrase := range g.phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	return looksLikeCode(text, lower)
}

func looksLikeCode(raw, lower string) bool {
	return strings.Contains(lower, "def ") ||
		strings.Contains(lower, "import ") ||
		strings.Contains(raw, "=> {")
}

// Phrases returns a copy of the active deny list
func (g *Guardrail) Phrases() []string {
	return append([]string{}, g.phrases...)
}
