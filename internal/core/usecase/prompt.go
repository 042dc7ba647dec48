package usecase

import (
	"fmt"
	"strings"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/core/ports"
)

const answerInstruction = `You are a document assistant.
Answer the question only from the numbered context sections below.
Cite facts from the sections, do not invent anything.
If the sections do not contain the answer, say you don't know.
`

const fewShotExamples = `Example:
Context:
[1] source=runbook.md
The billing cluster is drained every Sunday at 02:00 UTC for maintenance.

Question: When is the billing cluster drained?
Answer: The billing cluster is drained every Sunday at 02:00 UTC for maintenance.

Example:
Context:
[1] source=gateway.md
The API gateway terminates TLS and forwards plain HTTP to upstreams.

Question: What database does the gateway use?
Answer: I don't know, the context does not mention a database for the gateway.
`

// promptBuilder assembles generation prompts under a token budget.
// Instructions, examples and the question are always included; context
// sections are added in rank order and lower-ranked sections are dropped
// first when the budget runs out.
type promptBuilder struct {
	counter   ports.TokenCounter
	maxTokens int
}

type builtPrompt struct {
	text string
	used []domain.RetrievalCandidate
}

func newPromptBuilder(counter ports.TokenCounter, maxTokens int) promptBuilder {
	return promptBuilder{counter: counter, maxTokens: maxTokens}
}

func (b promptBuilder) build(question string, candidates []domain.RetrievalCandidate) builtPrompt {
	suffix := fmt.Sprintf("\nQuestion: %s\nAnswer:", question)

	var sb strings.Builder
	sb.WriteString(answerInstruction)
	sb.WriteString("\n")
	sb.WriteString(fewShotExamples)
	sb.WriteString("\nContext:\n")

	budget := b.maxTokens - b.counter.Count(sb.String()) - b.counter.Count(suffix)

	used := make([]domain.RetrievalCandidate, 0, len(candidates))
	for i, c := range candidates {
		section := fmt.Sprintf("[%d] source=%s\n%s\n", i+1, c.Source, c.Text)
		cost := b.counter.Count(section)
		if cost > budget {
			break
		}
		sb.WriteString(section)
		budget -= cost
		used = append(used, c)
	}

	sb.WriteString(suffix)
	return builtPrompt{text: sb.String(), used: used}
}
