package domain

import "strings"

// PromptKind distinguishes the two generation flows.
type PromptKind string

// Prompt kinds.
const (
	// PromptAnswer asks a question against retrieved context.
	PromptAnswer PromptKind = "answer"

	// PromptSummary summarises a document prefix.
	PromptSummary PromptKind = "summary"
)

// answerInstructions keeps generation grounded in retrieved context only.
const answerInstructions = "Answer the question based ONLY on the following context. " +
	"If the context does not contain enough information to answer the question, " +
	"respond with 'I cannot find sufficient information in the provided documents to answer this question.'"

// summaryInstructions produces a concise document summary.
const summaryInstructions = "Provide a concise summary of the following document. " +
	"Focus on the main topics, key points, and important information."

// Prompt is the structured input to a generation provider. Generative
// backends render it to text; the context-only fallback returns the
// context directly.
type Prompt struct {
	// Kind selects the instruction template.
	Kind PromptKind

	// Context holds retrieved chunk texts (with document-title
	// provenance) and graph facts, highest relevance first.
	Context []string

	// Question is the user's question; empty for summaries.
	Question string
}

// Render produces the text form of the prompt for generative providers.
func (p Prompt) Render() string {
	var sb strings.Builder
	switch p.Kind {
	case PromptSummary:
		sb.WriteString(summaryInstructions)
		sb.WriteString("\n\nDocument:\n")
		sb.WriteString(strings.Join(p.Context, "\n\n"))
		sb.WriteString("\n\nSummary:")
	default:
		sb.WriteString(answerInstructions)
		sb.WriteString("\n\nContext:\n")
		sb.WriteString(strings.Join(p.Context, "\n\n"))
		sb.WriteString("\n\nQuestion: ")
		sb.WriteString(p.Question)
		sb.WriteString("\n\nAnswer:")
	}
	return sb.String()
}
