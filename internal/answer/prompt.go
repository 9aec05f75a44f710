package answer

import "fmt"

const (
	SystemPrompt = "You are a helpful assistant that answers questions based on provided context."

	// NotFoundReply is what the model is told to say when the transcript
	// does not contain the answer.
	NotFoundReply = "I cannot find an answer to this question in the provided context."

	// FallbackAnswer is returned when the model produced no text.
	FallbackAnswer = "Sorry, I could not generate an answer."
)

const (
	Temperature float32 = 0.5
	MaxTokens           = 1000
)

// BuildUserPrompt embeds the transcript and question in the instruction
// sent as the user message.
func BuildUserPrompt(question, transcript string) string {
	return fmt.Sprintf(
		"Context: %s\n\n"+
			"Question: %s\n\n"+
			"Please provide a clear and concise answer to the question based on the context provided above.\n"+
			"If the answer cannot be found in the context, please respond with %q",
		transcript, question, NotFoundReply,
	)
}
