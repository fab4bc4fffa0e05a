package pipeline

import (
	"strings"
	"time"
)

// buildExtractionPrompt constructs the fixed extraction instruction for one
// message. receivedAt anchors relative dates ("yesterday") so the model can
// resolve them; the normalizer resolves them again locally as a backstop.
func buildExtractionPrompt(rawText string, receivedAt time.Time, context []string) string {
	var b strings.Builder

	b.WriteString("You are a personal finance assistant. Analyze the user's message and decide\n")
	b.WriteString("whether it records a single financial transaction (an expense or an income).\n\n")

	b.WriteString("Output STRICT JSON only (no comments, no trailing text).\n")
	b.WriteString("Output a single JSON object with these fields:\n")
	b.WriteString("- \"is_transaction\": boolean\n")
	b.WriteString("- \"amount\": number or null (positive magnitude, in the smallest currency unit)\n")
	b.WriteString("- \"direction\": \"expense\" or \"income\" or null\n")
	b.WriteString("- \"category\": string or null (a short lowercase noun, e.g. \"food\", \"transport\")\n")
	b.WriteString("- \"description\": string or null (a short restatement of what was bought or received)\n")
	b.WriteString("- \"date\": string \"YYYY-MM-DD\" or null (only when the message names a date)\n")
	b.WriteString("- \"confidence\": number between 0 and 1 (how certain you are about the extraction)\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- If the message is not about recording a transaction, set is_transaction to false\n")
	b.WriteString("  and every other field to null.\n")
	b.WriteString("- Shorthand like \"50k\" means 50000.\n")
	b.WriteString("- A refund or money received is direction \"income\".\n")
	b.WriteString("- Resolve relative dates (\"yesterday\") against the message date below.\n")
	b.WriteString("- Never invent an amount. Missing amount means null.\n")
	b.WriteString("- Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n")
	b.WriteString("- Output must begin with \"{\" and end with \"}\".\n\n")

	b.WriteString("Message date: " + receivedAt.Format("2006-01-02") + "\n")

	if len(context) > 0 {
		b.WriteString("\nRecent conversation (oldest first), for disambiguation only:\n")
		for _, line := range context {
			b.WriteString("- " + line + "\n")
		}
	}

	b.WriteString("\nMessage: ")
	b.WriteString(rawText)
	b.WriteString("\n")

	return b.String()
}
