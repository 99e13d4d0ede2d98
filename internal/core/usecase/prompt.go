package usecase

import (
	"fmt"
	"strings"

	"github.com/avolkov/newschat/internal/core/domain"
)

// buildAnswerPrompt assembles the grounded generation prompt: numbered
// passages, the optional category hint, and explicit instructions. When no
// passages survived filtering the context block says so, so the model admits
// the gap instead of fabricating.
func buildAnswerPrompt(question string, candidates []domain.RetrievalCandidate, categoryHint string) string {
	var contextBuilder strings.Builder
	if len(candidates) == 0 {
		contextBuilder.WriteString("(no matching news passages were found)\n")
	}
	for idx, candidate := range candidates {
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] %s (%s, score=%.3f)\n%s\n\n",
			idx+1,
			candidate.Title,
			candidate.Source,
			candidate.Score,
			candidate.Text,
		))
	}

	hint := ""
	if categoryHint != "" {
		hint = fmt.Sprintf("The question appears to be about %s news.\n", categoryHint)
	}

	return fmt.Sprintf(`You are a friendly news assistant. Answer the user's question using only the numbered news passages below.
If the passages are thin or do not cover the question, say so directly instead of inventing facts.
Keep the answer conversational and concise.
%s
Passages:
%s
Question:
%s
`, hint, contextBuilder.String(), question)
}
