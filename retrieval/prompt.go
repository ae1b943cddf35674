package retrieval

import (
	"fmt"
	"strings"

	"github.com/poiesic/corpus/core"
)

const answerPromptTemplate = `You are answering a question using only the reference passages below.

Rules:
- Use only information from the passages. If they do not contain the answer, say so plainly.
- Cite passages by their number, like [2], next to the statements they support.
- Keep the answer short and direct.

Passages:
%s
Question: %s

Answer:`

// BuildAnswerPrompt renders retrieved hits into a grounded answer
// prompt for a completion model. Each passage is numbered so the model
// can cite it, and labeled with its source document.
func BuildAnswerPrompt(query string, hits []*core.SearchHit) string {
	var passages strings.Builder
	if len(hits) == 0 {
		passages.WriteString("(no relevant passages found)\n")
	}
	for i, hit := range hits {
		source := hit.DocumentTitle
		if source == "" {
			source = hit.DocumentFilename
		}
		if source == "" {
			source = "untitled"
		}
		fmt.Fprintf(&passages, "[%d] %s\n%s\n\n", i+1, source, hit.Fragment.Content)
	}
	return fmt.Sprintf(answerPromptTemplate, passages.String(), query)
}
