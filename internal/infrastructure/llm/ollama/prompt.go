package ollama

import (
	"fmt"
	"strings"

	"github.com/finsightlabs/finsight/internal/core/domain"
)

const maxHistoryTurns = 6

func buildAnswerPrompt(question string, passages []domain.RetrievedPassage, history []domain.ConversationTurn) string {
	var contextBuilder strings.Builder
	for idx, p := range passages {
		fmt.Fprintf(&contextBuilder,
			"[Chunk %d] page=%d section=%s score=%.3f\n%s\n\n",
			idx+1,
			p.Passage.Page,
			p.Passage.Section,
			p.Score,
			p.Passage.Text,
		)
	}

	var historyBuilder strings.Builder
	turns := history
	if len(turns) > maxHistoryTurns {
		turns = turns[len(turns)-maxHistoryTurns:]
	}
	for _, turn := range turns {
		fmt.Fprintf(&historyBuilder, "%s: %s\n", turn.Role, turn.Content)
	}

	return fmt.Sprintf(`Answer the user question only from the document excerpts below.
Cite every fact with its chunk marker, e.g. [Chunk 2].
If the excerpts do not contain the answer, reply exactly: Not available in the document.

Conversation so far:
%s
Question:
%s

Excerpts:
%s`, historyBuilder.String(), question, contextBuilder.String())
}
