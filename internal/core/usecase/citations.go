package usecase

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/finsightlabs/finsight/internal/core/domain"
)

var citationMarker = regexp.MustCompile(`(?i)\[Chunk\s+(\d+)\]`)

const citationPreviewLen = 200

// ExtractCitations maps [Chunk N] markers in a generated answer back to
// the passages that were shown to the generator. Markers are one-based;
// out-of-range references are dropped. Output is deduplicated and
// ordered by passage index.
func ExtractCitations(answer string, passages []domain.RetrievedPassage) []domain.Citation {
	matches := citationMarker.FindAllStringSubmatch(answer, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int]bool, len(matches))
	indexes := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(passages) {
			continue
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		indexes = append(indexes, n)
	}
	if len(indexes) == 0 {
		return nil
	}
	sort.Ints(indexes)

	citations := make([]domain.Citation, 0, len(indexes))
	for _, n := range indexes {
		p := passages[n-1]
		citations = append(citations, domain.Citation{
			Index:   n,
			Preview: previewText(p.Passage.Text),
			Page:    p.Passage.Page,
			Section: p.Passage.Section,
			Score:   p.Score,
		})
	}
	return citations
}

func previewText(text string) string {
	runes := []rune(text)
	if len(runes) <= citationPreviewLen {
		return text
	}
	return string(runes[:citationPreviewLen])
}
