package chunking

import (
	"regexp"
	"strings"

	"github.com/finsightlabs/finsight/internal/core/domain"
)

const (
	defaultTargetSize  = 1000
	defaultOverlapSize = 200

	introSection   = "Introduction"
	defaultSection = "Document"
)

// Header shapes found in financial filings: numbered headings,
// ALL-CAPS lines, Title-Case labels ending with a colon, and markdown
// headers. Checked in order, first match wins.
var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+\.\s+[A-Z].*$`),
	regexp.MustCompile(`^[A-Z][A-Z\s]{5,}$`),
	regexp.MustCompile(`^[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*:$`),
	regexp.MustCompile(`^#{1,3}\s+.+$`),
}

var splitSeparators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits extracted pages into overlapping passages, preserving
// section provenance when SectionAware is on.
type Chunker struct {
	TargetSize   int
	OverlapSize  int
	SectionAware bool
}

func NewChunker(targetSize, overlapSize int, sectionAware bool) *Chunker {
	if targetSize <= 0 {
		targetSize = defaultTargetSize
	}
	if overlapSize < 0 {
		overlapSize = 0
	}
	if overlapSize >= targetSize {
		overlapSize = targetSize / 4
	}
	return &Chunker{
		TargetSize:   targetSize,
		OverlapSize:  overlapSize,
		SectionAware: sectionAware,
	}
}

func (c *Chunker) Chunk(documentID string, pages []domain.Page) []domain.Passage {
	var passages []domain.Passage
	for _, page := range pages {
		for _, section := range c.sections(page.Text) {
			for _, text := range splitGreedy(section.text, c.TargetSize, c.OverlapSize) {
				passages = append(passages, domain.Passage{
					Text:       text,
					DocumentID: documentID,
					Page:       page.Number,
					Section:    section.title,
				})
			}
		}
	}

	for i := range passages {
		passages[i].ChunkIndex = i
		passages[i].TotalChunks = len(passages)
	}
	return passages
}

type section struct {
	title string
	text  string
}

func (c *Chunker) sections(pageText string) []section {
	if strings.TrimSpace(pageText) == "" {
		return nil
	}
	if !c.SectionAware {
		return []section{{title: defaultSection, text: pageText}}
	}

	var out []section
	title := introSection
	var buf []string

	flush := func() {
		body := strings.TrimSpace(strings.Join(buf, "\n"))
		if body != "" {
			out = append(out, section{title: title, text: body})
		}
		buf = buf[:0]
	}

	for _, line := range strings.Split(pageText, "\n") {
		if header, ok := matchHeader(line); ok {
			flush()
			title = header
			continue
		}
		buf = append(buf, line)
	}
	flush()

	if len(out) == 0 {
		return []section{{title: introSection, text: pageText}}
	}
	return out
}

func matchHeader(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}
	for _, pattern := range sectionPatterns {
		if pattern.MatchString(trimmed) {
			return headerTitle(trimmed), true
		}
	}
	return "", false
}

var headerNumbering = regexp.MustCompile(`^\d+\.\s+`)

func headerTitle(header string) string {
	header = strings.TrimLeft(header, "# ")
	header = headerNumbering.ReplaceAllString(header, "")
	header = strings.TrimSuffix(header, ":")
	return strings.TrimSpace(header)
}

// splitGreedy cuts text into ~size-char pieces, preferring to break on
// the highest-priority separator inside the window and falling back to
// a hard cut. Consecutive pieces overlap by the configured amount.
func splitGreedy(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var out []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			if piece := strings.TrimSpace(string(runes[start:])); piece != "" {
				out = append(out, piece)
			}
			break
		}

		cut := findCut(runes[start:end])
		if cut <= 0 {
			cut = size
		}
		if piece := strings.TrimSpace(string(runes[start : start+cut])); piece != "" {
			out = append(out, piece)
		}

		next := start + cut - overlap
		if next <= start {
			next = start + cut
		}
		start = next
	}
	return out
}

func findCut(window []rune) int {
	text := string(window)
	for _, sep := range splitSeparators {
		if idx := strings.LastIndex(text, sep); idx > 0 {
			return len([]rune(text[:idx+len(sep)]))
		}
	}
	return 0
}
