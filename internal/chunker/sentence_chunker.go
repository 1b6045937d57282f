package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"qarag/internal/domain"
)

// SentenceChunker splits document text into size-bounded chunks,
// preferring sentence boundaries. chunkSize and chunkOverlap are
// measured in characters; overlap is filled with whole trailing
// sentences from the previous chunk.
type SentenceChunker struct {
	chunkSize    int
	chunkOverlap int
	splitter     *regexp.Regexp
}

func NewSentenceChunker(chunkSize, chunkOverlap int) *SentenceChunker {
	if chunkSize <= 0 {
		chunkSize = 2048
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &SentenceChunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		splitter:     regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk splits the document and stamps every chunk with a copy of the
// parent metadata. Most QA questions fit in a single chunk at the
// default size.
func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var sentences []string
	consumed := 0
	for _, m := range c.splitter.FindAllStringIndex(document.Text, -1) {
		sentences = append(sentences, document.Text[m[0]:m[1]])
		consumed = m[1]
	}
	// Text past the last terminator has no sentence match but still
	// must be indexed.
	if tail := strings.TrimSpace(document.Text[consumed:]); tail != "" {
		sentences = append(sentences, tail)
	}
	if len(sentences) == 0 {
		return nil, nil
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	// A single sentence longer than the budget is split hard.
	sentences = splitOversized(sentences, c.chunkSize)

	var chunks []domain.Chunk
	var current []string
	currentLen := 0
	idx := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, domain.Chunk{
			ID:         document.ID + ":" + strconv.Itoa(idx),
			DocumentID: document.ID,
			Index:      idx,
			Text:       strings.Join(current, " "),
			Metadata:   copyMetadata(document.Metadata),
		})
		idx++
	}

	for _, sentence := range sentences {
		if currentLen > 0 && currentLen+len(sentence)+1 > c.chunkSize {
			flush()
			current, currentLen = c.overlapTail(current)
		}
		current = append(current, sentence)
		currentLen += len(sentence) + 1
	}
	flush()
	return chunks, nil
}

// overlapTail keeps the trailing sentences of the previous chunk up to
// the overlap budget.
func (c *SentenceChunker) overlapTail(previous []string) ([]string, int) {
	if c.chunkOverlap == 0 {
		return nil, 0
	}
	var tail []string
	length := 0
	for i := len(previous) - 1; i >= 0; i-- {
		if length+len(previous[i])+1 > c.chunkOverlap {
			break
		}
		tail = append([]string{previous[i]}, tail...)
		length += len(previous[i]) + 1
	}
	return tail, length
}

func splitOversized(sentences []string, chunkSize int) []string {
	var out []string
	for _, sentence := range sentences {
		for len(sentence) > chunkSize {
			out = append(out, sentence[:chunkSize])
			sentence = sentence[chunkSize:]
		}
		if sentence != "" {
			out = append(out, sentence)
		}
	}
	return out
}

func copyMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for key, value := range metadata {
		out[key] = value
	}
	return out
}
