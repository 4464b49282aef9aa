// Package chunker splits extracted document text into overlapping
// passages using three strategies: sentence, paragraph, and fixed.
// The sentence and paragraph strategies split the text into units and
// greedily pack them into chunks of at most chunk_size characters (a
// single unit longer than that becomes a chunk of its own). A new
// sentence chunk is seeded with the previous chunk's trailing sentences
// whose joined length fits within the overlap; a new paragraph chunk
// with the previous chunk's last paragraph only if it fits. The fixed
// strategy slides a chunk_size window with stride chunk_size-overlap.
package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

// Strategy names a chunking algorithm.
type Strategy string

const (
	StrategySentence  Strategy = "sentence"
	StrategyParagraph Strategy = "paragraph"
	StrategyFixed     Strategy = "fixed"
)

// Options configures a single Chunk call.
type Options struct {
	Strategy Strategy
	Size     int
	Overlap  int
}

// Validate checks that size/overlap form a legal window.
func (o Options) Validate() error {
	if o.Size <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive", domain.ErrInvalidInput)
	}
	if o.Overlap < 0 || o.Overlap >= o.Size {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size)", domain.ErrInvalidInput)
	}
	switch o.Strategy {
	case StrategySentence, StrategyParagraph, StrategyFixed:
		return nil
	default:
		return fmt.Errorf("%w: unknown chunking strategy %q", domain.ErrInvalidInput, o.Strategy)
	}
}

// Chunk splits text according to opts. Empty or whitespace-only input
// yields an empty, non-nil slice.
func Chunk(text string, opts Options) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}

	switch opts.Strategy {
	case StrategySentence:
		return chunkUnits(splitSentences(text), opts.Size, opts.Overlap), nil
	case StrategyParagraph:
		return chunkParagraphs(text, opts.Size, opts.Overlap), nil
	case StrategyFixed:
		return chunkFixed(text, opts.Size, opts.Overlap), nil
	default:
		return nil, fmt.Errorf("%w: unknown chunking strategy %q", domain.ErrInvalidInput, opts.Strategy)
	}
}

// chunkUnits greedily packs units (sentences) into chunks no larger than
// size, seeding the next chunk with as many trailing units of the
// previous chunk as fit within overlap.
func chunkUnits(units []string, size, overlap int) []string {
	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.TrimSpace(strings.Join(current, " ")))
	}

	for _, u := range units {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		addLen := len(u)
		if currentLen > 0 {
			addLen++ // joining space
		}
		if currentLen+addLen > size && len(current) > 0 {
			flush()
			current = seedOverlap(current, overlap)
			currentLen = joinedLen(current)
		}
		current = append(current, u)
		currentLen += addLen
	}
	flush()
	if chunks == nil {
		chunks = []string{}
	}
	return chunks
}

// seedOverlap returns the trailing suffix of units whose total joined
// length is <= overlap, used to seed the next chunk.
func seedOverlap(units []string, overlap int) []string {
	if overlap <= 0 {
		return nil
	}
	var seed []string
	length := 0
	for i := len(units) - 1; i >= 0; i-- {
		u := units[i]
		add := len(u)
		if length > 0 {
			add++
		}
		if length+add > overlap {
			break
		}
		seed = append([]string{u}, seed...)
		length += add
	}
	return seed
}

func joinedLen(units []string) int {
	if len(units) == 0 {
		return 0
	}
	total := -1
	for _, u := range units {
		total += len(u) + 1
	}
	return total
}

// chunkParagraphs splits on blank lines, then greedily packs whole
// paragraphs into chunks, seeding the next chunk with the previous chunk's
// last paragraph only if it fits within the configured overlap.
func chunkParagraphs(text string, size, overlap int) []string {
	paragraphs := splitParagraphs(text)

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.TrimSpace(strings.Join(current, "\n\n")))
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		addLen := len(p)
		if currentLen > 0 {
			addLen += 2
		}
		if currentLen+addLen > size && len(current) > 0 {
			flush()
			last := current[len(current)-1]
			if len(last) <= overlap {
				current = []string{last}
				currentLen = len(last)
			} else {
				current = nil
				currentLen = 0
			}
		}
		current = append(current, p)
		currentLen += addLen
	}
	flush()
	if chunks == nil {
		chunks = []string{}
	}
	return chunks
}

// chunkFixed slides a window of size chars with stride size-overlap.
func chunkFixed(text string, size, overlap int) []string {
	runes := []rune(text)
	stride := size - overlap
	var chunks []string
	for pos := 0; pos < len(runes); pos += stride {
		end := pos + size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[pos:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	if chunks == nil {
		chunks = []string{}
	}
	return chunks
}

// splitSentences splits on [.!?] followed by whitespace and a capital
// letter, keeping the terminator attached to the preceding sentence.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	var sentences []string
	var cur strings.Builder

	isEnder := func(r rune) bool { return r == '.' || r == '!' || r == '?' }

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		cur.WriteRune(r)
		if !isEnder(r) {
			continue
		}
		// Look ahead for whitespace + capital, or end of text.
		j := i + 1
		if j >= len(runes) {
			sentences = append(sentences, cur.String())
			cur.Reset()
			continue
		}
		if unicode.IsSpace(runes[j]) {
			k := j
			for k < len(runes) && unicode.IsSpace(runes[k]) {
				k++
			}
			if k >= len(runes) || unicode.IsUpper(runes[k]) {
				sentences = append(sentences, cur.String())
				cur.Reset()
			}
		}
	}
	if cur.Len() > 0 {
		sentences = append(sentences, cur.String())
	}
	return sentences
}

// splitParagraphs splits text on blank lines.
func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	var out []string
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
