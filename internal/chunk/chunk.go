// Package chunk splits a text blob into an ordered sequence of bounded
// retrieval units using one of three strategies (markdown, code, sliding
// window), chosen by file extension, per spec §4.2.
package chunk

import (
	"strings"

	"github.com/localcortex/lattice/internal/codeunit"
)

// Chunk is one retrieval unit produced by the chunker. ChunkIndex and
// TotalChunks are filled in by the Chunk function after the full sequence is
// known.
type Chunk struct {
	Content        string
	StartOffset    int
	EndOffset      int
	ChunkIndex     int
	TotalChunks    int
	SectionHeader  string // Markdown only
	DeclarationName string // Code only
}

// Preset bundles a chunk-size/overlap budget used by the sliding-window and
// oversized-section/declaration fallback paths.
type Preset struct {
	ChunkSize int
	Overlap   int
}

var (
	// CodePreset targets short, declaration-shaped code chunks.
	CodePreset = Preset{ChunkSize: 768, Overlap: 100}
	// WebPreset and DocsPreset target prose-shaped chunks.
	WebPreset  = Preset{ChunkSize: 1200, Overlap: 200}
	DocsPreset = Preset{ChunkSize: 1200, Overlap: 200}
)

// codeExtensions lists the extensions handled by the declaration-aware
// strategy in the baseline; every other source extension falls back to
// sliding window, per spec §4.2.
var codeExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
}

// Chunk produces the ordered chunk sequence for content given its file
// extension (lower-cased, with leading dot, e.g. ".md") and a size preset.
func Chunk(ext string, content string, preset Preset) []Chunk {
	var chunks []Chunk
	switch {
	case ext == ".md":
		chunks = chunkMarkdown(content, preset)
	case codeExtensions[ext]:
		chunks = chunkCode(content, preset)
	default:
		chunks = slidingWindow(content, preset)
	}

	total := len(chunks)
	for i := range chunks {
		chunks[i].ChunkIndex = i
		chunks[i].TotalChunks = total
	}
	return chunks
}

// slidingWindow produces chunks of up to preset.ChunkSize runes with
// preset.Overlap runes of overlap between consecutive chunks. Step =
// ChunkSize - Overlap. A blob no larger than ChunkSize yields a single
// chunk spanning [0, len).
func slidingWindow(content string, preset Preset) []Chunk {
	runes := []rune(content)
	n := len(runes)
	if n == 0 {
		return nil
	}
	if n <= preset.ChunkSize {
		return []Chunk{{Content: content, StartOffset: 0, EndOffset: n}}
	}

	step := preset.ChunkSize - preset.Overlap
	if step <= 0 {
		step = preset.ChunkSize
	}

	var chunks []Chunk
	for start := 0; start < n; start += step {
		end := start + preset.ChunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, Chunk{
			Content:     string(runes[start:end]),
			StartOffset: start,
			EndOffset:   end,
		})
		if end == n {
			break
		}
	}
	return chunks
}

// splitOversized applies the sliding-window strategy to text too large for
// a single chunk, propagating header/declaration metadata the same way the
// caller requests (onlyFirstGetsHeader controls whether every sub-chunk or
// only the first carries the section header).
func splitOversized(text string, preset Preset, header string, onlyFirstGetsHeader bool, declName string) []Chunk {
	sub := slidingWindow(text, preset)
	for i := range sub {
		if declName != "" {
			sub[i].DeclarationName = declName
		}
		if header != "" && (!onlyFirstGetsHeader || i == 0) {
			sub[i].SectionHeader = header
		}
	}
	return sub
}

// atxHeaderPrefix returns the header text (levels 1-4) if line is an ATX
// header, or "" if it is not a header of a supported level.
func atxHeaderPrefix(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 4 {
		return "", false
	}
	if level >= len(trimmed) || trimmed[level] != ' ' {
		return "", false
	}
	return strings.TrimSpace(trimmed[level:]), true
}
