package chunk

import (
	"github.com/localcortex/lattice/internal/codeunit"
)

// chunkCode locates top-level declarations and turns each into one chunk
// carrying its declaration name. Declarations that fit within the preset
// become single chunks; oversized ones are split with sliding window, with
// the name propagated to every sub-chunk. A file with no declarations
// falls back entirely to sliding window.
func chunkCode(content string, preset Preset) []Chunk {
	decls := codeunit.FindDeclarations(content)
	if len(decls) == 0 {
		return slidingWindow(content, preset)
	}

	var chunks []Chunk
	for _, d := range decls {
		text := content[d.StartByte:d.EndByte]
		if len([]rune(text)) <= preset.ChunkSize {
			chunks = append(chunks, Chunk{
				Content:         text,
				StartOffset:     d.StartByte,
				EndOffset:       d.EndByte,
				DeclarationName: d.Name,
			})
			continue
		}
		sub := splitOversized(text, preset, "", false, d.Name)
		for i := range sub {
			sub[i].StartOffset += d.StartByte
			sub[i].EndOffset += d.StartByte
		}
		chunks = append(chunks, sub...)
	}
	return chunks
}
