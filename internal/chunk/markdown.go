package chunk

import "strings"

// mdSection is a run of lines under (and including) one ATX header, or the
// leading preamble before the first header.
type mdSection struct {
	header      string // "" for the preamble section
	startOffset int
	text        string
}

// chunkMarkdown splits content on ATX headers (levels 1-4). Each section
// becomes one chunk tagged with its nearest preceding header; oversized
// sections fall back to sliding window with only the first sub-chunk
// carrying the header. A headerless document falls back to sliding window
// entirely.
func chunkMarkdown(content string, preset Preset) []Chunk {
	lines := strings.Split(content, "\n")

	var sections []mdSection
	var current *mdSection
	offset := 0
	for _, line := range lines {
		if header, ok := atxHeaderPrefix(line); ok {
			if current != nil {
				sections = append(sections, *current)
			}
			current = &mdSection{header: header, startOffset: offset, text: line}
		} else {
			if current == nil {
				current = &mdSection{header: "", startOffset: offset, text: line}
			} else {
				current.text += "\n" + line
			}
		}
		offset += len(line) + 1
	}
	if current != nil {
		sections = append(sections, *current)
	}

	// Drop an empty leading preamble section (no header, no content).
	if len(sections) > 0 && sections[0].header == "" && strings.TrimSpace(sections[0].text) == "" {
		sections = sections[1:]
	}

	if len(sections) == 0 {
		return nil
	}
	// No headers found at all: fall back entirely to sliding window.
	if len(sections) == 1 && sections[0].header == "" {
		return slidingWindow(content, preset)
	}

	var chunks []Chunk
	for _, sec := range sections {
		runeLen := len([]rune(sec.text))
		if runeLen <= preset.ChunkSize {
			chunks = append(chunks, Chunk{
				Content:       sec.text,
				StartOffset:   sec.startOffset,
				EndOffset:     sec.startOffset + len(sec.text),
				SectionHeader: sec.header,
			})
			continue
		}
		sub := splitOversized(sec.text, preset, sec.header, true, "")
		for i := range sub {
			sub[i].StartOffset += sec.startOffset
			sub[i].EndOffset += sec.startOffset
		}
		chunks = append(chunks, sub...)
	}
	return chunks
}
