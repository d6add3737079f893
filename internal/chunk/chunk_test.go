package chunk

import (
	"strings"
	"testing"
)

func TestSlidingWindowBounds(t *testing.T) {
	content := strings.Repeat("abcdefghij", 50) // 500 runes
	preset := Preset{ChunkSize: 120, Overlap: 20}
	chunks := Chunk(".txt", content, preset)

	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	prevEnd := -1
	for i, c := range chunks {
		if len([]rune(c.Content)) > preset.ChunkSize {
			t.Errorf("chunk %d exceeds chunk size: %d", i, len([]rune(c.Content)))
		}
		if c.StartOffset < 0 || c.EndOffset > len([]rune(content)) {
			t.Errorf("chunk %d offsets out of range: [%d,%d]", i, c.StartOffset, c.EndOffset)
		}
		if c.StartOffset < prevEnd-preset.Overlap {
			t.Errorf("chunk %d start %d regressed past allowed overlap", i, c.StartOffset)
		}
		if c.TotalChunks != len(chunks) {
			t.Errorf("chunk %d TotalChunks = %d, want %d", i, c.TotalChunks, len(chunks))
		}
		if c.ChunkIndex != i {
			t.Errorf("chunk %d ChunkIndex = %d, want %d", i, c.ChunkIndex, i)
		}
		prevEnd = c.EndOffset
	}
}

func TestSlidingWindowSingleChunk(t *testing.T) {
	content := "short text"
	chunks := Chunk(".txt", content, Preset{ChunkSize: 1000, Overlap: 100})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].StartOffset != 0 || chunks[0].EndOffset != len(content) {
		t.Errorf("expected offsets [0,%d], got [%d,%d]", len(content), chunks[0].StartOffset, chunks[0].EndOffset)
	}
}

func TestChunkMarkdownHeaderCount(t *testing.T) {
	doc := "# Intro\nwelcome\n\n# Usage\nhow to use\n\n# API\ndetails here\n"
	chunks := Chunk(".md", doc, DocsPreset)
	if len(chunks) < 3 {
		t.Fatalf("expected >= 3 chunks for 3 headers, got %d", len(chunks))
	}
	headers := map[string]bool{}
	for _, c := range chunks {
		headers[c.SectionHeader] = true
	}
	for _, want := range []string{"Intro", "Usage", "API"} {
		if !headers[want] {
			t.Errorf("missing section header %q among chunks: %+v", want, headers)
		}
	}
}

func TestChunkMarkdownNoHeadersFallsBackToSlidingWindow(t *testing.T) {
	doc := strings.Repeat("no headers here. ", 200)
	chunks := Chunk(".md", doc, DocsPreset)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple sliding-window chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.SectionHeader != "" {
			t.Errorf("expected no section header in fallback mode, got %q", c.SectionHeader)
		}
	}
}

func TestChunkCodeDeclarationCount(t *testing.T) {
	src := "function add(a, b) {\n  return a + b;\n}\n\nfunction sub(a, b) {\n  return a - b;\n}\n"
	chunks := Chunk(".js", src, CodePreset)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks for 2 declarations, got %d", len(chunks))
	}
	if chunks[0].DeclarationName != "add" || chunks[1].DeclarationName != "sub" {
		t.Errorf("unexpected declaration names: %q, %q", chunks[0].DeclarationName, chunks[1].DeclarationName)
	}
}

func TestChunkCodeNoDeclarationsFallsBack(t *testing.T) {
	src := strings.Repeat("x = x + 1;\n", 200)
	chunks := Chunk(".js", src, CodePreset)
	if len(chunks) < 2 {
		t.Fatalf("expected sliding-window fallback to produce multiple chunks, got %d", len(chunks))
	}
}

// TestChunkCoverageSlidingWindow verifies that concatenating chunk contents (after
// dropping the overlapping prefix each subsequent chunk repeats) reconstructs
// the original text, per spec §8 "Chunker coverage".
func TestChunkCoverageSlidingWindow(t *testing.T) {
	content := strings.Repeat("0123456789", 37) // 370 runes, not a multiple of step
	preset := Preset{ChunkSize: 100, Overlap: 15}
	chunks := Chunk(".txt", content, preset)

	runes := []rune(content)
	var rebuilt []rune
	for i, c := range chunks {
		cr := []rune(c.Content)
		if i == 0 {
			rebuilt = append(rebuilt, cr...)
			continue
		}
		overlapLen := chunks[i-1].EndOffset - c.StartOffset
		if overlapLen < 0 {
			overlapLen = 0
		}
		if overlapLen > len(cr) {
			overlapLen = len(cr)
		}
		rebuilt = append(rebuilt, cr[overlapLen:]...)
	}
	if string(rebuilt) != string(runes) {
		t.Errorf("reconstructed text does not match original\nwant: %q\ngot:  %q", string(runes), string(rebuilt))
	}
}
