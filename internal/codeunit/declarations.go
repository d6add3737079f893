package codeunit

import (
	"regexp"
	"strings"
)

// Declaration is a single top-level declaration located within a text blob.
type Declaration struct {
	Name       string
	StartLine  int // 0-indexed, inclusive
	EndLine    int // 0-indexed, inclusive
	StartByte  int
	EndByte    int // exclusive
	DocComment string
}

// declPattern matches top-level function/class/interface/type/enum/binding
// declarations, optionally preceded by an export/visibility prefix.
var declPattern = regexp.MustCompile(
	`^(?:export\s+)?(?:default\s+)?(?:declare\s+)?(?:async\s+)?` +
		`(?:function\*?\s+(?P<fn>[A-Za-z_$][\w$]*)` +
		`|class\s+(?P<cls>[A-Za-z_$][\w$]*)` +
		`|interface\s+(?P<iface>[A-Za-z_$][\w$]*)` +
		`|type\s+(?P<typ>[A-Za-z_$][\w$]*)` +
		`|enum\s+(?P<enum>[A-Za-z_$][\w$]*)` +
		`|(?:const|let|var)\s+(?P<bind>[A-Za-z_$][\w$]*)\s*(?::[^=]+)?=)`)

// FindDeclarations locates every top-level declaration in text (as produced
// by the baseline `.ts/.tsx/.js/.jsx` code chunker strategy). Declarations
// are ordered by their starting offset.
func FindDeclarations(text string) []Declaration {
	lines := strings.Split(text, "\n")
	lineOffsets := make([]int, len(lines)+1)
	off := 0
	for i, l := range lines {
		lineOffsets[i] = off
		off += len(l) + 1
	}
	lineOffsets[len(lines)] = off

	var decls []Declaration
	for i, line := range lines {
		m := declPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := firstNonEmpty(m, declPattern.SubexpNames())
		if name == "" {
			continue
		}
		startByte := lineOffsets[i]
		braceRel := FindMatchingBrace(text, startByte)
		// A statement ended by ';' before any '{' has no body of its own.
		if semi := strings.IndexByte(text[startByte:], ';'); semi != -1 {
			if open := strings.IndexByte(text[startByte:], '{'); open == -1 || semi < open {
				braceRel = -1
			}
		}
		var endByte int
		var endLine int
		if braceRel == -1 {
			// No brace (e.g. `type X = Foo;`): declaration ends at its own line.
			endByte = lineOffsets[i+1]
			if endByte > len(text) {
				endByte = len(text)
			}
			endLine = i
		} else {
			endByte = braceRel + 1
			endLine = lineForOffset(lineOffsets, endByte)
		}

		decls = append(decls, Declaration{
			Name:       name,
			StartLine:  i,
			EndLine:    endLine,
			StartByte:  startByte,
			EndByte:    endByte,
			DocComment: leadingDocComment(lines, i),
		})
	}
	return decls
}

// ExtractBySymbol extracts the contiguous declaration range for the named
// symbol out of chunk text, per spec §4.6. Returns ok=false if no
// declaration with that name (or no opening brace for it) is found.
func ExtractBySymbol(text, symbol string) (Declaration, bool) {
	for _, d := range FindDeclarations(text) {
		if d.Name == symbol {
			if d.EndByte == 0 || text[d.EndByte-1] != '}' {
				return Declaration{}, false
			}
			return d, true
		}
	}
	return Declaration{}, false
}

func firstNonEmpty(m []string, names []string) string {
	for i, n := range names {
		if n != "" && i < len(m) && m[i] != "" {
			return m[i]
		}
	}
	return ""
}

func lineForOffset(lineOffsets []int, offset int) int {
	for i := 0; i < len(lineOffsets)-1; i++ {
		if offset >= lineOffsets[i] && offset < lineOffsets[i+1] {
			return i
		}
	}
	return len(lineOffsets) - 2
}

// leadingDocComment returns the cleaned body of a JSDoc-style `/** ... */`
// or a run of `//` lines immediately preceding declLine, or "" if none.
func leadingDocComment(lines []string, declLine int) string {
	i := declLine - 1
	var collected []string

	// Skip a single blank separator line directly above the declaration? No —
	// JSDoc must be contiguous, so stop at the first non-comment line.
	if i < 0 {
		return ""
	}

	if strings.TrimSpace(lines[i]) == "*/" || strings.HasSuffix(strings.TrimSpace(lines[i]), "*/") {
		// Walk upward collecting a block comment.
		for i >= 0 {
			trimmed := strings.TrimSpace(lines[i])
			collected = append([]string{trimmed}, collected...)
			if strings.HasPrefix(trimmed, "/**") || strings.HasPrefix(trimmed, "/*") {
				break
			}
			i--
		}
		return cleanDocComment(strings.Join(collected, "\n"))
	}

	for i >= 0 && strings.HasPrefix(strings.TrimSpace(lines[i]), "//") {
		collected = append([]string{strings.TrimSpace(lines[i])}, collected...)
		i--
	}
	return cleanDocComment(strings.Join(collected, "\n"))
}

func cleanDocComment(raw string) string {
	raw = strings.TrimPrefix(raw, "/**")
	raw = strings.TrimPrefix(raw, "/*")
	raw = strings.TrimSuffix(raw, "*/")
	lines := strings.Split(raw, "\n")
	var cleaned []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "*")
		l = strings.TrimPrefix(l, "//")
		l = strings.TrimSpace(l)
		if l != "" {
			cleaned = append(cleaned, l)
		}
	}
	return strings.Join(cleaned, " ")
}
