// Package enrich builds the three progressive detail layers returned for a
// search hit — minimal, contextual, full — per spec §4.5. It leans on
// internal/codeunit for declaration/doc-comment extraction and accepts an
// optional GraphProvider (implemented by internal/graphkb) for usage stats
// and related-code edges; callers that have no graph simply omit it and get
// the spec's graceful-degradation zero values.
package enrich

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/localcortex/lattice/internal/classify"
	"github.com/localcortex/lattice/internal/codeunit"
)

// Level is the requested progressive detail level.
type Level string

const (
	LevelMinimal    Level = "minimal"
	LevelContextual Level = "contextual"
	LevelFull       Level = "full"
)

// Input is the chunk-plus-metadata the enricher needs; deliberately
// independent of internal/rank's Hit type so this package has no
// dependency on the ranker.
type Input struct {
	Content  string
	Path     string
	FileType classify.Tag
	Query    string
	Line     int // chunk's starting line within the source file, 1-based
}

// Summary is always returned (spec §4.5 minimal).
type Summary struct {
	Type            string
	Name            string
	Signature       string
	Purpose         string
	Location        string
	RelevanceReason string
}

// ContextInfo is added at contextual level and above.
type ContextInfo struct {
	Interfaces      []string
	KeyImports      []string
	RelatedConcepts []string
	Usage           UsageStats
}

// UsageStats counts code-graph edges touching a symbol.
type UsageStats struct {
	CalledBy int
	Calls    int
}

// RelatedCode is one code-graph edge surfaced at full detail.
type RelatedCode struct {
	File         string
	Summary      string
	Relationship string // "calls this" or "called by this"
}

// FullInfo is added at full level.
type FullInfo struct {
	CompleteCode string
	RelatedCode  []RelatedCode
	Documentation string
	Tests        string // reserved, always empty in the baseline
}

// Result bundles whichever layers were requested.
type Result struct {
	Summary Summary
	Context *ContextInfo
	Full    *FullInfo
}

// GraphProvider supplies usage counts and related-code edges for a symbol.
// Implemented by internal/graphkb; absent entirely (nil) degrades to zero
// usage stats and no related code, per spec §3 "Code graph (optional)".
type GraphProvider interface {
	Usage(symbol string) (calledBy, calls int)
	RelatedCalls(symbol string) []RelatedCode
}

// Enrich produces the requested detail layers for one chunk.
func Enrich(in Input, level Level, graph GraphProvider) Result {
	decl, hasDecl := findDeclaration(in.Content)

	summary := buildSummary(in, decl, hasDecl)
	result := Result{Summary: summary}

	if level == LevelMinimal {
		return result
	}

	ctx := buildContext(in, decl, graph)
	result.Context = &ctx

	if level == LevelFull {
		result.Full = buildFull(in, decl, hasDecl, graph)
	}
	return result
}

func findDeclaration(content string) (codeunit.Declaration, bool) {
	decls := codeunit.FindDeclarations(content)
	if len(decls) == 0 {
		return codeunit.Declaration{}, false
	}
	return decls[0], true
}

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

func buildSummary(in Input, decl codeunit.Declaration, hasDecl bool) Summary {
	name := "(anonymous)"
	typ := "documentation"
	signature := ""

	if hasDecl && decl.Name != "" {
		name = decl.Name
		typ = "function"
		signature = buildSignature(in.Content, decl)
	} else if in.FileType != classify.Documentation && in.FileType != classify.DocumentationPrimary {
		if id := longestLeadingIdentifier(in.Content); id != "" {
			name = id
			typ = "function"
		}
	}

	return Summary{
		Type:            typ,
		Name:            name,
		Signature:       signature,
		Purpose:         purposeFor(in, decl, hasDecl),
		Location:        location(in.Path, in.Line),
		RelevanceReason: relevanceReason(in.Content, in.Query),
	}
}

// buildSignature takes the declaration's first line, strips export/async
// prefixes, and reduces it to `name(params): returnType` when the line
// fits that shape (spec §4.5 minimal.signature).
func buildSignature(content string, decl codeunit.Declaration) string {
	lines := strings.Split(content, "\n")
	idx := decl.StartLine
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	line := strings.TrimSpace(lines[idx])
	line = strings.TrimPrefix(line, "export default ")
	line = strings.TrimPrefix(line, "export ")
	line = strings.TrimPrefix(line, "declare ")
	line = strings.TrimPrefix(line, "async ")
	line = strings.TrimPrefix(line, "function ")
	line = strings.TrimSuffix(line, "{")
	return strings.TrimSpace(line)
}

// longestLeadingIdentifier scans the first few lines for the longest
// identifier, used as a name fallback when no declaration was found.
func longestLeadingIdentifier(content string) string {
	lines := strings.Split(content, "\n")
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	best := ""
	for _, line := range lines[:limit] {
		for _, id := range identifierPattern.FindAllString(line, -1) {
			if len(id) > len(best) {
				best = id
			}
		}
	}
	return best
}

func location(path string, line int) string {
	if line <= 0 {
		return path
	}
	return path + ":" + strconv.Itoa(line)
}

// relevanceReason lists which query terms (length >= 3) matched the
// content, or "semantically similar" when none did (spec §4.5).
func relevanceReason(content, query string) string {
	terms := queryTerms(query)
	lower := strings.ToLower(content)
	var matched []string
	for _, t := range terms {
		if strings.Contains(lower, t) {
			matched = append(matched, t)
		}
	}
	if len(matched) == 0 {
		return "semantically similar"
	}
	return "matched: " + strings.Join(matched, ", ")
}

func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	seen := map[string]bool{}
	var out []string
	for _, f := range fields {
		if len(f) < 3 || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

var callLikePattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*\s*\(|=>|=\s*[A-Za-z_][A-Za-z0-9_]*\s*\(`)

// purposeFor selects a ~150-character purpose string: the declaration's
// leading doc comment if present, else the highest-scoring content line
// (contains query terms, ends with sentence punctuation, looks call-like),
// per spec §4.5.
func purposeFor(in Input, decl codeunit.Declaration, hasDecl bool) string {
	if hasDecl && decl.DocComment != "" {
		return truncateAtSentence(decl.DocComment, 150)
	}

	terms := queryTerms(in.Query)
	lines := strings.Split(in.Content, "\n")

	best := ""
	bestScore := -1
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		score := 0
		lower := strings.ToLower(line)
		for _, t := range terms {
			if strings.Contains(lower, t) {
				score++
			}
		}
		if strings.HasSuffix(line, ".") || strings.HasSuffix(line, "!") || strings.HasSuffix(line, "?") {
			score++
		}
		if callLikePattern.MatchString(line) {
			score++
		}
		if score > bestScore {
			bestScore = score
			best = line
		}
	}
	return truncateAtSentence(best, 150)
}

func truncateAtSentence(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if idx := strings.LastIndexAny(cut, ".!?"); idx > 0 {
		return cut[:idx+1]
	}
	return strings.TrimSpace(cut) + "…"
}

var interfacePattern = regexp.MustCompile(`(?m)^\s*(?:export\s+)?interface\s+([A-Za-z_][A-Za-z0-9_]*)`)
var importPattern = regexp.MustCompile(`(?m)^\s*import\s+.*?from\s+['"]([^'"]+)['"]`)

var stopWords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "have": true,
	"they": true, "will": true, "what": true, "when": true, "where": true,
	"which": true, "their": true, "about": true, "there": true, "would": true,
	"could": true, "should": true, "function": true, "return": true,
	"const": true, "export": true, "import": true, "default": true,
	"class": true, "interface": true, "async": true, "await": true,
}

func buildContext(in Input, decl codeunit.Declaration, graph GraphProvider) ContextInfo {
	interfaces := []string{}
	for _, m := range interfacePattern.FindAllStringSubmatch(in.Content, -1) {
		interfaces = append(interfaces, m[1])
	}

	imports := []string{}
	for _, m := range importPattern.FindAllStringSubmatch(in.Content, -1) {
		imports = append(imports, m[1])
		if len(imports) >= 5 {
			break
		}
	}

	usage := UsageStats{}
	if graph != nil && decl.Name != "" {
		calledBy, calls := graph.Usage(symbolID(in.Path, decl.Name))
		usage = UsageStats{CalledBy: calledBy, Calls: calls}
	}

	return ContextInfo{
		Interfaces:      interfaces,
		KeyImports:      imports,
		RelatedConcepts: relatedConcepts(in.Content),
		Usage:           usage,
	}
}

// relatedConcepts returns the top 5 most frequent lowercase words of
// length >= 4, excluding stop words and trivial code keywords.
func relatedConcepts(content string) []string {
	words := identifierPattern.FindAllString(strings.ToLower(content), -1)
	freq := map[string]int{}
	for _, w := range words {
		if len(w) < 4 || stopWords[w] {
			continue
		}
		freq[w]++
	}
	type kv struct {
		word  string
		count int
	}
	var all []kv
	for w, c := range freq {
		all = append(all, kv{w, c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].word < all[j].word
	})
	limit := 5
	if len(all) < limit {
		limit = len(all)
	}
	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = all[i].word
	}
	return out
}

func buildFull(in Input, decl codeunit.Declaration, hasDecl bool, graph GraphProvider) *FullInfo {
	completeCode := in.Content
	if hasDecl && decl.Name != "" {
		if extracted, ok := codeunit.ExtractBySymbol(in.Content, decl.Name); ok {
			completeCode = in.Content[extracted.StartByte:extracted.EndByte]
		}
	}

	var related []RelatedCode
	if graph != nil && decl.Name != "" {
		related = graph.RelatedCalls(symbolID(in.Path, decl.Name))
		if len(related) > 10 {
			related = related[:10]
		}
	}

	doc := ""
	if hasDecl {
		doc = decl.DocComment
	}

	return &FullInfo{
		CompleteCode:  completeCode,
		RelatedCode:   related,
		Documentation: doc,
	}
}

func symbolID(path, name string) string {
	return path + ":" + name
}
