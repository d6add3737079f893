// Package indexer walks a store's content, classifies and chunks each
// file, embeds the chunks, and writes them into the store's vector and
// full-text tables, per spec §4.3. Grounded on the teacher's
// internal/indexer (internal/indexer/impl.go): discovery → per-file
// parse/chunk → batched embed → write, with a progress reporter threaded
// throughout and per-file failures logged and skipped rather than fatal.
package indexer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/localcortex/lattice/internal/chunk"
	"github.com/localcortex/lattice/internal/classify"
	"github.com/localcortex/lattice/internal/embedding"
	"github.com/localcortex/lattice/internal/errkit"
	"github.com/localcortex/lattice/internal/ftsindex"
	"github.com/localcortex/lattice/internal/vectorindex"
)

// ignoreFileName, when present at a store's root, supplements
// paths.ignore with .gitignore-style patterns for that store alone
// (spec §4.1/§4.3 DOMAIN STACK: sabhiram/go-gitignore).
const ignoreFileName = ".lattice-ignore"

// EventType names the phases of one indexing run (spec §4.3 step 3).
type EventType string

const (
	EventStart    EventType = "start"
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one progress notification delivered to the caller's callback.
type Event struct {
	Type    EventType
	Current int
	Total   int
	Message string
}

// ProgressFunc receives indexing progress events. A nil func is valid and
// simply discards events.
type ProgressFunc func(Event)

// Result is returned on a successful run (spec §4.3 step 4).
type Result struct {
	DocumentsIndexed int
	ChunksCreated    int
	TimeMs           int64
}

// Options carries the config-driven overrides layered on top of
// internal/classify and internal/chunk's hardcoded defaults (spec §4.1
// paths.code/docs/ignore, §4.2 chunking). Classify itself stays a pure
// function (spec §4.1); these overrides are applied around it instead.
type Options struct {
	CodeChunkSize int
	DocChunkSize  int
	Overlap       int
	CodeGlobs     []string
	DocGlobs      []string
	IgnoreGlobs   []string
}

// Indexer writes a store's content into its vector and full-text tables.
type Indexer struct {
	Vectors *vectorindex.Index
	FTS     *ftsindex.Index
	Engine  embedding.Engine

	codeGlobs   []glob.Glob
	docGlobs    []glob.Glob
	ignoreGlobs []glob.Glob
	codePreset  chunk.Preset
	docPreset   chunk.Preset
}

// New builds an Indexer over the given backing tables and embedding
// engine, using internal/classify and internal/chunk's built-in defaults
// with no config overrides.
func New(vectors *vectorindex.Index, fts *ftsindex.Index, engine embedding.Engine) *Indexer {
	return &Indexer{Vectors: vectors, FTS: fts, Engine: engine}
}

// NewWithOptions builds an Indexer that additionally applies
// config-driven glob overrides (compiled with gobwas/glob) and chunk-size
// overrides on top of the classify/chunk defaults.
func NewWithOptions(vectors *vectorindex.Index, fts *ftsindex.Index, engine embedding.Engine, opts Options) (*Indexer, error) {
	idx := &Indexer{Vectors: vectors, FTS: fts, Engine: engine}

	var err error
	if idx.codeGlobs, err = compileGlobs(opts.CodeGlobs); err != nil {
		return nil, errkit.Wrap(errkit.Fatal, "compile paths.code globs", err)
	}
	if idx.docGlobs, err = compileGlobs(opts.DocGlobs); err != nil {
		return nil, errkit.Wrap(errkit.Fatal, "compile paths.docs globs", err)
	}
	if idx.ignoreGlobs, err = compileGlobs(opts.IgnoreGlobs); err != nil {
		return nil, errkit.Wrap(errkit.Fatal, "compile paths.ignore globs", err)
	}

	if opts.CodeChunkSize > 0 {
		idx.codePreset = chunk.Preset{ChunkSize: opts.CodeChunkSize, Overlap: opts.Overlap}
	}
	if opts.DocChunkSize > 0 {
		idx.docPreset = chunk.Preset{ChunkSize: opts.DocChunkSize, Overlap: opts.Overlap}
	}

	return idx, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchesAny(globs []glob.Glob, relPath string) bool {
	for _, g := range globs {
		if g.Match(relPath) {
			return true
		}
	}
	return false
}

func emit(progress ProgressFunc, e Event) {
	if progress != nil {
		progress(e)
	}
}

// IndexStore walks rootPath (a file or cloned repo store's root directory)
// and indexes every accepted file under storeID.
func (idx *Indexer) IndexStore(ctx context.Context, storeID, rootPath string, progress ProgressFunc) (Result, error) {
	start := time.Now()

	files, err := idx.discover(rootPath)
	if err != nil {
		return Result{}, errkit.Wrap(errkit.Fatal, "discover files", err)
	}

	emit(progress, Event{Type: EventStart, Total: len(files), Message: fmt.Sprintf("indexing %d files", len(files))})

	documentsIndexed := 0
	chunksCreated := 0

	for i, path := range files {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		n, err := idx.indexFile(ctx, storeID, rootPath, path)
		if err != nil {
			emit(progress, Event{Type: EventError, Current: i + 1, Total: len(files), Message: err.Error()})
			if errkit.Is(err, errkit.Fatal) {
				return Result{}, err
			}
			continue
		}
		if n > 0 {
			documentsIndexed++
			chunksCreated += n
		}

		emit(progress, Event{Type: EventProgress, Current: i + 1, Total: len(files), Message: path})
	}

	result := Result{
		DocumentsIndexed: documentsIndexed,
		ChunksCreated:    chunksCreated,
		TimeMs:           time.Since(start).Milliseconds(),
	}
	emit(progress, Event{Type: EventComplete, Current: len(files), Total: len(files), Message: "indexing complete"})
	return result, nil
}

// indexFile processes one file: read, hash, classify, chunk, embed, write.
// A single file's read/decode/embed failure is returned as an error for the
// caller to log and skip; it never aborts the run (spec §4.3 failure
// semantics). A vector-store insert failure is fatal and propagates.
func (idx *Indexer) indexFile(ctx context.Context, storeID, rootPath, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	if !isText(raw) {
		return 0, nil
	}
	if !isValidUTF8(raw) {
		return 0, fmt.Errorf("skip %s: not valid UTF-8", path)
	}
	content := string(raw)

	relPath, err := filepath.Rel(rootPath, path)
	if err != nil {
		relPath = path
	}
	relPath = filepath.ToSlash(relPath)
	ext := strings.ToLower(filepath.Ext(path))
	name := filepath.Base(path)

	tag := classify.Classify(relPath, name, ext)
	tag = idx.overrideTag(tag, relPath)
	contentHash := md5Hex(raw)

	preset := idx.presetFor(ext)
	chunks := chunk.Chunk(ext, content, preset)
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := idx.Engine.Embed(ctx, texts, embedding.ModeDocument)
	if err != nil {
		return 0, fmt.Errorf("embed %s: %w", path, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embed %s: expected %d vectors, got %d", path, len(chunks), len(vectors))
	}

	vecDocs := make([]vectorindex.Document, len(chunks))
	ftsDocs := make([]ftsindex.Document, len(chunks))
	now := time.Now().UTC().Format(time.RFC3339)

	for i, c := range chunks {
		id := documentID(storeID, contentHash, i, len(chunks))
		meta := map[string]string{
			"store_id":     storeID,
			"path":         relPath,
			"file_type":    string(tag),
			"indexed_at":   now,
			"content_hash": contentHash,
			"chunk_index":  fmt.Sprintf("%d", i),
			"total_chunks": fmt.Sprintf("%d", len(chunks)),
		}
		if c.SectionHeader != "" {
			meta["section_header"] = c.SectionHeader
		}
		if c.DeclarationName != "" {
			meta["declaration_name"] = c.DeclarationName
		}

		vecDocs[i] = vectorindex.Document{ID: id, Content: c.Content, Embedding: vectors[i], Metadata: meta}
		ftsDocs[i] = ftsindex.Document{ID: id, Text: c.Content, FilePath: relPath, Title: relPath, FileType: string(tag)}
	}

	if err := idx.Vectors.Upsert(ctx, storeID, vecDocs); err != nil {
		return 0, errkit.Wrap(errkit.Fatal, fmt.Sprintf("insert vectors for %s", path), err)
	}
	if err := idx.FTS.Upsert(storeID, ftsDocs); err != nil {
		return 0, errkit.Wrap(errkit.Fatal, fmt.Sprintf("insert fts documents for %s", path), err)
	}

	return len(chunks), nil
}

var codeExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true,
	".cjs": true, ".py": true, ".rs": true, ".go": true, ".rb": true,
	".java": true, ".c": true, ".cpp": true, ".cc": true, ".h": true,
	".hpp": true, ".php": true, ".kt": true, ".swift": true, ".sh": true,
}

// presetFor picks the chunk-size/overlap budget for an extension: code
// extensions use the tighter code preset, everything else the prose preset
// (spec §4.2 presets: code 768/100, web/docs 1200/200), unless chunking
// config overrides were supplied via NewWithOptions.
func (idx *Indexer) presetFor(ext string) chunk.Preset {
	if codeExtensions[ext] {
		if idx.codePreset.ChunkSize > 0 {
			return idx.codePreset
		}
		return chunk.CodePreset
	}
	if idx.docPreset.ChunkSize > 0 {
		return idx.docPreset
	}
	return chunk.DocsPreset
}

// overrideTag supplements classify.Classify's fixed cascade with
// config-driven paths.code/paths.docs glob overrides (spec §4.1), applied
// only when the cascade didn't already produce a specific tag so the
// pure classifier stays authoritative.
func (idx *Indexer) overrideTag(tag classify.Tag, relPath string) classify.Tag {
	if tag != classify.Other {
		return tag
	}
	if matchesAny(idx.docGlobs, relPath) {
		return classify.Documentation
	}
	if matchesAny(idx.codeGlobs, relPath) {
		return classify.Source
	}
	return tag
}

// documentID builds the `{storeId}-{hex-content-hash}[-{chunkIndex}]`
// grammar from spec §4.3/§4.9; single-chunk files omit the trailing index.
func documentID(storeID, contentHash string, chunkIndex, totalChunks int) string {
	if totalChunks <= 1 {
		return fmt.Sprintf("%s-%s", storeID, contentHash)
	}
	return fmt.Sprintf("%s-%s-%d", storeID, contentHash, chunkIndex)
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// discover walks rootPath recursively, skipping ignored directories and
// files whose extension isn't indexable (spec §4.3 step 1), supplemented
// by paths.ignore glob overrides and a store-root .lattice-ignore file
// (spec §4.1 DOMAIN STACK: sabhiram/go-gitignore).
func (idx *Indexer) discover(rootPath string) ([]string, error) {
	ignoreFile := loadIgnoreFile(filepath.Join(rootPath, ignoreFileName))

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, relErr := filepath.Rel(rootPath, path)
		if relErr != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if path == rootPath {
				return nil
			}
			if classify.IsIgnoredDir(d.Name()) || matchesAny(idx.ignoreGlobs, relPath) || matchesIgnoreFile(ignoreFile, relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if matchesAny(idx.ignoreGlobs, relPath) || matchesIgnoreFile(ignoreFile, relPath, false) {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if classify.IsIndexable(d.Name(), ext) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// loadIgnoreFile compiles a store-root .lattice-ignore file when present;
// its absence is not an error, matching spec §4.1's graceful degradation.
func loadIgnoreFile(path string) *ignore.GitIgnore {
	matcher, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return matcher
}

func matchesIgnoreFile(matcher *ignore.GitIgnore, relPath string, isDir bool) bool {
	if matcher == nil {
		return false
	}
	if isDir {
		return matcher.MatchesPath(relPath + "/")
	}
	return matcher.MatchesPath(relPath)
}

// isText reports whether the first bytes of data contain no NUL byte,
// the same heuristic the teacher uses to skip binaries before FTS
// indexing (internal/indexer/impl.go isTextFile).
func isText(data []byte) bool {
	n := len(data)
	if n > 512 {
		n = 512
	}
	for i := 0; i < n; i++ {
		if data[i] == 0 {
			return false
		}
	}
	return true
}

func isValidUTF8(data []byte) bool {
	return utf8.Valid(data)
}
