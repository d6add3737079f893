// Package classify assigns a file-type tag to a path using a pure,
// order-sensitive rule cascade. The tag feeds the ranker's file-type boost
// (see internal/rank) and the enricher's "type" inference.
package classify

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Tag is one of the eight file-type categories used throughout ranking.
type Tag string

const (
	DocumentationPrimary Tag = "documentation-primary"
	Documentation        Tag = "documentation"
	Example              Tag = "example"
	Source               Tag = "source"
	SourceInternal        Tag = "source-internal"
	Test                 Tag = "test"
	Config               Tag = "config"
	Other                Tag = "other"
)

// IgnoredDirs causes the walker to skip descending entirely; files beneath
// them are never classified or indexed.
var IgnoredDirs = map[string]struct{}{
	"node_modules": {}, ".git": {}, "dist": {}, "build": {},
	".venv": {}, "__pycache__": {}, "coverage": {},
}

var (
	primaryDocPattern = regexp.MustCompile(`(?i)^(README|CHANGELOG|MIGRATION|CONTRIBUTING)(\..+)?$`)
	testNamePattern   = regexp.MustCompile(`(?i)\.(test|spec)\.[^.]+$`)
	configNamePattern = regexp.MustCompile(`(?i)^(package\.json|tsconfig.*\.json|Dockerfile|\.env.*)$`)
	configExtPattern  = regexp.MustCompile(`(?i)\.(ya?ml|toml)$`)
	docExtPattern     = regexp.MustCompile(`(?i)\.(md|mdx|rst|txt)$`)
)

var sourceExtensions = map[string]struct{}{
	".ts": {}, ".tsx": {}, ".js": {}, ".jsx": {}, ".mjs": {}, ".cjs": {},
	".py": {}, ".rs": {}, ".go": {}, ".rb": {}, ".java": {}, ".c": {},
	".cpp": {}, ".cc": {}, ".h": {}, ".hpp": {}, ".php": {}, ".kt": {},
	".swift": {}, ".sh": {},
}

// pathSegments splits a slash-normalized path into its directory components.
func pathSegments(path string) []string {
	clean := filepath.ToSlash(path)
	return strings.Split(clean, "/")
}

func hasSegment(segments []string, name string) bool {
	for _, s := range segments {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// Classify implements the ordered rule cascade from spec §4.1. absPath is
// the file's path relative to (or within) its store root; name is the base
// file name; ext is filepath.Ext(name), lower-cased by the caller is not
// required — Classify normalizes case itself.
func Classify(absPath, name, ext string) Tag {
	segments := pathSegments(absPath)

	// Rule 1: primary documentation by name.
	if primaryDocPattern.MatchString(name) {
		return DocumentationPrimary
	}

	// Rule 2: documentation by path segment or extension.
	if hasSegment(segments, "docs") || hasSegment(segments, "documentation") ||
		hasSegment(segments, "guide") || hasSegment(segments, "tutorials") ||
		docExtPattern.MatchString(ext) {
		return Documentation
	}

	// Rule 3: examples by path segment.
	if hasSegment(segments, "examples") || hasSegment(segments, "demo") || hasSegment(segments, "samples") {
		return Example
	}

	// Rule 4: tests by name or path segment.
	if testNamePattern.MatchString(name) || hasSegment(segments, "__tests__") || hasSegment(segments, "tests") {
		return Test
	}

	// Rule 5: config by name or extension.
	if configNamePattern.MatchString(name) || configExtPattern.MatchString(ext) {
		return Config
	}

	// Rule 6: internal/private source.
	if hasSegment(segments, "internal") || hasSegment(segments, "private") || hasSegment(segments, "compiler") || inPackagesSrcSubtree(segments, name) {
		return SourceInternal
	}

	// Rule 7: recognized source extension.
	if _, ok := sourceExtensions[strings.ToLower(ext)]; ok {
		return Source
	}

	// Rule 8: everything else.
	return Other
}

// inPackagesSrcSubtree matches "packages/*/src/..." trees whose entry point
// is not an "index" file (index.ts, index.js, ...).
func inPackagesSrcSubtree(segments []string, name string) bool {
	for i := 0; i+2 < len(segments); i++ {
		if strings.EqualFold(segments[i], "packages") && strings.EqualFold(segments[i+2], "src") {
			base := strings.TrimSuffix(name, filepath.Ext(name))
			return !strings.EqualFold(base, "index")
		}
	}
	return false
}

// IsIgnoredDir reports whether a directory name should never be descended
// into by the walker.
func IsIgnoredDir(name string) bool {
	_, ok := IgnoredDirs[name]
	return ok
}

// IsIndexable reports whether a file's extension is one the indexer should
// read and chunk: recognized source, documentation, or config extensions.
// Everything else (images, binaries, lockfiles, ...) is skipped at the walk
// boundary rather than classified as Other and indexed anyway.
func IsIndexable(name, ext string) bool {
	lower := strings.ToLower(ext)
	if _, ok := sourceExtensions[lower]; ok {
		return true
	}
	if docExtPattern.MatchString(ext) || configExtPattern.MatchString(ext) {
		return true
	}
	return primaryDocPattern.MatchString(name) || configNamePattern.MatchString(name)
}
