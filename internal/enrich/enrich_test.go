package enrich

import (
	"strings"
	"testing"

	"github.com/localcortex/lattice/internal/classify"
)

const sampleFunc = `/**
 * Authenticates a user against the configured identity provider.
 */
export async function authenticate(user: string, pass: string): Promise<Session> {
  const session = login(user, pass);
  return session;
}
`

func TestEnrichMinimalLevel(t *testing.T) {
	in := Input{Content: sampleFunc, Path: "src/auth.ts", FileType: classify.Source, Query: "how does authenticate work", Line: 1}
	result := Enrich(in, LevelMinimal, nil)

	if result.Summary.Name != "authenticate" {
		t.Fatalf("expected name 'authenticate', got %q", result.Summary.Name)
	}
	if result.Summary.Type != "function" {
		t.Fatalf("expected type 'function', got %q", result.Summary.Type)
	}
	if !strings.Contains(result.Summary.Purpose, "Authenticates a user") {
		t.Fatalf("expected purpose to use doc comment, got %q", result.Summary.Purpose)
	}
	if result.Summary.Location != "src/auth.ts:1" {
		t.Fatalf("expected location with line number, got %q", result.Summary.Location)
	}
	if !strings.Contains(result.Summary.RelevanceReason, "authenticate") {
		t.Fatalf("expected relevance reason to mention matched term, got %q", result.Summary.RelevanceReason)
	}
	if result.Context != nil {
		t.Fatal("expected no context at minimal level")
	}
}

func TestEnrichContextualLevel(t *testing.T) {
	in := Input{Content: sampleFunc, Path: "src/auth.ts", FileType: classify.Source, Query: "authenticate"}
	result := Enrich(in, LevelContextual, nil)
	if result.Context == nil {
		t.Fatal("expected context at contextual level")
	}
	if result.Context.Usage != (UsageStats{}) {
		t.Fatalf("expected zero usage stats without a graph provider, got %+v", result.Context.Usage)
	}
	if result.Full != nil {
		t.Fatal("expected no full layer at contextual level")
	}
}

type fakeGraph struct{}

func (fakeGraph) Usage(symbol string) (int, int) { return 3, 7 }
func (fakeGraph) RelatedCalls(symbol string) []RelatedCode {
	return []RelatedCode{{File: "src/session.ts", Summary: "login", Relationship: "calls this"}}
}

func TestEnrichFullLevelWithGraph(t *testing.T) {
	in := Input{Content: sampleFunc, Path: "src/auth.ts", FileType: classify.Source, Query: "authenticate"}
	result := Enrich(in, LevelFull, fakeGraph{})

	if result.Context.Usage.CalledBy != 3 || result.Context.Usage.Calls != 7 {
		t.Fatalf("expected usage stats from graph provider, got %+v", result.Context.Usage)
	}
	if result.Full == nil {
		t.Fatal("expected full layer")
	}
	if !strings.Contains(result.Full.CompleteCode, "func") && !strings.Contains(result.Full.CompleteCode, "function authenticate") {
		t.Fatalf("expected complete code to include the full declaration, got %q", result.Full.CompleteCode)
	}
	if len(result.Full.RelatedCode) != 1 || result.Full.RelatedCode[0].Relationship != "calls this" {
		t.Fatalf("expected related code from graph, got %+v", result.Full.RelatedCode)
	}
}

func TestEnrichNoDeclarationIsAnonymousDocumentation(t *testing.T) {
	in := Input{Content: "Just some documentation prose about the system design.", Path: "docs/intro.md", FileType: classify.Documentation, Query: "system design"}
	result := Enrich(in, LevelMinimal, nil)
	if result.Summary.Name != "(anonymous)" {
		t.Fatalf("expected anonymous name for non-declaration content, got %q", result.Summary.Name)
	}
	if result.Summary.Type != "documentation" {
		t.Fatalf("expected documentation type, got %q", result.Summary.Type)
	}
}
