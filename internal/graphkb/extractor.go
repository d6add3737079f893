package graphkb

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
)

// ExtractFile parses a single Go source file and returns the function/method
// nodes it declares and the calls edges found in their bodies. Unparseable
// files are skipped by the caller (Build), not reported as a hard error,
// since a store may mix Go with any number of other languages the graph
// simply has nothing to say about.
func ExtractFile(rootDir, path string) ([]Node, []Edge, error) {
	relPath, err := filepath.Rel(rootDir, path)
	if err != nil {
		relPath = path
	}
	relPath = filepath.ToSlash(relPath)

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, nil, err
	}

	var nodes []Node
	var edges []Edge

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		name := funcNodeName(fn)
		id := relPath + ":" + name
		nodes = append(nodes, Node{
			ID:        id,
			File:      relPath,
			Symbol:    name,
			StartLine: fset.Position(fn.Pos()).Line,
			EndLine:   fset.Position(fn.End()).Line,
		})
		if fn.Body == nil {
			continue
		}
		ast.Inspect(fn.Body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			callee := calleeName(call.Fun)
			if callee == "" {
				return true
			}
			edges = append(edges, Edge{
				From: id,
				To:   relPath + ":" + callee,
				File: relPath,
				Line: fset.Position(call.Pos()).Line,
			})
			return true
		})
	}

	return nodes, edges, nil
}

// funcNodeName returns "Type.Method" for methods, "Name" for functions.
func funcNodeName(fn *ast.FuncDecl) string {
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		return receiverType(fn.Recv.List[0].Type) + "." + fn.Name.Name
	}
	return fn.Name.Name
}

func receiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return ident.Name
		}
	}
	return "unknown"
}

// calleeName resolves a call expression's callee to a best-effort symbol
// name within the same file. Interface dispatch, closures, and
// cross-package selectors beyond one level can't be resolved without a type
// checker, so they're skipped rather than guessed at (same limitation the
// teacher's extractor documents for its own callee resolution).
func calleeName(fun ast.Expr) string {
	switch f := fun.(type) {
	case *ast.Ident:
		return f.Name
	case *ast.SelectorExpr:
		if ident, ok := f.X.(*ast.Ident); ok {
			return ident.Name + "." + f.Sel.Name
		}
	}
	return ""
}
