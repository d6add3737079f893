package graphkb

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/localcortex/lattice/internal/errkit"
)

// load reads a store's graph file, returning (nil, nil) when it doesn't
// exist yet — absence is the expected baseline state, not an error.
func load(dir, storeID string) (*Data, error) {
	path := dataPath(dir, storeID)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errkit.Wrap(errkit.Fatal, "read code graph", err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errkit.Wrap(errkit.Fatal, "parse code graph", err)
	}
	return &data, nil
}

// save writes a store's graph atomically: marshal, write to a temp file in
// the same directory, then rename over the final path.
func save(dir, storeID string, data *Data) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errkit.Wrap(errkit.Fatal, "create code graph directory", err)
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errkit.Wrap(errkit.Fatal, "marshal code graph", err)
	}
	final := dataPath(dir, storeID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errkit.Wrap(errkit.Fatal, "write code graph", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return errkit.Wrap(errkit.Fatal, "rename code graph", err)
	}
	return nil
}

func dataPath(dir, storeID string) string {
	return filepath.Join(dir, storeID+".json")
}
