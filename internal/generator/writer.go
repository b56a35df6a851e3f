package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DatasetFile is the name WriteDataset gives the edge list. The file is a valid JSON seed.
const DatasetFile = "edges.json"

// WriteDataset serializes the dataset's edges into edges.json under the provided directory
// and returns the written path.
func WriteDataset(dataset Dataset, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, DatasetFile)
	if err := writeJSON(path, dataset.Edges); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}
