package catalog

import (
	"encoding/json"
	"os"
	"time"
)

// Export is the persisted form of a catalog scan (.catalog.json).
type Export struct {
	Version     int       `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	Directory   string    `json:"directory"`
	Summary     Summary   `json:"summary"`
	Files       []DataFile `json:"files"`
}

// Save writes the catalog scan to a JSON file.
func (c *Catalog) Save(path string) error {
	export := Export{
		Version:     1,
		GeneratedAt: time.Now(),
		Directory:   c.dir,
		Summary:     c.Summarize(),
		Files:       c.files,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Load reads a previously saved catalog scan.
func Load(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, err
	}

	return &export, nil
}
