package config

import "fmt"

// ExportConfig controls the per-run trace files. An empty Dir disables export.
type ExportConfig struct {
	Dir    string `json:"dir"`
	Format string `json:"format"`
	// Columns restricts the exported series; empty exports all of them.
	Columns []string `json:"columns"`
	Plot    bool     `json:"plot"`
}

func (c *ExportConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = "csv"
	}
}

func (c ExportConfig) Validate() error {
	if c.Format != "csv" && c.Format != "json" {
		return fmt.Errorf("export: unknown format %s", c.Format)
	}
	if c.Plot && c.Dir == "" {
		return fmt.Errorf("export: plot requires dir")
	}
	return nil
}
