package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"linkpulse/internal/alias/models"
	"linkpulse/pkg/platform/sentinel"
)

type seedFile struct {
	Aliases []seedAlias `yaml:"aliases"`
}

type seedAlias struct {
	Code        string     `yaml:"code"`
	Destination string     `yaml:"destination"`
	CreatedAt   *time.Time `yaml:"created_at"`
	ExpiresAt   *time.Time `yaml:"expires_at"`
	Tags        []string   `yaml:"tags"`
}

// LoadSeed creates the aliases listed in a YAML seed file. Codes that already exist
// are skipped, so loading the same file twice is harmless. Entries without
// created_at use now. Returns the number of aliases created.
func LoadSeed(ctx context.Context, path string, registry Registry, now time.Time) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	created := 0
	for i, entry := range f.Aliases {
		createdAt := now
		if entry.CreatedAt != nil {
			createdAt = *entry.CreatedAt
		}
		a, err := models.NewAlias(entry.Code, entry.Destination, createdAt, entry.ExpiresAt, entry.Tags)
		if err != nil {
			return created, fmt.Errorf("seed entry %d (%q): %w", i, entry.Code, err)
		}
		if err := registry.Create(ctx, a); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				continue
			}
			return created, fmt.Errorf("seed entry %d (%q): %w", i, entry.Code, err)
		}
		created++
	}
	return created, nil
}
