package curated

import (
	"fmt"
	"strings"

	"github.com/launchpane/querybox/internal/domain"
)

// Mapper converts a parsed curated config to domain entities.
type Mapper struct{}

// NewMapper creates a new mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapEntries converts the popular list to []domain.CuratedEntry.
// Entries without a usable URL are skipped.
func (m *Mapper) MapEntries(config Config) ([]domain.CuratedEntry, error) {
	entries := make([]domain.CuratedEntry, 0, len(config.Popular))

	for _, props := range config.Popular {
		if props.URL == "" {
			continue
		}

		host := domain.HostOf(props.URL)
		if host == "" {
			// Skip invalid URLs
			continue
		}

		title := props.Title
		if title == "" {
			title = host
		}

		entries = append(entries, domain.CuratedEntry{
			Title:    title,
			URL:      props.URL,
			Category: props.Category,
		})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no valid entries found in curated config")
	}

	return entries, nil
}

// MapWorkspaces builds the host→category table from the workspaces
// section, merged with per-entry categories from the popular list.
func (m *Mapper) MapWorkspaces(config Config) map[string]string {
	table := make(map[string]string)

	for category, hosts := range config.Workspaces {
		for _, host := range hosts {
			host = strings.ToLower(strings.TrimSpace(host))
			if host == "" {
				continue
			}
			table[host] = category
		}
	}

	// Per-entry categories win over the workspaces section.
	for _, props := range config.Popular {
		if props.Category == "" {
			continue
		}
		if host := domain.HostOf(props.URL); host != "" {
			table[host] = props.Category
		}
	}

	return table
}
