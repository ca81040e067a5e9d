package curated

// Config represents the top-level structure of the curated sources file.
type Config struct {
	// Popular is the static curated URL list offered as suggestions.
	Popular []EntryProps `yaml:"popular"`

	// Workspaces maps a workspace category name to the hosts that
	// belong to it, e.g. dev: [github.com, stackoverflow.com].
	Workspaces map[string][]string `yaml:"workspaces,omitempty"`
}

// EntryProps contains the properties of one curated entry.
type EntryProps struct {
	Title    string `yaml:"title"`
	URL      string `yaml:"url"`
	Category string `yaml:"category,omitempty"`
}
