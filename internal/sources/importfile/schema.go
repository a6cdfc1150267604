// Package importfile seeds an account from a YAML bookmark file at
// startup. The import is idempotent: entries whose URL already exists
// for the owner are skipped, so the same file can ship with every
// deployment.
package importfile

// Entry is a single bookmark in the import file.
type Entry struct {
	URL                string   `yaml:"url"`
	Title              string   `yaml:"title"`
	Notes              string   `yaml:"notes"`
	ReviewIntervalDays *int     `yaml:"review_interval_days"`
	Tags               []string `yaml:"tags"`
}

// File is the root structure of the import YAML.
type File struct {
	Bookmarks []Entry `yaml:"bookmarks"`
}
