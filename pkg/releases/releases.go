// Package releases serves the "what's new" notes shown to users after an
// update.
package releases

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/config"
)

//go:embed releases.yaml
var embedded []byte

// Note is one release.
type Note = config.ReleaseNote

type entry struct {
	version *semver.Version
	note    Note
}

// Book holds release notes ordered newest first.
type Book struct {
	entries []entry
}

// New builds a Book. Every version must be valid semver and unique.
func New(notes []Note) (*Book, error) {
	b := &Book{entries: make([]entry, 0, len(notes))}
	seen := make(map[string]bool, len(notes))
	for _, n := range notes {
		v, err := semver.NewVersion(n.Version)
		if err != nil {
			return nil, fmt.Errorf("release %q: %w", n.Version, err)
		}
		if seen[v.String()] {
			return nil, fmt.Errorf("release %q listed twice", n.Version)
		}
		seen[v.String()] = true
		b.entries = append(b.entries, entry{version: v, note: n})
	}
	sort.Slice(b.entries, func(i, j int) bool {
		return b.entries[i].version.GreaterThan(b.entries[j].version)
	})
	return b, nil
}

// Default returns the notes shipped with the binary.
func Default() (*Book, error) {
	notes, err := config.ParseReleases(embedded)
	if err != nil {
		return nil, err
	}
	return New(notes)
}

// Load reads notes from path, or the shipped notes when path is empty.
func Load(path string) (*Book, error) {
	if path == "" {
		return Default()
	}
	notes, err := config.LoadReleases(path)
	if err != nil {
		return nil, err
	}
	return New(notes)
}

// All returns every note, newest first.
func (b *Book) All() []Note {
	out := make([]Note, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.note
	}
	return out
}

// Since returns the notes newer than seen, newest first. An empty or
// unparsable seen version returns every note.
func (b *Book) Since(seen string) []Note {
	if seen == "" {
		return b.All()
	}
	v, err := semver.NewVersion(seen)
	if err != nil {
		return b.All()
	}
	out := make([]Note, 0)
	for _, e := range b.entries {
		if e.version.GreaterThan(v) {
			out = append(out, e.note)
		}
	}
	return out
}

// Latest returns the newest note.
func (b *Book) Latest() (Note, bool) {
	if len(b.entries) == 0 {
		return Note{}, false
	}
	return b.entries[0].note, true
}
