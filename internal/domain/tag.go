package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Tag is a named label shared by reference across claims.
// Identity is the ID, not the Name: a rename yields a new Tag value that
// keeps the ID. Tags are only minted by the tag registry.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewTag constructs a Tag with a fresh ID. The name is trimmed and must not
// be empty.
func NewTag(name string) (Tag, error) {
	return newTagWithID(uuid.NewString(), name)
}

// Renamed returns a copy of t carrying the same ID and a new name.
func (t Tag) Renamed(name string) (Tag, error) {
	return newTagWithID(t.ID, name)
}

func newTagWithID(id, name string) (Tag, error) {
	name = NormalizeTagName(name)
	if name == "" {
		return Tag{}, fmt.Errorf("%w: tag name is required", ErrValidation)
	}
	return Tag{ID: id, Name: name}, nil
}

// Validate checks a Tag decoded from storage.
func (t Tag) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: tag id is required", ErrValidation)
	}
	if NormalizeTagName(t.Name) == "" || t.Name != NormalizeTagName(t.Name) {
		return fmt.Errorf("%w: tag %s has an invalid name %q", ErrValidation, t.ID, t.Name)
	}
	return nil
}

func (t Tag) String() string { return t.Name }

// NormalizeTagName trims surrounding whitespace. Matching is case-sensitive.
func NormalizeTagName(name string) string {
	return strings.TrimSpace(name)
}

// SortTags orders tags by name ignoring case, then by exact name, then by ID,
// so "apple" and "Apple" sit together in a stable order.
func SortTags(tags []Tag) {
	sort.SliceStable(tags, func(i, j int) bool {
		li, lj := strings.ToLower(tags[i].Name), strings.ToLower(tags[j].Name)
		if li != lj {
			return li < lj
		}
		if tags[i].Name != tags[j].Name {
			return tags[i].Name < tags[j].Name
		}
		return tags[i].ID < tags[j].ID
	})
}
