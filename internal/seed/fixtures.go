package seed

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Fixtures is a hand-written data set, usually loaded from a YAML file.
// Authors, likers and bookmarkers refer to profiles by username.
type Fixtures struct {
	Profiles []ProfileFixture `yaml:"profiles"`
}

// ProfileFixture describes one profile and the content it owns.
type ProfileFixture struct {
	Username string        `yaml:"username"`
	UserID   string        `yaml:"user_id"`
	Bio      string        `yaml:"bio"`
	Avatar   string        `yaml:"avatar"`
	Watches  []string      `yaml:"watches"`
	Posts    []PostFixture `yaml:"posts"`
}

type PostFixture struct {
	Content      string           `yaml:"content"`
	Pictures     []string         `yaml:"pictures"`
	Videos       []string         `yaml:"videos"`
	LikedBy      []string         `yaml:"liked_by"`
	BookmarkedBy []string         `yaml:"bookmarked_by"`
	Comments     []CommentFixture `yaml:"comments"`
}

type CommentFixture struct {
	Author  string   `yaml:"author"`
	Content string   `yaml:"content"`
	LikedBy []string `yaml:"liked_by"`
}

// LoadFixtures reads and validates a fixture file.
func LoadFixtures(path string) (*Fixtures, error) {
	// #nosec G304: path comes from configuration of a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(raw)
}

// ParseFixtures decodes fixture YAML and checks that every reference
// resolves to a declared profile.
func ParseFixtures(raw []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixtures) validate() error {
	known := make(map[string]bool, len(fx.Profiles))
	for _, p := range fx.Profiles {
		if p.Username == "" {
			return errors.New("fixture profile without username")
		}
		if known[p.Username] {
			return fmt.Errorf("duplicate fixture profile %q", p.Username)
		}
		if p.UserID != "" {
			if _, err := uuid.Parse(p.UserID); err != nil {
				return fmt.Errorf("profile %q: invalid user_id: %w", p.Username, err)
			}
		}
		known[p.Username] = true
	}

	check := func(owner, field string, names []string) error {
		for _, name := range names {
			if !known[name] {
				return fmt.Errorf("profile %q: %s references unknown profile %q", owner, field, name)
			}
		}
		return nil
	}

	for _, p := range fx.Profiles {
		if err := check(p.Username, "watches", p.Watches); err != nil {
			return err
		}
		for _, post := range p.Posts {
			if err := check(p.Username, "liked_by", post.LikedBy); err != nil {
				return err
			}
			if err := check(p.Username, "bookmarked_by", post.BookmarkedBy); err != nil {
				return err
			}
			for _, c := range post.Comments {
				if err := check(p.Username, "comment author", []string{c.Author}); err != nil {
					return err
				}
				if err := check(p.Username, "comment liked_by", c.LikedBy); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
