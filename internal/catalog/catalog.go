// Package catalog holds the static style and preset tables that feed prompt
// composition. The built-in tables can be extended from a YAML file.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

var (
	ErrStyleNotFound  = errors.New("style not found")
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidEntry   = errors.New("invalid catalog entry")
)

// Style maps a short identifier onto descriptor text appended to prompts.
type Style struct {
	ID         string `yaml:"id"`
	Label      string `yaml:"label"`
	Descriptor string `yaml:"descriptor"`
}

type Preset struct {
	Title  string `yaml:"title"`
	Prompt string `yaml:"prompt"`
}

type Category struct {
	Name    string   `yaml:"category"`
	Presets []Preset `yaml:"items"`
}

// File is the on-disk YAML layout accepted by LoadFile.
type File struct {
	Styles  []Style    `yaml:"styles"`
	Presets []Category `yaml:"presets"`
}

type Catalog struct {
	styles     []Style
	categories []Category
}

// Default returns a catalog seeded with the built-in tables.
func Default() *Catalog {
	c := New(nil, nil)
	c.styles = append(c.styles, builtinStyles...)
	for _, cat := range builtinCategories {
		c.categories = append(c.categories, Category{
			Name:    cat.Name,
			Presets: append([]Preset(nil), cat.Presets...),
		})
	}
	return c
}

func New(styles []Style, categories []Category) *Catalog {
	c := &Catalog{}
	for _, s := range styles {
		c.putStyle(s)
	}
	for _, cat := range categories {
		c.putCategory(cat)
	}
	return c
}

func (c *Catalog) Style(id string) (Style, bool) {
	for _, s := range c.styles {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}

func (c *Catalog) FindStyle(id string) (Style, error) {
	s, ok := c.Style(strings.TrimSpace(id))
	if !ok {
		return Style{}, fmt.Errorf("%w: %q", ErrStyleNotFound, id)
	}
	return s, nil
}

// Descriptor satisfies prompt.StyleLookup.
func (c *Catalog) Descriptor(id string) (string, bool) {
	s, ok := c.Style(id)
	if !ok {
		return "", false
	}
	return s.Descriptor, true
}

func (c *Catalog) Styles() []Style {
	return append([]Style(nil), c.styles...)
}

func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = Category{Name: cat.Name, Presets: append([]Preset(nil), cat.Presets...)}
	}
	return out
}

// FindPreset matches titles case-insensitively and ignores surrounding space.
func (c *Catalog) FindPreset(title string) (Preset, error) {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(title))
	for _, cat := range c.categories {
		for _, p := range cat.Presets {
			if fold.String(p.Title) == want {
				return p, nil
			}
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrPresetNotFound, title)
}

// LoadFile merges styles and presets from a YAML file. Styles with an
// existing ID replace the built-in entry; presets are grouped by category.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	if err := f.Validate(); err != nil {
		return fmt.Errorf("catalog %s: %w", path, err)
	}

	for _, s := range f.Styles {
		c.putStyle(s)
	}
	for _, cat := range f.Presets {
		c.putCategory(cat)
	}
	return nil
}

func (f *File) Validate() error {
	for i, s := range f.Styles {
		if s.ID == "" || s.Descriptor == "" {
			return fmt.Errorf("%w: style %d needs id and descriptor", ErrInvalidEntry, i)
		}
	}
	for _, cat := range f.Presets {
		if cat.Name == "" {
			return fmt.Errorf("%w: preset category without a name", ErrInvalidEntry)
		}
		for _, p := range cat.Presets {
			if p.Title == "" || p.Prompt == "" {
				return fmt.Errorf("%w: preset in %q needs title and prompt", ErrInvalidEntry, cat.Name)
			}
		}
	}
	return nil
}

func (c *Catalog) putStyle(s Style) {
	if s.Label == "" {
		s.Label = s.ID
	}
	for i := range c.styles {
		if c.styles[i].ID == s.ID {
			c.styles[i] = s
			return
		}
	}
	c.styles = append(c.styles, s)
}

func (c *Catalog) putCategory(cat Category) {
	for i := range c.categories {
		if c.categories[i].Name != cat.Name {
			continue
		}
		for _, p := range cat.Presets {
			c.categories[i].Presets = putPreset(c.categories[i].Presets, p)
		}
		return
	}
	c.categories = append(c.categories, Category{
		Name:    cat.Name,
		Presets: append([]Preset(nil), cat.Presets...),
	})
}

func putPreset(presets []Preset, p Preset) []Preset {
	for i := range presets {
		if presets[i].Title == p.Title {
			presets[i] = p
			return presets
		}
	}
	return append(presets, p)
}
