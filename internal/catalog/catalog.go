// Package catalog resolves setting keys to their type, default value and a
// localized description.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/terjecfg/internal/models"
)

// Supported locales.
const (
	LocaleEnUS = "en-US"
	LocalePtBR = "pt-BR"
	LocaleEsES = "es-ES"
	LocaleRuRU = "ru-RU"

	DefaultLocale = LocaleEnUS
)

// Locales lists every locale a catalog may carry descriptions for.
var Locales = []string{LocaleEnUS, LocalePtBR, LocaleEsES, LocaleRuRU}

//go:embed catalog.yaml
var defaultCatalog []byte

// Lookuper resolves metadata by exact setting key.
type Lookuper interface {
	Lookup(key string) (models.Metadata, bool)
}

// Entry is one setting as stored in the catalog file.
type Entry struct {
	Type         string            `yaml:"type" json:"type"`
	Default      string            `yaml:"default" json:"default"`
	Descriptions map[string]string `yaml:"descriptions" json:"descriptions"`
}

// Description returns the description for locale, falling back to the
// default locale when the requested one is missing.
func (e Entry) Description(locale string) string {
	if d := e.Descriptions[locale]; d != "" {
		return d
	}
	return e.Descriptions[DefaultLocale]
}

type document struct {
	Settings map[string]Entry `yaml:"settings"`
}

// Catalog is a read-only set of entries bound to one locale. It is safe for
// concurrent use.
type Catalog struct {
	locale  string
	entries map[string]Entry
}

// Empty returns a catalog with no entries.
func Empty() *Catalog {
	return &Catalog{locale: DefaultLocale, entries: map[string]Entry{}}
}

// Load decodes a YAML catalog from r.
func Load(r io.Reader, locale string) (*Catalog, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	if err := validation.Validate(locale, validation.In(toAny(Locales)...)); err != nil {
		return nil, fmt.Errorf("catalog: locale %q: %w", locale, err)
	}

	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	entries := make(map[string]Entry, len(doc.Settings))
	for key, e := range doc.Settings {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("catalog: empty setting key")
		}
		for loc := range e.Descriptions {
			if err := validation.Validate(loc, validation.In(toAny(Locales)...)); err != nil {
				return nil, fmt.Errorf("catalog: %s: locale %q: %w", key, loc, err)
			}
		}
		entries[key] = e
	}
	return &Catalog{locale: locale, entries: entries}, nil
}

// LoadFile reads a catalog from path.
func LoadFile(path, locale string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, locale)
}

// Default returns the catalog compiled into the binary.
func Default(locale string) (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog), locale)
}

// Locale returns the locale descriptions are resolved in.
func (c *Catalog) Locale() string { return c.locale }

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup returns the metadata for key. Unknown keys report false.
func (c *Catalog) Lookup(key string) (models.Metadata, bool) {
	e, ok := c.entries[key]
	if !ok {
		return models.Metadata{}, false
	}
	return models.Metadata{
		Type:        e.Type,
		Default:     e.Default,
		Description: e.Description(c.locale),
	}, true
}

// Entry returns the raw entry for key with descriptions in every locale.
func (c *Catalog) Entry(key string) (Entry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	descs := make(map[string]string, len(e.Descriptions))
	for k, v := range e.Descriptions {
		descs[k] = v
	}
	e.Descriptions = descs
	return e, true
}

// Keys returns every key in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
