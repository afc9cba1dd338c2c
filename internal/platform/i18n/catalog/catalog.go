// Package catalog holds the embedded message catalogs, one YAML file per
// locale, and picks the catalog closest to a caller's language preference.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every other catalog translates.
const BaseLocale = "en-US"

//go:embed locales/*.yaml
var embedded embed.FS

var defaultSet = mustLoad(embedded)

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Catalog renders the messages of one locale.
type Catalog struct {
	locale    string
	templates map[string]*template.Template
}

// Set is a group of catalogs sharing the same keys.
type Set struct {
	// catalogs[0] is the base locale; the order matches the matcher's tags.
	catalogs []*Catalog
	matcher  language.Matcher
}

// Default returns the catalogs embedded in the binary.
func Default() *Set {
	return defaultSet
}

// Load reads locales/<locale>.yaml files from fsys. Each file must name the
// locale of its filename, every template must parse, and every locale must
// define exactly the keys of BaseLocale.
func Load(fsys fs.FS) (*Set, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob catalogs: %w", err)
	}
	sort.Strings(paths)

	byLocale := make(map[string]*Catalog, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		if want := strings.TrimSuffix(path.Base(p), ".yaml"); file.Locale != want {
			return nil, fmt.Errorf("%s: locale %q does not match filename", p, file.Locale)
		}
		cat, err := compile(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		byLocale[file.Locale] = cat
	}

	base, ok := byLocale[BaseLocale]
	if !ok {
		return nil, fmt.Errorf("no catalog for base locale %s", BaseLocale)
	}
	set := &Set{catalogs: []*Catalog{base}}
	for _, p := range paths {
		locale := strings.TrimSuffix(path.Base(p), ".yaml")
		if locale == BaseLocale {
			continue
		}
		cat := byLocale[locale]
		if err := sameKeys(base, cat); err != nil {
			return nil, err
		}
		set.catalogs = append(set.catalogs, cat)
	}

	tags := make([]language.Tag, len(set.catalogs))
	for i, cat := range set.catalogs {
		tags[i] = language.Make(cat.locale)
	}
	set.matcher = language.NewMatcher(tags)
	return set, nil
}

// Match returns the catalog closest to preference, which is either a locale
// name or an Accept-Language header. Empty, unparseable and unmatched
// preferences get the base catalog.
func (s *Set) Match(preference string) *Catalog {
	preference = strings.TrimSpace(preference)
	if preference == "" {
		return s.catalogs[0]
	}
	requested, _, err := language.ParseAcceptLanguage(preference)
	if err != nil || len(requested) == 0 {
		return s.catalogs[0]
	}
	_, index, confidence := s.matcher.Match(requested...)
	if confidence == language.No || index < 0 || index >= len(s.catalogs) {
		return s.catalogs[0]
	}
	return s.catalogs[index]
}

// Locales lists the loaded locales, base locale first.
func (s *Set) Locales() []string {
	out := make([]string, len(s.catalogs))
	for i, cat := range s.catalogs {
		out[i] = cat.locale
	}
	return out
}

// Locale returns the catalog's locale name.
func (c *Catalog) Locale() string {
	return c.locale
}

// Render fills the template for key with params. Missing params render
// empty; an unknown key renders as itself.
func (c *Catalog) Render(key string, params map[string]string) string {
	tmpl, ok := c.templates[key]
	if !ok {
		return key
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, params); err != nil {
		return key
	}
	return b.String()
}

func compile(file catalogFile) (*Catalog, error) {
	if len(file.Messages) == 0 {
		return nil, fmt.Errorf("no messages")
	}
	cat := &Catalog{locale: file.Locale, templates: make(map[string]*template.Template, len(file.Messages))}
	for key, text := range file.Messages {
		tmpl, err := template.New(key).Option("missingkey=zero").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", key, err)
		}
		cat.templates[key] = tmpl
	}
	return cat, nil
}

func sameKeys(base, other *Catalog) error {
	for key := range base.templates {
		if _, ok := other.templates[key]; !ok {
			return fmt.Errorf("locale %s is missing %s", other.locale, key)
		}
	}
	for key := range other.templates {
		if _, ok := base.templates[key]; !ok {
			return fmt.Errorf("locale %s defines %s, which %s does not", other.locale, key, BaseLocale)
		}
	}
	return nil
}

func mustLoad(fsys fs.FS) *Set {
	set, err := Load(fsys)
	if err != nil {
		panic(err)
	}
	return set
}
