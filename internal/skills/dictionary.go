// Package skills resolves free-text skill mentions against a controlled vocabulary.
package skills

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"alfredoptarigan/profile-matcher/internal/apperrors"
)

// SkillEntry is one canonical skill of the dictionary.
type SkillEntry struct {
	Canonical      string   `json:"canonical"`
	Domain         string   `json:"domain"`
	Aliases        []string `json:"aliases"`
	Related        []string `json:"related"`
	Certifications []string `json:"certifications"`
}

// Dictionary is the immutable lookup structure built from a dictionary document.
// It is safe for concurrent use.
type Dictionary struct {
	version   string
	updatedAt *time.Time
	domains   []string
	domainSet map[string]struct{}
	skills    map[string]*SkillEntry
	aliases   map[string]*SkillEntry
	allNames  []string
}

type rawEntry struct {
	Canonical      string   `mapstructure:"canonical"`
	Domain         string   `mapstructure:"domain"`
	Aliases        []string `mapstructure:"aliases"`
	Related        []string `mapstructure:"related"`
	Certifications []string `mapstructure:"certifications"`
}

// Load reads and validates the dictionary document at path.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NotFound(apperrors.CodeDictionaryNotFound, "dictionary not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read dictionary %s: %w", path, err)
	}

	return Parse(data)
}

// Parse builds a Dictionary from a YAML or JSON document. Any structural or
// semantic problem yields a validation error and no dictionary.
func Parse(data []byte) (*Dictionary, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Validation(apperrors.CodeDictionaryInvalid, "dictionary is not valid YAML: %v", err)
	}
	if doc == nil {
		return nil, apperrors.Validation(apperrors.CodeDictionaryInvalid, "dictionary must be a mapping")
	}

	if err := validateShape(doc); err != nil {
		return nil, err
	}

	version := strings.TrimSpace(fmt.Sprint(doc["version"]))
	if version == "" {
		return nil, invalid("version must be a non-empty string")
	}

	domains, err := buildDomains(doc["domains"].([]interface{}))
	if err != nil {
		return nil, err
	}

	d := &Dictionary{
		version:   version,
		updatedAt: parseUpdatedAt(doc["updated_at"]),
		domains:   domains,
		domainSet: make(map[string]struct{}, len(domains)),
		skills:    make(map[string]*SkillEntry),
		aliases:   make(map[string]*SkillEntry),
	}
	for _, domain := range domains {
		d.domainSet[domain] = struct{}{}
	}

	if err := d.buildEntries(doc["skills"].(map[string]interface{})); err != nil {
		return nil, err
	}

	d.allNames = make([]string, 0, len(d.skills)+len(d.aliases))
	for name := range d.skills {
		d.allNames = append(d.allNames, name)
	}
	for name := range d.aliases {
		d.allNames = append(d.allNames, name)
	}
	sort.Strings(d.allNames)

	return d, nil
}

func buildDomains(raw []interface{}) ([]string, error) {
	domains := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		domain := normalizeName(fmt.Sprint(item))
		if domain == "" {
			return nil, invalid("domains must be unique and non-empty")
		}
		if _, dup := seen[domain]; dup {
			return nil, invalid("domains must be unique and non-empty: duplicate %q", domain)
		}
		seen[domain] = struct{}{}
		domains = append(domains, domain)
	}
	return domains, nil
}

func (d *Dictionary) buildEntries(raw map[string]interface{}) error {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var re rawEntry
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &re,
		})
		if err != nil {
			return fmt.Errorf("failed to build entry decoder: %w", err)
		}
		if err := decoder.Decode(raw[key]); err != nil {
			return invalid("skill %q is malformed: %v", key, err)
		}

		canonical := normalizeName(re.Canonical)
		if canonical == "" {
			canonical = normalizeName(key)
		}
		if canonical == "" {
			return invalid("skill %q has an empty canonical name", key)
		}

		domain := normalizeName(re.Domain)
		if domain == "" {
			return invalid("skill %q missing domain", canonical)
		}
		if _, ok := d.domainSet[domain]; !ok {
			return invalid("skill %q has unknown domain %q", canonical, domain)
		}
		if _, dup := d.skills[canonical]; dup {
			return invalid("duplicate canonical skill %q", canonical)
		}

		entry := &SkillEntry{
			Canonical:      canonical,
			Domain:         domain,
			Aliases:        normalizeList(re.Aliases, canonical),
			Related:        normalizeList(re.Related, ""),
			Certifications: normalizeList(re.Certifications, ""),
		}
		d.skills[canonical] = entry

		for _, alias := range entry.Aliases {
			if owner, dup := d.aliases[alias]; dup {
				return invalid("alias %q is declared by both %q and %q", alias, owner.Canonical, canonical)
			}
			d.aliases[alias] = entry
		}
	}

	for alias, owner := range d.aliases {
		if other, clash := d.skills[alias]; clash && other != owner {
			return invalid("alias %q of %q collides with canonical skill %q", alias, owner.Canonical, other.Canonical)
		}
	}

	return nil
}

func parseUpdatedAt(raw interface{}) *time.Time {
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// normalizeList trims and lowercases values, dropping empties, duplicates and skip.
func normalizeList(values []string, skip string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = normalizeName(v)
		if v == "" || v == skip {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func invalid(format string, args ...interface{}) error {
	return apperrors.Validation(apperrors.CodeDictionaryInvalid, format, args...)
}

func (d *Dictionary) Version() string { return d.version }

// UpdatedAt is nil when the document carried no parseable timestamp.
func (d *Dictionary) UpdatedAt() *time.Time { return d.updatedAt }

// Domains returns the declared domains in document order.
func (d *Dictionary) Domains() []string {
	return append([]string(nil), d.domains...)
}

func (d *Dictionary) HasDomain(domain string) bool {
	_, ok := d.domainSet[normalizeName(domain)]
	return ok
}

func (d *Dictionary) CanonicalCount() int { return len(d.skills) }

func (d *Dictionary) AliasCount() int { return len(d.aliases) }

func (d *Dictionary) ByCanonical(name string) (*SkillEntry, bool) {
	e, ok := d.skills[name]
	return e, ok
}

func (d *Dictionary) ByAlias(alias string) (*SkillEntry, bool) {
	e, ok := d.aliases[alias]
	return e, ok
}

// ByName resolves a canonical name first and an alias second.
func (d *Dictionary) ByName(name string) (*SkillEntry, bool) {
	if e, ok := d.skills[name]; ok {
		return e, true
	}
	return d.ByAlias(name)
}

// AllNames returns every canonical name and alias, sorted. The slice is shared
// and must not be modified.
func (d *Dictionary) AllNames() []string {
	return d.allNames
}

// Entries returns the canonical entries sorted by name.
func (d *Dictionary) Entries() []*SkillEntry {
	entries := make([]*SkillEntry, 0, len(d.skills))
	for _, e := range d.skills {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Canonical < entries[j].Canonical })
	return entries
}
