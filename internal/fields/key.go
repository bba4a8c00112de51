// Package fields resolves the flat key/value data set a template renders
// with, and validates it against the template's declared custom fields.
//
// Field names and labels are canonicalized once, at ingestion, so every
// later lookup compares canonical keys only.
package fields

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/lerboi/FileManagement-sub001/internal/domain"
)

// Canonical returns the canonical form of a field name or label:
// NFKC-normalized, case-folded, with every run of non-alphanumeric
// characters collapsed to a single underscore and trimmed at both ends.
//
//	Canonical("First Name") == "first_name"
//	Canonical("E-Mail ") == "e_mail"
func Canonical(s string) string {
	folded := cases.Fold().String(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// Key is the canonical identity of a declared custom field. Name and Label
// keep the declared spellings for messages.
type Key struct {
	Canonical string
	Name      string
	Label     string
}

// KeyOf returns the canonical key of a declared field. The name wins; the
// label is used only when the name is empty.
func KeyOf(f domain.CustomField) Key {
	canonical := Canonical(f.Name)
	if canonical == "" {
		canonical = Canonical(f.Label)
	}
	return Key{Canonical: canonical, Name: f.Name, Label: f.Label}
}

// aliases returns every canonical spelling that should resolve to the key.
func (k Key) aliases() []string {
	out := []string{k.Canonical}
	if l := Canonical(k.Label); l != "" && l != k.Canonical {
		out = append(out, l)
	}
	return out
}

// Index maps every canonical name and label of a field set to its key.
type Index map[string]Key

// NewIndex indexes declared fields by name and label. The first declaration
// of a canonical key wins.
func NewIndex(declared []domain.CustomField) Index {
	idx := make(Index, len(declared)*2)
	for _, f := range declared {
		k := KeyOf(f)
		if k.Canonical == "" {
			continue
		}
		for _, alias := range k.aliases() {
			if _, exists := idx[alias]; !exists {
				idx[alias] = k
			}
		}
	}
	return idx
}

// Normalize rewrites raw task-level values so every key is canonical and
// every label alias is replaced by its field's canonical name. Keys that
// match no declared field are kept in canonical form.
func (idx Index) Normalize(raw map[string]string) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		canonical := Canonical(k)
		if canonical == "" {
			continue
		}
		if key, ok := idx[canonical]; ok {
			canonical = key.Canonical
		}
		// An exact name beats a label alias when both are supplied.
		if _, exists := out[canonical]; exists && Canonical(k) != canonical {
			continue
		}
		out[canonical] = v
	}
	return out
}

// Collect returns the custom fields declared across templates, deduplicated
// by canonical key with the first declaration winning.
func Collect(templates []*domain.Template) []domain.CustomField {
	seen := make(map[string]bool)
	var out []domain.CustomField
	for _, t := range templates {
		if t == nil {
			continue
		}
		for _, f := range t.CustomFields {
			k := KeyOf(f).Canonical
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, f)
		}
	}
	return out
}
