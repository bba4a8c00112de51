// Package render turns template markup and resolved field values into
// document bytes.
//
// The Renderer interface is the seam for real document engines. The
// TextRenderer shipped here merges {{token}} placeholders in text markup.
package render

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

// TokenPattern matches {{token}} placeholders. Whitespace inside the braces
// is tolerated; the token itself is group 1.
var TokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`) //nolint:gochecknoglobals // immutable after init

// Values resolves a field name to its value.
type Values interface {
	Lookup(name string) (string, bool)
}

// MapValues is a Values backed by a plain map with exact-key lookup.
type MapValues map[string]string

// Lookup implements Values.
func (m MapValues) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Request carries everything a renderer needs for one template.
type Request struct {
	TemplateID string
	// Source is the template markup.
	Source []byte
	// Mappings maps placeholder tokens to field names. Tokens without a
	// mapping are looked up by their own name.
	Mappings map[string]string
	Data     Values
}

// Renderer merges resolved values into a template source.
type Renderer interface {
	Render(ctx context.Context, req Request) ([]byte, error)
}

// Func adapts a function to the Renderer interface.
type Func func(ctx context.Context, req Request) ([]byte, error)

// Render implements Renderer.
func (f Func) Render(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}

// TextRenderer substitutes {{token}} placeholders in text markup.
// Unresolved or blank values render as the missing-value marker.
type TextRenderer struct {
	missing string
}

// NewTextRenderer creates a TextRenderer. An empty marker selects
// constants.MissingValueMarker.
func NewTextRenderer(missingMarker string) *TextRenderer {
	if missingMarker == "" {
		missingMarker = constants.MissingValueMarker
	}
	return &TextRenderer{missing: missingMarker}
}

// Render implements Renderer.
func (r *TextRenderer) Render(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Source) == 0 {
		return nil, fmt.Errorf("%w: template %s has no content", docerrors.ErrRender, req.TemplateID)
	}

	out := TokenPattern.ReplaceAllStringFunc(string(req.Source), func(match string) string {
		token := TokenPattern.FindStringSubmatch(match)[1]
		field := token
		if mapped, ok := req.Mappings[token]; ok && mapped != "" {
			field = mapped
		}
		if req.Data == nil {
			return r.missing
		}
		if v, ok := req.Data.Lookup(field); ok && strings.TrimSpace(v) != "" {
			return v
		}
		return r.missing
	})
	return []byte(out), nil
}

// Tokens returns the distinct placeholder tokens in content, in order of
// first appearance.
func Tokens(content string) []string {
	matches := TokenPattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]bool, len(matches))
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			tokens = append(tokens, m[1])
		}
	}
	return tokens
}

// ReplaceToken rewrites every placeholder naming token using replace,
// which receives the token and returns the replacement text.
func ReplaceToken(content, token string, replace func(string) string) string {
	return TokenPattern.ReplaceAllStringFunc(content, func(match string) string {
		if TokenPattern.FindStringSubmatch(match)[1] != token {
			return match
		}
		return replace(token)
	})
}
