// Package feature holds the per-product parameterization of the generation
// engine. Every "transform an image" surface differs only in its prompt
// variants, destination storage prefix and poll budget; the engine itself is
// feature-agnostic.
package feature

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"roomcraft/internal/domain"
)

// Budgets supplies the externally configured poll and retry budgets.
type Budgets struct {
	ImageAttempts int
	ImageInterval time.Duration
	VideoAttempts int
	VideoInterval time.Duration
	RetryBudget   int
}

// Feature describes one generation surface.
type Feature struct {
	Name          string
	Kind          domain.MediaKind
	StoragePrefix string
	// Upsert selects the overwrite-safe upload policy. Features whose keys
	// embed a uniqueness token can tolerate create-only uploads.
	Upsert       bool
	PollAttempts int
	PollInterval time.Duration
	RetryBudget  int

	// variants holds prompt templates ordered by preference. The first is
	// the primary directive; later entries are policy-softened alternates
	// used when the provider rejects a job for content-policy reasons.
	variants []string
}

// Directives renders the feature's prompt variants against the request's
// style parameters. The result is never empty and the primary variant is
// always first.
func (f *Feature) Directives(req *domain.GenerationRequest) []domain.Directive {
	out := make([]domain.Directive, 0, len(f.variants))
	for _, tmpl := range f.variants {
		out = append(out, domain.Directive{
			Prompt: renderTemplate(tmpl, req.Style),
			Params: map[string]any{"feature": f.Name},
		})
	}
	return out
}

// renderTemplate substitutes {key} placeholders from style params. Unknown
// placeholders collapse to an empty string so prompts stay well-formed when
// a caller omits optional parameters.
func renderTemplate(tmpl string, style map[string]string) string {
	keys := make([]string, 0, len(style))
	for k := range style {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", style[k])
	}
	rendered := strings.NewReplacer(pairs...).Replace(tmpl)
	for {
		open := strings.Index(rendered, "{")
		if open < 0 {
			break
		}
		end := strings.Index(rendered[open:], "}")
		if end < 0 {
			break
		}
		rendered = rendered[:open] + rendered[open+end+1:]
	}
	return strings.Join(strings.Fields(rendered), " ")
}

// Registry builds the full feature set using the supplied budgets.
func Registry(b Budgets) map[string]*Feature {
	features := []*Feature{
		{
			Name:          "room-redesign",
			Kind:          domain.MediaImage,
			StoragePrefix: "redesigns",
			variants: []string{
				"Redesign this {room_type} interior in {style} style. Replace furniture, wall treatment and decor while keeping the room geometry, windows and doors exactly as photographed. Photorealistic result.",
				"Tastefully update the furniture and decor of this interior photograph toward a {style} aesthetic. Keep the architecture unchanged. Family-friendly, photorealistic.",
			},
		},
		{
			Name:          "furnish",
			Kind:          domain.MediaImage,
			StoragePrefix: "furnished",
			variants: []string{
				"Furnish this empty {room_type} as a lived-in space in {style} style. Add furniture, lighting and decor appropriate to the room. Keep walls, floor and windows exactly as photographed.",
				"Stage this empty room with neutral, tasteful {style} furniture. Preserve the existing architecture. Photorealistic.",
			},
		},
		{
			Name:          "sketch",
			Kind:          domain.MediaImage,
			StoragePrefix: "renders",
			variants: []string{
				"Convert this architectural sketch into a photorealistic render of the finished space in {style} style. Respect the drawn proportions and layout.",
				"Produce a clean photorealistic visualization of this drawing. Neutral {style} materials, accurate proportions.",
			},
		},
		{
			Name:          "animate",
			Kind:          domain.MediaVideo,
			StoragePrefix: "animations",
			variants: []string{
				"Animate this photograph with a slow cinematic camera push-in and subtle ambient motion. Keep the scene content unchanged.",
				"Add gentle parallax motion to this photograph. No new content, no people.",
			},
		},
	}

	out := make(map[string]*Feature, len(features))
	for _, f := range features {
		f.RetryBudget = b.RetryBudget
		switch f.Kind {
		case domain.MediaVideo:
			f.PollAttempts = b.VideoAttempts
			f.PollInterval = b.VideoInterval
		default:
			f.PollAttempts = b.ImageAttempts
			f.PollInterval = b.ImageInterval
		}
		out[f.Name] = f
	}
	return out
}

// Lookup resolves a feature by name.
func Lookup(features map[string]*Feature, name string) (*Feature, error) {
	f, ok := features[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown feature %q", name)
	}
	return f, nil
}
