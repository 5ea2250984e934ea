package feature

import (
	"strings"
	"testing"
	"time"

	"roomcraft/internal/domain"
)

func budgets() Budgets {
	return Budgets{
		ImageAttempts: 40,
		ImageInterval: 5 * time.Second,
		VideoAttempts: 120,
		VideoInterval: 5 * time.Second,
		RetryBudget:   1,
	}
}

func TestRegistryAssignsBudgetsByKind(t *testing.T) {
	features := Registry(budgets())

	img, err := Lookup(features, "room-redesign")
	if err != nil {
		t.Fatalf("Lookup(room-redesign) error = %v", err)
	}
	if img.PollAttempts != 40 || img.PollInterval != 5*time.Second {
		t.Fatalf("image budget = %d x %s", img.PollAttempts, img.PollInterval)
	}

	vid, err := Lookup(features, "animate")
	if err != nil {
		t.Fatalf("Lookup(animate) error = %v", err)
	}
	if vid.Kind != domain.MediaVideo {
		t.Fatalf("animate kind = %v, want video", vid.Kind)
	}
	if vid.PollAttempts != 120 {
		t.Fatalf("video attempts = %d, want 120", vid.PollAttempts)
	}
}

func TestRegistryEveryFeatureHasAlternateDirective(t *testing.T) {
	for name, f := range Registry(budgets()) {
		if len(f.variants) < 2 {
			t.Fatalf("feature %s has %d variants, want at least a primary and an alternate", name, len(f.variants))
		}
		if f.StoragePrefix == "" {
			t.Fatalf("feature %s has no storage prefix", name)
		}
	}
}

func TestDirectivesRenderStyleParams(t *testing.T) {
	features := Registry(budgets())
	f, _ := Lookup(features, "room-redesign")

	req := &domain.GenerationRequest{
		Style: map[string]string{"style": "japandi", "room_type": "bedroom"},
	}
	directives := f.Directives(req)
	if len(directives) != 2 {
		t.Fatalf("directives = %d, want 2", len(directives))
	}
	if !strings.Contains(directives[0].Prompt, "japandi") || !strings.Contains(directives[0].Prompt, "bedroom") {
		t.Fatalf("primary prompt = %q, want style params substituted", directives[0].Prompt)
	}
	if directives[0].Prompt == directives[1].Prompt {
		t.Fatal("alternate directive equals primary")
	}
}

func TestDirectivesStripUnknownPlaceholders(t *testing.T) {
	features := Registry(budgets())
	f, _ := Lookup(features, "furnish")

	directives := f.Directives(&domain.GenerationRequest{})
	for _, d := range directives {
		if strings.ContainsAny(d.Prompt, "{}") {
			t.Fatalf("prompt %q still contains placeholder braces", d.Prompt)
		}
		if strings.Contains(d.Prompt, "  ") {
			t.Fatalf("prompt %q contains doubled spaces after substitution", d.Prompt)
		}
	}
}

func TestLookup(t *testing.T) {
	features := Registry(budgets())

	if _, err := Lookup(features, " Sketch "); err != nil {
		t.Fatalf("Lookup with padding/case error = %v", err)
	}
	if _, err := Lookup(features, "outpaint"); err == nil {
		t.Fatal("Lookup(outpaint) error = nil, want unknown feature")
	}
}
