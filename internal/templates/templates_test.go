package templates

import (
	"errors"
	"testing"

	"adfactory/internal/domain"
)

func TestLoadAllModes(t *testing.T) {
	for _, mode := range []domain.Mode{domain.ModeProduct, domain.ModeUGC, domain.ModePerspective} {
		tpl, err := Load(mode)
		if err != nil {
			t.Fatalf("Load(%q) error = %v", mode, err)
		}
		if tpl.Style.Width <= 0 || tpl.Style.Height <= 0 {
			t.Fatalf("Load(%q) style dimensions = %dx%d, want positive", mode, tpl.Style.Width, tpl.Style.Height)
		}
		if tpl.Prompts.Metadata == "" {
			t.Fatalf("Load(%q) missing metadata prompt", mode)
		}
	}
}

func TestLoadProductTemplate(t *testing.T) {
	tpl, err := Load(domain.ModeProduct)
	if err != nil {
		t.Fatalf("Load(product) error = %v", err)
	}
	if len(tpl.AnglePatterns) == 0 {
		t.Fatalf("product template has no angle patterns")
	}
	if len(tpl.ShotTypes) == 0 {
		t.Fatalf("product template has no shot types")
	}
	if tpl.Prompts.Intake == "" || tpl.Prompts.Shots == "" {
		t.Fatalf("product template missing stage prompts")
	}
}

func TestLoadPerspectiveTemplate(t *testing.T) {
	tpl, err := Load(domain.ModePerspective)
	if err != nil {
		t.Fatalf("Load(perspective) error = %v", err)
	}
	if tpl.Prompts.Perspectives == "" || tpl.Prompts.Transitions == "" {
		t.Fatalf("perspective template missing planning prompts")
	}
}

func TestLoadInvalidMode(t *testing.T) {
	if _, err := Load(domain.Mode("carousel")); !errors.Is(err, domain.ErrInvalidMode) {
		t.Fatalf("Load(carousel) error = %v, want ErrInvalidMode", err)
	}
}
