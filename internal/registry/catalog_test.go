package registry

import (
	"strings"
	"testing"

	"lmapi/pkg/types"
)

func TestSelect(t *testing.T) {
	cat := NewCatalog(
		types.ModelInfo{Name: "small", SizeGB: 0.2, License: "apache-2.0"},
		types.ModelInfo{Name: "base", SizeGB: 0.45, License: "mit"},
		types.ModelInfo{Name: "large", SizeGB: 0.9, License: "cc-by-nc-4.0"},
		types.ModelInfo{Name: "xl", SizeGB: 3.5, License: "apache-2.0"},
	)
	permissive := func(l string) bool { return strings.HasPrefix(l, "apache") || strings.HasPrefix(l, "mit") }

	if got := cat.Select(0.48, nil).Name; got != "base" {
		t.Fatalf("expected base, got %s", got)
	}
	if got := cat.Select(1.0, nil).Name; got != "large" {
		t.Fatalf("expected large, got %s", got)
	}
	if got := cat.Select(1.0, permissive).Name; got != "base" {
		t.Fatalf("expected base with license filter, got %s", got)
	}
	if got := cat.Select(16, permissive).Name; got != "xl" {
		t.Fatalf("expected xl, got %s", got)
	}
	// nothing fits: first entry
	if got := cat.Select(0.1, nil).Name; got != "small" {
		t.Fatalf("expected fallback to first entry, got %s", got)
	}
	if got := NewCatalog().Select(1, nil).Name; got != "" {
		t.Fatalf("expected empty selection, got %s", got)
	}
}

func TestModelsReturnsCopy(t *testing.T) {
	cat := NewCatalog(types.ModelInfo{Name: "a"}, types.ModelInfo{Name: "b"})
	out := cat.Models()
	out[0].Name = "z"
	if cat.Models()[0].Name != "a" {
		t.Fatalf("catalog mutated via returned slice")
	}
}
