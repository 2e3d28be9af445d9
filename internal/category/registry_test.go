package category_test

import (
	"errors"
	"testing"

	"cubby/internal/category"
	"cubby/internal/config"
	"cubby/internal/services"
)

func TestAddValidatesInput(t *testing.T) {
	cases := []struct {
		name       string
		catName    string
		extensions string
		folder     string
	}{
		{name: "empty name", catName: "", extensions: ".txt", folder: "Text"},
		{name: "empty extensions", catName: "Text", extensions: "", folder: "Text"},
		{name: "empty folder", catName: "Text", extensions: ".txt", folder: ""},
		{name: "no usable tokens", catName: "Text", extensions: " , ,", folder: "Text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg := category.NewRegistry()
			err := reg.Add(tc.catName, tc.extensions, tc.folder)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if reg.Len() != 0 {
				t.Fatalf("registry should stay empty, has %d", reg.Len())
			}
		})
	}
}

func TestAddNormalizesExtensions(t *testing.T) {
	reg := category.NewRegistry()
	if err := reg.Add("Documents", "PDF, .Txt ,docx", "Documents"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	snapshot := reg.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 category, got %d", len(snapshot))
	}
	got := snapshot[0].Extensions
	want := []string{".pdf", ".txt", ".docx"}
	if len(got) != len(want) {
		t.Fatalf("extensions %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("extensions %v, want %v", got, want)
		}
	}
	if !snapshot[0].Enabled {
		t.Fatal("new category should be enabled")
	}
}

func TestAddRejectsDuplicateName(t *testing.T) {
	reg := category.NewRegistry()
	if err := reg.Add("Documents", ".txt", "Documents"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := reg.Add("Documents", ".pdf", "Docs"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for duplicate, got %v", err)
	}
}

func TestMatchFirstWins(t *testing.T) {
	reg := category.NewRegistry(
		&category.Category{Name: "Logs", Folder: "Logs", Extensions: []string{".log"}, Enabled: true},
		&category.Category{Name: "Text", Folder: "Text", Extensions: []string{".log", ".txt"}, Enabled: true},
	)

	matched := reg.Match(".log")
	if matched == nil || matched.Name != "Logs" {
		t.Fatalf("expected Logs to win, got %+v", matched)
	}
}

func TestMatchSkipsDisabled(t *testing.T) {
	reg := category.NewRegistry(
		&category.Category{Name: "Logs", Folder: "Logs", Extensions: []string{".log"}, Enabled: true},
		&category.Category{Name: "Text", Folder: "Text", Extensions: []string{".log"}, Enabled: true},
	)
	if err := reg.SetEnabled("Logs", false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}

	matched := reg.Match(".log")
	if matched == nil || matched.Name != "Text" {
		t.Fatalf("expected Text after disabling Logs, got %+v", matched)
	}

	if err := reg.SetEnabled("Text", false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if matched := reg.Match(".log"); matched != nil {
		t.Fatalf("expected no match with all disabled, got %+v", matched)
	}
}

func TestSetEnabledUnknownName(t *testing.T) {
	reg := category.NewRegistry()
	if err := reg.SetEnabled("Nope", true); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestResetCountsCoversDisabledCategories(t *testing.T) {
	reg := category.NewRegistry(
		&category.Category{Name: "A", Folder: "A", Extensions: []string{".a"}, Enabled: true, Count: 3},
		&category.Category{Name: "B", Folder: "B", Extensions: []string{".b"}, Enabled: false, Count: 7},
	)

	reg.ResetCounts()

	for _, cat := range reg.Snapshot() {
		if cat.Count != 0 {
			t.Fatalf("category %s count %d after reset", cat.Name, cat.Count)
		}
	}
}

func TestCountsOmitsZeroEntries(t *testing.T) {
	reg := category.NewRegistry(
		&category.Category{Name: "A", Folder: "A", Extensions: []string{".a"}, Enabled: true},
		&category.Category{Name: "B", Folder: "B", Extensions: []string{".b"}, Enabled: true},
	)
	reg.Increment("A")
	reg.Increment("A")

	counts := reg.Counts()
	if len(counts) != 1 || counts["A"] != 2 {
		t.Fatalf("counts %v, want map[A:2]", counts)
	}
}

func TestFromConfigEmptyTableYieldsDefaults(t *testing.T) {
	reg, err := category.FromConfig(nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if reg.Len() != len(category.Defaults()) {
		t.Fatalf("expected default set, got %d categories", reg.Len())
	}
	if matched := reg.Match(".pdf"); matched == nil || matched.Name != "Documents" {
		t.Fatalf("expected .pdf to route to Documents, got %+v", matched)
	}
}

func TestFromConfigPreservesOrderAndEnabled(t *testing.T) {
	disabled := false
	reg, err := category.FromConfig([]config.Category{
		{Name: "First", Folder: "First", Extensions: []string{"TXT"}},
		{Name: "Second", Folder: "Second", Extensions: []string{".txt"}, Enabled: &disabled},
	})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}

	snapshot := reg.Snapshot()
	if snapshot[0].Name != "First" || snapshot[1].Name != "Second" {
		t.Fatalf("order not preserved: %+v", snapshot)
	}
	if snapshot[0].Extensions[0] != ".txt" {
		t.Fatalf("extension not normalized: %+v", snapshot[0].Extensions)
	}
	if snapshot[1].Enabled {
		t.Fatal("Second should be disabled")
	}
}

func TestParseExtensionsRejectsEmpty(t *testing.T) {
	if _, err := category.ParseExtensions(",,  ,"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
