package domain

import (
	"strings"
	"testing"
	"time"
)

func TestParseLegacyProjects_Amounts(t *testing.T) {
	recs, err := ParseLegacyProjects(`[{"revenue": 12.5}, {"revenue": "40"}, {"revenue": ""}, {"revenue": null}, {}]`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []float64{12.5, 40, 0, 0, 0}
	for i, r := range recs {
		if float64(r.Revenue) != want[i] {
			t.Errorf("record %d: expected %v, got %v", i, want[i], r.Revenue)
		}
	}
}

func TestLegacyProject_Fingerprint(t *testing.T) {
	withID := LegacyProject{ID: "1700", Title: "A"}
	if fp := withID.Fingerprint(); fp != "id:1700" {
		t.Fatalf("expected id fingerprint, got %q", fp)
	}

	a := LegacyProject{Title: "A", Client: "C"}
	b := LegacyProject{Title: "A", Client: "C"}
	c := LegacyProject{Title: "B", Client: "C"}
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("identical content must share a fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Fatal("different content must not share a fingerprint")
	}
	if !strings.HasPrefix(a.Fingerprint(), "sha256:") {
		t.Fatalf("unexpected digest fingerprint %q", a.Fingerprint())
	}
}

func TestLegacyProject_ToProject(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	p, created := LegacyProject{Title: "A", Client: "C", Status: "weird", CreatedAt: "garbage", DueDate: "2026-02-02"}.ToProject("uid-1", now)
	if p.Status != StatusNotStarted {
		t.Errorf("unknown status should default, got %q", p.Status)
	}
	if !created.Equal(now) {
		t.Errorf("unparseable createdAt should fall back to now, got %v", created)
	}
	if p.DueDate == nil || p.UserID != "uid-1" {
		t.Errorf("unexpected project: %+v", p)
	}

	_, created = LegacyProject{CreatedAt: "2024-03-01T10:00:00Z"}.ToProject("uid-1", now)
	if want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC); !created.Equal(want) {
		t.Errorf("expected %v, got %v", want, created)
	}
}
