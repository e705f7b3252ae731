package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

func decodeProject(t *testing.T, doc bson.M) *domain.Project {
	t.Helper()
	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var d projectRead
	if err := bson.Unmarshal(raw, &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return d.toDomain()
}

func TestProjectRead_Timestamps(t *testing.T) {
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	p := decodeProject(t, bson.M{
		"_id":              "p1",
		"userId":           "uid-1",
		"title":            "Website",
		"createdAt":        primitive.NewDateTimeFromTime(created),
		"updatedAt":        primitive.Timestamp{T: uint32(created.Unix()), I: 1},
		"dueDate":          "2026-05-01",
		"projectStartedAt": nil,
	})

	if p.CreatedAt == nil || !p.CreatedAt.Equal(created) {
		t.Fatalf("expected createdAt %v, got %v", created, p.CreatedAt)
	}
	if p.UpdatedAt == nil || !p.UpdatedAt.Equal(created) {
		t.Fatalf("expected bson timestamp to convert, got %v", p.UpdatedAt)
	}
	if p.DueDate != nil {
		t.Fatalf("a string is not a timestamp and must read as nil, got %v", p.DueDate)
	}
	if p.ProjectStartedAt != nil {
		t.Fatal("null date must read as nil")
	}
}

func TestProjectRead_Defaults(t *testing.T) {
	p := decodeProject(t, bson.M{"_id": "p1", "userId": "uid-1"})

	if p.Status != domain.StatusNotStarted {
		t.Errorf("expected default status, got %q", p.Status)
	}
	if p.Revenue != 0 {
		t.Errorf("expected revenue 0, got %v", p.Revenue)
	}
	if p.AssignedEmployees == nil || len(p.AssignedEmployees) != 0 {
		t.Errorf("expected empty employees, got %v", p.AssignedEmployees)
	}
	if p.CreatedAt != nil || p.UpdatedAt != nil {
		t.Error("missing timestamps must read as nil")
	}
}

func TestProjectRead_LooseRevenue(t *testing.T) {
	cases := []struct {
		value any
		want  float64
	}{
		{value: 12.5, want: 12.5},
		{value: int32(7), want: 7},
		{value: int64(9), want: 9},
		{value: "300", want: 300},
		{value: "abc", want: 0},
		{value: true, want: 0},
		{value: -4.0, want: 0},
	}
	for _, tc := range cases {
		p := decodeProject(t, bson.M{"_id": "p", "revenue": tc.value})
		if p.Revenue != tc.want {
			t.Errorf("revenue %v: expected %v, got %v", tc.value, tc.want, p.Revenue)
		}
	}
}

func TestProjectRead_ObjectIDAsHex(t *testing.T) {
	oid := primitive.NewObjectID()
	p := decodeProject(t, bson.M{"_id": oid})
	if p.ID != oid.Hex() {
		t.Fatalf("expected %s, got %s", oid.Hex(), p.ID)
	}
}

func TestProjectSet(t *testing.T) {
	status := domain.StatusCompleted
	title := "Website"
	set := projectSet(domain.ProjectUpdate{
		Title:   &title,
		Status:  &status,
		DueDate: &domain.DateChange{},
	})

	if set["title"] != "Website" || set["status"] != "completed" || set["completed"] != true {
		t.Fatalf("unexpected $set: %v", set)
	}
	due, ok := set["dueDate"]
	if !ok {
		t.Fatal("cleared date must be written")
	}
	if v, _ := due.(*time.Time); v != nil {
		t.Fatalf("cleared date must be null, got %v", due)
	}
	if _, ok := set["projectStartedAt"]; ok {
		t.Fatal("untouched date must not be written")
	}

	noStatus := projectSet(domain.ProjectUpdate{Title: &title})
	if _, ok := noStatus["completed"]; ok {
		t.Fatal("completed must only be written with status")
	}
}

func TestProjectSet_ClearedDateMarshalsAsNull(t *testing.T) {
	raw, err := bson.Marshal(projectSet(domain.ProjectUpdate{DueDate: &domain.DateChange{}}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	v := bson.Raw(raw).Lookup("dueDate")
	if v.Type != bson.TypeNull {
		t.Fatalf("expected null, got %v", v.Type)
	}
}

func TestNewProjectWrite(t *testing.T) {
	doc := newProjectWrite(&domain.Project{UserID: "uid-1", Status: domain.StatusCompleted})
	if !doc.Completed || doc.AssignedEmployees == nil || doc.ID != "" || doc.CreatedAt != nil {
		t.Fatalf("unexpected write doc: %+v", doc)
	}
}
