package ops

import (
	"testing"
	"time"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/errors"
)

func TestLoad(t *testing.T) {
	database := testDB(t)
	tl, _ := Create(database, CreateInput{Name: "test"})
	_, err := AddCapsule(database, AddCapsuleInput{TimelineID: tl.ID, Year: 2010, Title: "Entry"})
	if err != nil {
		t.Fatalf("AddCapsule failed: %v", err)
	}

	out, err := Load(database, LoadInput{ID: tl.ID})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !out.Found {
		t.Error("Found = false, want true")
	}
	if out.Name != "test" {
		t.Errorf("Name = %q, want %q", out.Name, "test")
	}
	if len(out.Capsules) != 1 {
		t.Fatalf("len(Capsules) = %d, want 1", len(out.Capsules))
	}
}

func TestLoad_MissingDegradesToEmpty(t *testing.T) {
	database := testDB(t)

	out, err := Load(database, LoadInput{ID: "missing"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if out.Found {
		t.Error("Found = true, want false")
	}
	if out.Capsules == nil {
		t.Error("Capsules is nil, want empty slice")
	}
	if len(out.Capsules) != 0 {
		t.Errorf("len(Capsules) = %d, want 0", len(out.Capsules))
	}
}

func TestLoad_ReclassifiesStaleTypes(t *testing.T) {
	database := testDB(t)
	tl, _ := Create(database, CreateInput{Name: "test"})

	// Stored as future, but the year has since passed.
	_, err := Save(database, SaveInput{ID: tl.ID, Capsules: []capsule.Capsule{
		{ID: "c1", Year: 2001, Title: "Old plan", Type: capsule.TypeFuture},
		{ID: "c2", Year: time.Now().Year() + 10, Title: "Still ahead", Type: capsule.TypeFuture},
	}})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, err := Load(database, LoadInput{ID: tl.ID})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if out.Capsules[0].Type != capsule.TypePast {
		t.Errorf("stale capsule Type = %q, want %q", out.Capsules[0].Type, capsule.TypePast)
	}
	if out.Capsules[1].Type != capsule.TypeFuture {
		t.Errorf("future capsule Type = %q, want %q", out.Capsules[1].Type, capsule.TypeFuture)
	}
}

func TestLoad_MissingID(t *testing.T) {
	database := testDB(t)

	_, err := Load(database, LoadInput{})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Load should return ErrInvalidRequest, got: %v", err)
	}
}
