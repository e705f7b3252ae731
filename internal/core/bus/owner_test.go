package bus

import "testing"

func TestOwned_RoundTrip(t *testing.T) {
	got := Owned(ProjectUpdated, "uid-1")
	if got != "project-updated:uid-1" {
		t.Fatalf("unexpected owned name %q", got)
	}
	if Unowned(got) != ProjectUpdated {
		t.Fatalf("expected %q, got %q", ProjectUpdated, Unowned(got))
	}
	if Unowned(EmployeesUpdated) != EmployeesUpdated {
		t.Fatal("plain names must pass through")
	}
}

func TestForOwner_OnlyHearsOwnEvents(t *testing.T) {
	b := New()
	var alice, bob int
	unsub := ForOwner(b, "uid-alice").Subscribe(ProjectUpdated, func() { alice++ })
	ForOwner(b, "uid-bob").Subscribe(ProjectUpdated, func() { bob++ })

	b.Publish(Owned(ProjectUpdated, "uid-bob"))
	if alice != 0 || bob != 1 {
		t.Fatalf("bob's change must not reach alice: alice=%d bob=%d", alice, bob)
	}
	b.Publish(ProjectUpdated)
	if alice != 0 {
		t.Fatal("an unowned publish must not reach owner subscriptions")
	}

	b.Publish(Owned(ProjectUpdated, "uid-alice"))
	unsub()
	b.Publish(Owned(ProjectUpdated, "uid-alice"))
	if alice != 1 {
		t.Fatalf("expected one delivery before unsubscribe, got %d", alice)
	}
}
