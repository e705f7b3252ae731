package redis

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/core/bus"
)

func TestRelayMessageRoundTrip(t *testing.T) {
	payload, err := encodeRelayMessage("instance-a", bus.ProjectUpdated)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	m, err := decodeRelayMessage(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Origin != "instance-a" || m.Event != bus.ProjectUpdated {
		t.Fatalf("unexpected message: %+v", m)
	}

	if _, err := decodeRelayMessage(`{"origin":"x"}`); err == nil {
		t.Fatal("expected error for message without event")
	}
	if _, err := decodeRelayMessage(`not json`); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestRelayHandle_SkipsOwnMessages(t *testing.T) {
	rec := bus.NewRecorder()
	r := NewRelay(nil, "", rec, zerolog.Nop())

	own, _ := encodeRelayMessage(r.InstanceID(), bus.ProjectUpdated)
	r.handle(own)
	if len(rec.Published()) != 0 {
		t.Fatal("an instance must not re-handle its own message")
	}

	remote, _ := encodeRelayMessage("other-instance", bus.EmployeesUpdated)
	r.handle(remote)
	if got := rec.Published(); len(got) != 1 || got[0] != bus.EmployeesUpdated {
		t.Fatalf("expected remote event republished locally, got %v", got)
	}

	r.handle("garbage")
	if len(rec.Published()) != 1 {
		t.Fatal("malformed messages must be ignored")
	}
}
