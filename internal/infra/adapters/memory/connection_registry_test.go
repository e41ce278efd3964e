package memory

import (
	"testing"

	"github.com/qrave1/PairSpeak/internal/domain/models"
	"github.com/qrave1/PairSpeak/internal/domain/runtime"
)

func TestUnregisterReturnsPriorState(t *testing.T) {
	r := NewConnectionRegistry()

	conn := runtime.NewConnection("c1", models.Principal{ID: "u1", Role: models.RoleUser}, "Ann", nil)
	conn.Mode = "voice"
	conn.PartnerID = "c2"
	conn.Rooms["g1"] = struct{}{}

	r.Register(conn)

	prior, ok := r.Unregister("c1")
	if !ok {
		t.Fatal("expected registered connection")
	}

	// later mutation of the live object must not leak into the snapshot
	conn.Rooms["g2"] = struct{}{}

	if prior.PartnerID != "c2" || prior.Mode != "voice" || len(prior.Rooms) != 1 {
		t.Fatalf("unexpected prior state %+v", prior)
	}

	if _, ok := r.Lookup("c1"); ok {
		t.Fatal("connection still registered")
	}

	if got := r.ByUserID("u1"); len(got) != 0 {
		t.Fatalf("user index not cleaned: %v", got)
	}
}

func TestLookupStaleID(t *testing.T) {
	r := NewConnectionRegistry()

	if _, ok := r.Lookup("missing"); ok {
		t.Fatal("lookup of unknown id must report not found")
	}

	if _, ok := r.Unregister("missing"); ok {
		t.Fatal("unregister of unknown id must report not found")
	}
}

func TestByUserID(t *testing.T) {
	r := NewConnectionRegistry()

	r.Register(runtime.NewConnection("c1", models.Principal{ID: "u1"}, "", nil))
	r.Register(runtime.NewConnection("c2", models.Principal{ID: "u1"}, "", nil))
	r.Register(runtime.NewConnection("c3", models.Principal{ID: "u2"}, "", nil))
	r.Register(runtime.NewConnection("c4", models.AnonymousPrincipal(), "", nil))

	if got := len(r.ByUserID("u1")); got != 2 {
		t.Fatalf("u1 connections = %d, want 2", got)
	}

	if got := len(r.ByUserID("")); got != 0 {
		t.Fatalf("anonymous lookup returned %d connections", got)
	}

	if r.Len() != 4 {
		t.Fatalf("len = %d, want 4", r.Len())
	}
}
