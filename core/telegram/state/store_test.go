package state

import "testing"

type testSession struct {
	Step string
}

func TestStoreLifecycle(t *testing.T) {
	s := NewStore[*testSession]()

	if s.Has(1) {
		t.Fatal("empty store should have no sessions")
	}
	if _, ok := s.Get(1); ok {
		t.Fatal("Get on empty store should report missing")
	}

	s.Put(1, &testSession{Step: "quantity"})
	sess, ok := s.Get(1)
	if !ok || sess.Step != "quantity" {
		t.Fatalf("unexpected session: %+v ok=%v", sess, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", s.Len())
	}

	s.Put(1, &testSession{Step: "currency"})
	sess, _ = s.Get(1)
	if sess.Step != "currency" {
		t.Fatalf("Put should replace session, got %q", sess.Step)
	}
	if s.Len() != 1 {
		t.Fatalf("replace should not grow store, got %d", s.Len())
	}

	s.Delete(1)
	if s.Has(1) {
		t.Fatal("session should be gone after Delete")
	}
	// Deleting a missing session is a no-op.
	s.Delete(42)
}
