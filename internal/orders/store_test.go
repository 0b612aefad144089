package orders

import (
	"context"
	"testing"
)

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	if err := r.Record(context.Background(), Order{OrderID: "1-1", Status: StatusCancelled}); err != nil {
		t.Fatalf("nop recorder returned error: %v", err)
	}
}

func TestStatusValues(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range []string{
		StatusWalletIssued,
		StatusWalletFailed,
		StatusFulfilled,
		StatusFulfillmentFailed,
		StatusCancelled,
	} {
		if s == "" {
			t.Fatal("empty status constant")
		}
		if seen[s] {
			t.Fatalf("duplicate status constant %q", s)
		}
		seen[s] = true
	}
}
