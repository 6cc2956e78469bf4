package reqid

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestContextRoundTrip(t *testing.T) {
	ctx, id := NewContext(context.Background())
	got, ok := FromContext(ctx)
	if !ok || got != id {
		t.Fatalf("expected %s from context, got %s ok=%v", id, got, ok)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("id is not a uuid: %v", err)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("unexpected id in empty context")
	}
}

func TestWithID(t *testing.T) {
	fwd := uuid.NewString()
	_, id := WithID(context.Background(), fwd)
	if id != fwd {
		t.Fatalf("forwarded id not kept: %s", id)
	}
	_, id = WithID(context.Background(), "not-a-uuid")
	if id == "not-a-uuid" || id == "" {
		t.Fatalf("invalid id should be replaced, got %q", id)
	}
}

func TestSeqIsUniquePerContext(t *testing.T) {
	fwd := uuid.NewString()
	a, _ := WithID(context.Background(), fwd)
	b, _ := WithID(context.Background(), fwd)
	sa, ok := Seq(a)
	if !ok {
		t.Fatalf("missing seq")
	}
	sb, _ := Seq(b)
	if sa == sb {
		t.Fatalf("requests sharing id %s got the same seq %d", fwd, sa)
	}
	if _, ok := Seq(context.Background()); ok {
		t.Fatalf("unexpected seq in empty context")
	}
}
