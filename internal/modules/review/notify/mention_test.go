package notify

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseMentions(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	content := "hey @[Ana Diaz](" + a.String() + ") and @[Bo](" + b.String() + "), also @[Ana Diaz](" + a.String() + ") again, @nobody"

	got := ParseMentions(content)
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("ParseMentions: want=[%s %s] got=%v", a, b, got)
	}
	if got := ParseMentions("@[broken](not-a-uuid)"); len(got) != 0 {
		t.Fatalf("invalid id: want none got=%v", got)
	}
}

func TestMergeMentions(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got := MergeMentions([]uuid.UUID{a}, "@[B]("+b.String()+") @[A]("+a.String()+")")
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("MergeMentions: got=%v", got)
	}
}
