package list

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func values(l *List) []any {
	out := make([]any, 0, l.Len())
	for n := l.Front(); n != nil; n = n.Next() {
		out = append(out, n.Value)
	}
	return out
}

func TestPrependAppend(t *testing.T) {
	l := New()
	l.Append(1)
	l.Append(2)
	l.Prepend(0)

	if diff := cmp.Diff([]any{0, 1, 2}, values(l)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
}

func TestInsertBeforeAfter(t *testing.T) {
	l := New()
	a := l.Append("a")
	d := l.Append("d")
	l.Insert(a, "b", true)
	l.Insert(d, "c", false)

	if diff := cmp.Diff([]any{"a", "b", "c", "d"}, values(l)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestDeleteDuringIteration(t *testing.T) {
	l := New()
	for i := 0; i < 5; i++ {
		l.Append(i)
	}

	it := l.NewIterator(HeadToTail)
	var seen []any
	for n := it.Next(); n != nil; n = it.Next() {
		seen = append(seen, n.Value)
		if n.Value == 2 {
			l.Delete(n)
		}
	}

	if diff := cmp.Diff([]any{0, 1, 2, 3, 4}, seen); diff != "" {
		t.Fatalf("iteration order changed by self-delete (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{0, 1, 3, 4}, values(l)); diff != "" {
		t.Fatalf("unexpected contents after delete (-want +got):\n%s", diff)
	}
}

func TestFreeCalledOnceOnDeleteAndEmpty(t *testing.T) {
	freed := map[any]int{}
	l := NewWithCallbacks(Callbacks{Free: func(v any) { freed[v]++ }})
	l.Append("x")
	l.Append("y")

	l.Delete(l.Front())
	l.Empty()

	if freed["x"] != 1 || freed["y"] != 1 {
		t.Fatalf("freed = %v, want each value freed exactly once", freed)
	}
}

func TestIndex(t *testing.T) {
	l := New()
	for i := 0; i < 5; i++ {
		l.Append(i)
	}

	if got := l.Index(0).Value; got != 0 {
		t.Errorf("Index(0) = %v, want 0", got)
	}
	if got := l.Index(-1).Value; got != 4 {
		t.Errorf("Index(-1) = %v, want 4", got)
	}
	if l.Index(5) != nil {
		t.Errorf("Index(5) = non-nil, want nil")
	}
	if l.Index(-6) != nil {
		t.Errorf("Index(-6) = non-nil, want nil")
	}
}

func TestRotate(t *testing.T) {
	l := New()
	for i := 0; i < 4; i++ {
		l.Append(i)
	}
	l.Rotate()
	if diff := cmp.Diff([]any{3, 0, 1, 2}, values(l)); diff != "" {
		t.Fatalf("unexpected order after rotate (-want +got):\n%s", diff)
	}

	single := New()
	single.Append("only")
	single.Rotate()
	if diff := cmp.Diff([]any{"only"}, values(single)); diff != "" {
		t.Fatalf("rotate on length<=1 must be a no-op (-want +got):\n%s", diff)
	}
}

func TestJoin(t *testing.T) {
	a := New()
	a.Append(1)
	a.Append(2)
	b := New()
	b.Append(3)
	b.Append(4)

	a.Join(b)

	if diff := cmp.Diff([]any{1, 2, 3, 4}, values(a)); diff != "" {
		t.Fatalf("unexpected joined contents (-want +got):\n%s", diff)
	}
	if b.Len() != 0 || b.Front() != nil {
		t.Fatalf("other list must be empty but valid after Join, got len=%d front=%v", b.Len(), b.Front())
	}
	b.Append("still usable")
	if b.Len() != 1 {
		t.Fatalf("other list must remain usable after Join")
	}
}

func TestDuplicateShallowSharesPointers(t *testing.T) {
	type box struct{ n int }
	b1, b2 := &box{1}, &box{2}

	l := New()
	l.Append(b1)
	l.Append(b2)

	dup, ok := l.Duplicate()
	if !ok {
		t.Fatalf("Duplicate() failed unexpectedly")
	}
	if dup.Len() != l.Len() {
		t.Fatalf("dup.Len() = %d, want %d", dup.Len(), l.Len())
	}
	if dup.Front().Value != b1 || dup.Back().Value != b2 {
		t.Fatalf("shallow duplicate must share value pointers")
	}
}

func TestDuplicateFailureRollsBack(t *testing.T) {
	calls := 0
	failAt := 5
	l := NewWithCallbacks(Callbacks{
		Dup: func(v any) (any, bool) {
			calls++
			if calls == failAt {
				return nil, false
			}
			return v, true
		},
	})
	for i := 0; i < 10; i++ {
		l.Append(i)
	}

	dup, ok := l.Duplicate()
	if ok || dup != nil {
		t.Fatalf("Duplicate() should fail when Dup fails partway through")
	}
}

func TestSearchKeyWithAndWithoutMatch(t *testing.T) {
	l := New()
	l.Append("a")
	l.Append("b")
	l.Append("c")

	if n := l.SearchKey("b"); n == nil || n.Value != "b" {
		t.Fatalf("SearchKey fallback to identity equality failed")
	}

	l2 := NewWithCallbacks(Callbacks{
		Match: func(value, key any) bool {
			return errors.Is(value.(error), key.(error))
		},
	})
	sentinel := errors.New("boom")
	l2.Append(fmt.Errorf("context: %w", sentinel))
	if l2.SearchKey(sentinel) == nil {
		t.Fatalf("SearchKey with Match callback failed to find wrapped sentinel")
	}
}
