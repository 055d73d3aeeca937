package set

import "testing"

func TestAddContainsRemove(t *testing.T) {
	s := NewSet()
	if s.Add("x") != 1 {
		t.Fatalf("Add on a new member should report 1")
	}
	if s.Add("x") != 0 {
		t.Fatalf("Add on an existing member should report 0")
	}
	if !s.Contains("x") {
		t.Fatalf("Contains(x) should be true")
	}
	if !s.Remove("x") {
		t.Fatalf("Remove(x) should report true")
	}
	if s.Contains("x") {
		t.Fatalf("Contains(x) should be false after Remove")
	}
}

func TestSetOps(t *testing.T) {
	a := NewSetFromSlice([]string{"1", "2", "3"})
	b := NewSetFromSlice([]string{"2", "3", "4"})

	diff := a.Diff([]*Set{b})
	if len(diff) != 1 || diff[0] != "1" {
		t.Fatalf("Diff(a,b) = %v, want [1]", diff)
	}

	inter := a.Intersect([]*Set{b})
	if len(inter) != 2 {
		t.Fatalf("Intersect(a,b) = %v, want 2 members", inter)
	}

	union := a.Union([]*Set{b})
	if len(union) != 4 {
		t.Fatalf("Union(a,b) = %v, want 4 members", union)
	}
}

func TestIsSubset(t *testing.T) {
	a := NewSetFromSlice([]string{"1", "2"})
	b := NewSetFromSlice([]string{"1", "2", "3"})
	if !a.IsSubset(b) {
		t.Fatalf("a should be a subset of b")
	}
	if b.IsSubset(a) {
		t.Fatalf("b should not be a subset of a")
	}
}

func TestPopRemovesMember(t *testing.T) {
	s := NewSetFromSlice([]string{"1", "2", "3"})
	member, ok := s.Pop()
	if !ok {
		t.Fatalf("Pop on a nonempty set should report ok")
	}
	if s.Contains(member) {
		t.Fatalf("Pop should remove the member it returns")
	}
	if s.Len() != 2 {
		t.Fatalf("Len() after Pop = %d, want 2", s.Len())
	}
}
