package hash

import "testing"

func TestSetGetDel(t *testing.T) {
	h := NewHash()
	if h.Set("a", "1") != 1 {
		t.Fatalf("Set on a new field should report 1")
	}
	if h.Set("a", "2") != 0 {
		t.Fatalf("Set on an existing field should report 0")
	}
	if v, ok := h.Get("a"); !ok || v != "2" {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}
	if h.Del("a") != 1 {
		t.Fatalf("Del should report 1 removed field")
	}
	if _, ok := h.Get("a"); ok {
		t.Fatalf("field should be gone after Del")
	}
}

func TestIncrBy(t *testing.T) {
	h := NewHash()
	v, err := h.IncrBy("n", 5)
	if err != nil || v != 5 {
		t.Fatalf("IncrBy on absent field = %v, %v", v, err)
	}
	v, err = h.IncrBy("n", -2)
	if err != nil || v != 3 {
		t.Fatalf("IncrBy on existing field = %v, %v", v, err)
	}
}

func TestScanVisitsAllFields(t *testing.T) {
	h := NewHash()
	want := map[string]bool{}
	for i := 0; i < 50; i++ {
		f := string(rune('a' + i%26))
		h.Set(f, "v")
		want[f] = true
	}

	seen := map[string]bool{}
	var cursor uint64
	for {
		var keys []string
		cursor, keys = h.Scan(cursor, 0)
		for _, k := range keys {
			seen[k] = true
		}
		if cursor == 0 {
			break
		}
	}

	for f := range want {
		if !seen[f] {
			t.Fatalf("Scan never visited field %q", f)
		}
	}
}
