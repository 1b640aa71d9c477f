package skiplist

import (
	"testing"
)

func TestInsertThenDeleteMinOrder(t *testing.T) {
	l := New(32)
	w := l.NewWorker(1)
	defer w.Close()

	keys := []uint64{5, 1, 4, 2, 3}
	for _, k := range keys {
		l.Insert(w, k, k)
	}

	want := []uint64{1, 2, 3, 4, 5}
	for _, exp := range want {
		k, v, ok := l.DeleteMin(w)
		if !ok {
			t.Fatalf("expected key %d, got empty queue", exp)
		}
		if k != exp {
			t.Fatalf("expected key %d, got %d", exp, k)
		}
		if v.(uint64) != exp {
			t.Fatalf("expected value %d, got %v", exp, v)
		}
	}

	if _, _, ok := l.DeleteMin(w); ok {
		t.Fatal("expected empty queue after draining all inserted keys")
	}
}

func TestDeleteMinOnEmpty(t *testing.T) {
	l := New(32)
	w := l.NewWorker(1)
	defer w.Close()

	if _, _, ok := l.DeleteMin(w); ok {
		t.Fatal("DeleteMin on empty list should return ok=false")
	}
}

func TestSingleElement(t *testing.T) {
	l := New(32)
	w := l.NewWorker(1)
	defer w.Close()

	l.Insert(w, 7, "seven")
	k, v, ok := l.DeleteMin(w)
	if !ok || k != 7 || v.(string) != "seven" {
		t.Fatalf("got (%d, %v, %v), want (7, seven, true)", k, v, ok)
	}
	if _, _, ok := l.DeleteMin(w); ok {
		t.Fatal("expected empty queue after draining the only element")
	}
}

func TestDuplicateKeys(t *testing.T) {
	l := New(32)
	w := l.NewWorker(1)
	defer w.Close()

	l.Insert(w, 10, "a")
	l.Insert(w, 10, "b")

	seen := 0
	for i := 0; i < 2; i++ {
		k, _, ok := l.DeleteMin(w)
		if !ok || k != 10 {
			t.Fatalf("expected key 10 on duplicate-key drain, got (%d, %v)", k, ok)
		}
		seen++
	}
	if seen != 2 {
		t.Fatalf("expected two entries for duplicate key 10, drained %d", seen)
	}
	if _, _, ok := l.DeleteMin(w); ok {
		t.Fatal("expected empty queue after draining both duplicates")
	}
}

func TestMaxLevelTower(t *testing.T) {
	l := New(32)
	w := l.NewWorker(1)
	defer w.Close()

	n := l.allocNode(NumLevels, 1, nil)
	if n.Level() != NumLevels {
		t.Fatalf("expected allocated node at level %d, got %d", NumLevels, n.Level())
	}
	if len(n.next) != NumLevels {
		t.Fatalf("expected %d forward pointers, got %d", NumLevels, len(n.next))
	}

	l.Insert(w, 1, "one")
	k, _, ok := l.DeleteMin(w)
	if !ok || k != 1 {
		t.Fatalf("got (%d, %v), want (1, true)", k, ok)
	}
}

func TestRemoveByKey(t *testing.T) {
	l := New(32)
	w := l.NewWorker(1)
	defer w.Close()

	for _, k := range []uint64{1, 2, 3} {
		l.Insert(w, k, k)
	}

	v, ok := l.Remove(w, 2)
	if !ok || v.(uint64) != 2 {
		t.Fatalf("got (%v, %v), want (2, true)", v, ok)
	}

	if _, ok := l.Remove(w, 2); ok {
		t.Fatal("expected second Remove of the same key to report ok=false")
	}
	if _, ok := l.Remove(w, 99); ok {
		t.Fatal("expected Remove of an absent key to report ok=false")
	}

	var got []uint64
	for {
		k, _, ok := l.DeleteMin(w)
		if !ok {
			break
		}
		got = append(got, k)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("expected [1 3] after removing 2, got %v", got)
	}
}
