package syncx

import (
	"sync"
	"testing"
)

func TestGuardLoadStore(t *testing.T) {
	g := NewGuard(42)

	if v := g.Load(); v != 42 {
		t.Errorf("Load() = %d, want 42", v)
	}

	g.Store(100)
	if v := g.Load(); v != 100 {
		t.Errorf("Load() after Store = %d, want 100", v)
	}

	if old := g.Swap(7); old != 100 {
		t.Errorf("Swap() = %d, want 100", old)
	}
}

func TestGuardViewModify(t *testing.T) {
	g := NewGuard([]int{1, 2, 3})

	if n := View(g, func(v []int) int { return len(v) }); n != 3 {
		t.Errorf("View() = %d, want 3", n)
	}

	n := Modify(g, func(v *[]int) int {
		*v = append(*v, 4)
		return len(*v)
	})
	if n != 4 {
		t.Errorf("Modify() = %d, want 4", n)
	}
}

func TestGuardConcurrentAccess(t *testing.T) {
	g := NewGuard(0)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Modify(g, func(v *int) struct{} { *v++; return struct{}{} })
		}()
		go func() {
			defer wg.Done()
			_ = g.Load()
		}()
	}
	wg.Wait()

	if v := g.Load(); v != 100 {
		t.Errorf("final value = %d, want 100", v)
	}
}

func TestMapOperations(t *testing.T) {
	m := NewMap[string, int]()

	if existed := m.Put("a", 1); existed {
		t.Error("Put on new key should report not existed")
	}
	if existed := m.Put("a", 2); !existed {
		t.Error("Put on existing key should report existed")
	}
	if v, ok := m.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = (%d, %v), want (2, true)", v, ok)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}

	snap := m.Snapshot()
	snap["b"] = 3
	if _, ok := m.Get("b"); ok {
		t.Error("Snapshot should be a copy")
	}

	if v, ok := m.Delete("a"); !ok || v != 2 {
		t.Errorf("Delete(a) = (%d, %v), want (2, true)", v, ok)
	}
	if _, ok := m.Delete("a"); ok {
		t.Error("second Delete should report missing")
	}
}

func TestMapCompute(t *testing.T) {
	m := NewMap[string, int]()

	m.Compute("k", func(cur int, ok bool) (int, bool) {
		if ok {
			t.Error("key should not exist yet")
		}
		return 5, true
	})
	if v, _ := m.Get("k"); v != 5 {
		t.Errorf("Get(k) = %d, want 5", v)
	}

	m.Compute("k", func(cur int, ok bool) (int, bool) { return 0, false })
	if _, ok := m.Get("k"); ok {
		t.Error("Compute returning keep=false should delete")
	}

	m.Put("x", 1)
	m.Clear()
	if m.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", m.Len())
	}
}
