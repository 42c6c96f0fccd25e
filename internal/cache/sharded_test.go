package cache

import (
	"sync"
	"testing"
)

func put(m *Map[uintptr, int], k uintptr, v int) {
	m.Update(k, func(int, bool) int { return v })
}

func TestMapBasic(t *testing.T) {
	m := New[uintptr, int](HandleHasher)

	if _, ok := m.Get(0xA0); ok {
		t.Error("Get on empty map returned ok")
	}
	put(m, 0xA0, 1)
	put(m, 0xB0, 2)
	if v, ok := m.Get(0xA0); !ok || v != 1 {
		t.Errorf("Get(0xA0) = %d, %v", v, ok)
	}
	put(m, 0xA0, 3)
	if v, _ := m.Get(0xA0); v != 3 {
		t.Errorf("Get(0xA0) after overwrite = %d", v)
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
	if !m.Delete(0xA0) || m.Delete(0xA0) {
		t.Error("Delete should report presence once")
	}
	m.Clear()
	if m.Len() != 0 {
		t.Errorf("Len after Clear = %d", m.Len())
	}
}

func TestMapNeverEvicts(t *testing.T) {
	m := New[uintptr, int](HandleHasher)
	const n = 10000
	for i := range n {
		put(m, uintptr(i)<<4, i)
	}
	if m.Len() != n {
		t.Fatalf("Len = %d, want %d", m.Len(), n)
	}
	for i := range n {
		if v, ok := m.Get(uintptr(i) << 4); !ok || v != i {
			t.Fatalf("Get(%d) = %d, %v", i, v, ok)
		}
	}
}

func TestHandleHasherSpreadsAlignedHandles(t *testing.T) {
	var used [ShardCount]bool
	for i := range 64 {
		used[HandleHasher(uintptr(0x1000+i*256))&shardMask] = true
	}
	n := 0
	for _, u := range used {
		if u {
			n++
		}
	}
	if n < ShardCount/2 {
		t.Errorf("aligned handles hit only %d of %d shards", n, ShardCount)
	}
}

func TestMapGetOrCreate(t *testing.T) {
	m := New[uintptr, int](HandleHasher)
	calls := 0
	create := func() int { calls++; return 7 }

	v, existed := m.GetOrCreate(0x10, create)
	if v != 7 || existed {
		t.Errorf("first GetOrCreate = %d, %v", v, existed)
	}
	v, existed = m.GetOrCreate(0x10, create)
	if v != 7 || !existed || calls != 1 {
		t.Errorf("second GetOrCreate = %d, %v (calls %d)", v, existed, calls)
	}
}

func TestMapUpdate(t *testing.T) {
	m := New[uintptr, int](HandleHasher)
	inc := func(old int, ok bool) int {
		if !ok {
			return 1
		}
		return old + 1
	}
	m.Update(0x10, inc)
	if got := m.Update(0x10, inc); got != 2 {
		t.Errorf("Update = %d, want 2", got)
	}
}

func TestMapStats(t *testing.T) {
	m := New[uintptr, int](HandleHasher)
	put(m, 0x10, 1)
	m.Get(0x10)
	m.Get(0x20)

	st := m.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.HitRate != 0.5 || st.Len != 1 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestMapConcurrent(t *testing.T) {
	m := New[uintptr, int](HandleHasher)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				key := uintptr(i % 50)
				m.Update(key, func(old int, _ bool) int { return old + 1 })
				m.Get(key)
				if i%100 == g {
					m.Delete(key)
				}
			}
		}()
	}
	wg.Wait()
	if m.Len() > 50 {
		t.Errorf("Len = %d, want <= 50", m.Len())
	}
}

func BenchmarkMapGet(b *testing.B) {
	m := New[uintptr, int](HandleHasher)
	for i := range 1000 {
		put(m, uintptr(i), i)
	}
	for b.Loop() {
		m.Get(500)
	}
}

func BenchmarkMapParallelMixed(b *testing.B) {
	m := New[uintptr, int](HandleHasher)
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%10 == 0 {
				put(m, uintptr(i%1000), i)
			} else {
				m.Get(uintptr(i % 1000))
			}
			i++
		}
	})
}
