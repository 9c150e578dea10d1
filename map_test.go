// map_test.go: tests for the public Map API
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package lockfree

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestMap_InsertGetRemove(t *testing.T) {
	m := New[string, int]()

	if _, displaced := m.Insert("a", 1); displaced {
		t.Fatal("fresh key reported as displaced")
	}
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v; want 1, true", v, ok)
	}

	old, displaced := m.Insert("a", 2)
	if !displaced || old.Val() != 1 {
		t.Fatalf("Insert over existing key: old=%v displaced=%v, want 1, true", old.Val(), displaced)
	}

	removed, found := m.Remove("a")
	if !found || removed.Val() != 2 {
		t.Fatalf("Remove(a) = %v, %v; want 2, true", removed.Val(), found)
	}

	if _, ok := m.Get("a"); ok {
		t.Fatal("key still present after Remove")
	}
}

func TestMap_ReinsertRestoresRemovedPairWithoutReallocating(t *testing.T) {
	m := New[string, int]()
	m.Insert("a", 1)

	removed, found := m.Remove("a")
	if !found {
		t.Fatal("Remove(a) reported not found")
	}
	if _, ok := m.Get("a"); ok {
		t.Fatal("key still present immediately after Remove")
	}

	origPair := removed.pair

	displacedBy, displaced := m.Reinsert(removed)
	if displaced {
		t.Fatalf("Reinsert into an empty slot reported a displacement: %v", displacedBy)
	}

	v, ok := m.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) after Reinsert = %v, %v; want 1, true", v, ok)
	}

	stored, ok := trieGet(m.root, m.hasher.Hash("a"), 0, "a", m.less)
	if !ok || stored != origPair {
		t.Fatal("Reinsert allocated a fresh Pair instead of reusing the removed one")
	}
}

func TestMap_ReinsertDisplacesExistingValue(t *testing.T) {
	m := New[string, int]()
	m.Insert("a", 1)
	removed, _ := m.Remove("a")

	m.Insert("a", 2)

	old, displaced := m.Reinsert(removed)
	if !displaced || old.Val() != 2 {
		t.Fatalf("Reinsert over existing key: old=%v displaced=%v, want 2, true", old.Val(), displaced)
	}
	v, ok := m.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) after Reinsert displaced the current value = %v, %v; want 1, true", v, ok)
	}
}

func TestMap_InsertRemoveReinsertRoundTrip(t *testing.T) {
	m := New[string, int]()
	m.Insert("k", 7)

	removed, found := m.Remove("k")
	if !found || removed.Val() != 7 {
		t.Fatalf("Remove(k) = %v, %v; want 7, true", removed.Val(), found)
	}

	m.Reinsert(removed)

	v, ok := m.Get("k")
	if !ok || v != 7 {
		t.Fatalf("Get(k) after insert/remove/reinsert = %v, %v; want 7, true", v, ok)
	}
}

func TestMap_GetPairReturnsKeyAndValue(t *testing.T) {
	m := New[string, int]()
	m.Insert("k", 7)

	p, ok := m.GetPair("k")
	if !ok || p.Key != "k" || p.Val != 7 {
		t.Fatalf("GetPair = %+v, %v; want {k 7}, true", p, ok)
	}
}

func TestMap_LenTracksInsertsAndRemoves(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 10; i++ {
		m.Insert(i, i)
	}
	if m.Len() != 10 {
		t.Fatalf("Len = %d, want 10", m.Len())
	}

	for i := 0; i < 5; i++ {
		m.Remove(i)
	}
	if m.Len() != 5 {
		t.Fatalf("Len after removes = %d, want 5", m.Len())
	}

	m.Insert(0, 0)
	if m.Len() != 5 {
		t.Fatalf("Len after re-inserting an existing key = %d, want 5", m.Len())
	}
}

func TestMap_CloseClearsEntries(t *testing.T) {
	m := New[int, int]()
	m.Insert(1, 1)
	m.Insert(2, 2)

	if err := m.Close(); err != nil {
		t.Fatalf("Close returned %v, want nil", err)
	}
	if m.Len() != 0 {
		t.Fatalf("Len after Close = %d, want 0", m.Len())
	}
}

func TestMap_GetOrInsertCallsLoaderOnceOnMiss(t *testing.T) {
	m := New[string, int]()
	var calls atomic.Int64

	v, err := m.GetOrInsert("k", func() (int, error) {
		calls.Add(1)
		return 42, nil
	})
	if err != nil || v != 42 {
		t.Fatalf("GetOrInsert = %v, %v; want 42, nil", v, err)
	}

	v, err = m.GetOrInsert("k", func() (int, error) {
		calls.Add(1)
		return 99, nil
	})
	if err != nil || v != 42 {
		t.Fatalf("second GetOrInsert = %v, %v; want 42, nil", v, err)
	}
	if calls.Load() != 1 {
		t.Fatalf("loader called %d times, want 1", calls.Load())
	}
}

func TestMap_GetOrInsertPropagatesLoaderError(t *testing.T) {
	m := New[string, int]()
	wantErr := errors.New("boom")

	_, err := m.GetOrInsert("k", func() (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if _, ok := m.Get("k"); ok {
		t.Fatal("a failed loader should not leave a value in the map")
	}
}

func TestMap_GetOrInsertNilLoaderOnMissReturnsError(t *testing.T) {
	m := New[string, int]()
	_, err := m.GetOrInsert("k", nil)
	if err == nil {
		t.Fatal("expected an error for a nil loader on a missing key")
	}
}

func TestMap_GetOrInsertRecoversLoaderPanic(t *testing.T) {
	m := New[string, int]()
	_, err := m.GetOrInsert("k", func() (int, error) {
		panic("loader exploded")
	})
	if err == nil {
		t.Fatal("expected an error recovered from a panicking loader")
	}
}

func TestMap_GetOrInsertSingleflightAcrossGoroutines(t *testing.T) {
	m := New[string, int]()
	var calls atomic.Int64
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := m.GetOrInsert("shared", func() (int, error) {
				calls.Add(1)
				<-release
				return 123, nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = v
		}(i)
	}

	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("loader invoked %d times across concurrent callers, want 1", calls.Load())
	}
	for i, v := range results {
		if v != 123 {
			t.Fatalf("results[%d] = %d, want 123", i, v)
		}
	}
}

func TestNewWithHasher_UsesSuppliedLessAndHash(t *testing.T) {
	type point struct{ x, y int }
	less := func(a, b point) bool {
		if a.x != b.x {
			return a.x < b.x
		}
		return a.y < b.y
	}
	hasher := funcHashBuilder[point](func(p point) uint64 {
		return uint64(p.x)*1000 + uint64(p.y)
	})

	m := NewWithHasher[point, string](less, hasher)
	m.Insert(point{1, 2}, "a")
	m.Insert(point{3, 4}, "b")

	v, ok := m.Get(point{1, 2})
	if !ok || v != "a" {
		t.Fatalf("Get({1,2}) = %v, %v; want a, true", v, ok)
	}
}

func TestMap_GetBorrowedConvertsQueryType(t *testing.T) {
	m := New[string, int]()
	m.Insert("abc", 1)

	v, ok := m.GetBorrowed(Borrowed[string, any]{
		Key:     []byte("abc"),
		ToOwned: func(q any) string { return string(q.([]byte)) },
	})
	if !ok || v != 1 {
		t.Fatalf("GetBorrowed = %v, %v; want 1, true", v, ok)
	}
}

func TestMap_ConcurrentInsertGet(t *testing.T) {
	m := New[int, int]()
	const n = 2000

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Insert(i, i*10)
		}(i)
	}
	wg.Wait()

	if m.Len() != n {
		t.Fatalf("Len = %d, want %d", m.Len(), n)
	}

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, ok := m.Get(i)
			if !ok || v != i*10 {
				t.Errorf("Get(%d) = %v, %v; want %d, true", i, v, ok, i*10)
			}
		}(i)
	}
	wg.Wait()
}

type funcHashBuilder[K any] func(K) uint64

func (f funcHashBuilder[K]) Hash(key K) uint64 { return f(key) }
