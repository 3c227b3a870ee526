package collections

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/protobase/pkg/atom"
)

type memStore struct {
	atoms map[uint64]map[string]any
	blobs map[uint64][]byte
	next  uint64
}

func newMemStore() *memStore {
	return &memStore{atoms: map[uint64]map[string]any{}, blobs: map[uint64][]byte{}}
}

func (s *memStore) PushAtom(ctx context.Context, payload map[string]any) (atom.Pointer, error) {
	s.next++
	s.atoms[s.next] = payload
	return atom.Pointer{Offset: s.next}, nil
}

func (s *memStore) GetAtom(ctx context.Context, ptr atom.Pointer) (map[string]any, error) {
	return s.atoms[ptr.Offset], nil
}

func (s *memStore) PushBytes(ctx context.Context, data []byte) (atom.Pointer, error) {
	s.next++
	s.blobs[s.next] = data
	return atom.Pointer{Offset: s.next}, nil
}

func (s *memStore) GetBytes(ctx context.Context, ptr atom.Pointer) ([]byte, error) {
	return s.blobs[ptr.Offset], nil
}

func TestListInsertGetRemove(t *testing.T) {
	store := newMemStore()
	l := NewList(store)

	for i := 0; i < 20; i++ {
		l = l.InsertAt(l.Count(), i)
	}
	assert.Equal(t, 20, l.Count())
	for i := 0; i < 20; i++ {
		v, ok := l.GetAt(i)
		require.True(t, ok)
		assert.Equal(t, i, v)
	}

	v, ok := l.GetAt(-1)
	require.True(t, ok)
	assert.Equal(t, 19, v)

	l = l.RemoveAt(0)
	assert.Equal(t, 19, l.Count())
	v, ok = l.GetAt(0)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	l = l.RemoveFirst().RemoveLast()
	assert.Equal(t, 17, l.Count())
}

func TestListSetAtOutOfRange(t *testing.T) {
	store := newMemStore()
	l := NewList(store)
	l = l.InsertAt(0, "a")

	_, err := l.SetAt(5, "z")
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestListSaveLoadRoundTrip(t *testing.T) {
	store := newMemStore()
	l := NewList(store)
	for _, v := range []any{"a", "b", "c"} {
		l = l.InsertAt(l.Count(), v)
	}

	ptr, err := l.Save(context.Background())
	require.NoError(t, err)

	loaded, err := LoadList(context.Background(), store, ptr)
	require.NoError(t, err)
	assert.Equal(t, l.AsIterable(), loaded.AsIterable())
}

func TestListHeadTailSlice(t *testing.T) {
	store := newMemStore()
	l := NewList(store)
	for i := 0; i < 10; i++ {
		l = l.InsertAt(l.Count(), i)
	}

	assert.Equal(t, []any{0, 1, 2}, l.Head(3).AsIterable())
	assert.Equal(t, []any{7, 8, 9}, l.Tail(7).AsIterable())
	assert.Equal(t, []any{3, 4, 5}, l.Slice(3, 6).AsIterable())
}

func TestListIndexMaintenance(t *testing.T) {
	store := newMemStore()
	extract := func(v any) (uint64, bool) {
		m, ok := v.(map[string]any)
		if !ok {
			return 0, false
		}
		n, ok := m["group"].(int)
		return uint64(n), ok
	}

	l := NewList(store)
	l = l.InsertAt(0, map[string]any{"group": 1, "name": "a"})
	l = l.InsertAt(1, map[string]any{"group": 1, "name": "b"})
	l = l.InsertAt(2, map[string]any{"group": 2, "name": "c"})
	l = l.AddIndex("group", extract)

	idx, ok := l.Indexes().Get("group")
	require.True(t, ok)
	bucket, ok := idx.GetAt(1)
	require.True(t, ok)
	assert.Equal(t, 2, bucket.Count())

	l = l.RemoveAt(0)
	idx, _ = l.Indexes().Get("group")
	bucket, ok = idx.GetAt(1)
	require.True(t, ok)
	assert.Equal(t, 1, bucket.Count())
}

func TestHashDictionarySetGetRemove(t *testing.T) {
	store := newMemStore()
	d := NewHashDictionary(store)

	keys := []uint64{50, 10, 90, 30, 70, 20, 60, 80, 40, 1}
	for _, k := range keys {
		d = d.SetAt(k, k*10)
	}
	assert.Equal(t, len(keys), d.Count())

	for _, k := range keys {
		v, ok := d.GetAt(k)
		require.True(t, ok)
		assert.Equal(t, k*10, v)
	}
	assert.False(t, d.Has(999))

	d = d.SetAt(50, uint64(999))
	v, ok := d.GetAt(50)
	require.True(t, ok)
	assert.Equal(t, uint64(999), v)

	before := d.Count()
	d = d.RemoveAt(30)
	assert.Equal(t, before-1, d.Count())
	assert.False(t, d.Has(30))

	d = d.RemoveAt(123456)
	assert.Equal(t, before-1, d.Count())
}

func TestHashDictionarySaveLoadRoundTrip(t *testing.T) {
	store := newMemStore()
	d := NewHashDictionary(store)
	for _, k := range []uint64{1, 2, 3, 4, 5} {
		d = d.SetAt(k, k)
	}

	ptr, err := d.Save(context.Background())
	require.NoError(t, err)

	loaded, err := LoadHashDictionary(context.Background(), store, ptr)
	require.NoError(t, err)
	assert.Equal(t, d.AsIterable(), loaded.AsIterable())
}

func TestHashDictionaryMerge(t *testing.T) {
	store := newMemStore()
	a := NewHashDictionary(store).SetAt(1, "a").SetAt(2, "b")
	b := NewHashDictionary(store).SetAt(2, "B").SetAt(3, "c")

	merged := a.Merge(b)
	assert.Equal(t, 3, merged.Count())
	v, _ := merged.GetAt(2)
	assert.Equal(t, "B", v)
}

func TestDictionaryGetSetRemoveHas(t *testing.T) {
	store := newMemStore()
	d := NewDictionary(store)
	d = d.SetAt("banana", 2)
	d = d.SetAt("apple", 1)
	d = d.SetAt("cherry", 3)

	v, ok := d.GetAt("apple")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.True(t, d.Has("banana"))
	assert.False(t, d.Has("durian"))

	d = d.SetAt("apple", 100)
	v, _ = d.GetAt("apple")
	assert.Equal(t, 100, v)

	d = d.RemoveAt("banana")
	assert.False(t, d.Has("banana"))
	assert.Equal(t, 2, d.Count())

	keys := []string{}
	for _, kv := range d.AsIterable() {
		keys = append(keys, kv.Key)
	}
	assert.Equal(t, []string{"apple", "cherry"}, keys)
}

func TestSetAddHasRemoveUnion(t *testing.T) {
	store := newMemStore()
	a := NewSet(store).Add("x").Add("y").Add("x")
	assert.Equal(t, 2, a.Count())
	assert.True(t, a.Has("x"))

	a = a.RemoveAt("x")
	assert.False(t, a.Has("x"))
	assert.Equal(t, 1, a.Count())

	b := NewSet(store).Add("y").Add("z")
	u := a.Union(b)
	assert.Equal(t, 2, u.Count())
	assert.True(t, u.Has("y"))
	assert.True(t, u.Has("z"))

	i := a.Intersection(b)
	assert.Equal(t, 1, i.Count())
	assert.True(t, i.Has("y"))

	diff := b.Difference(a)
	assert.Equal(t, 1, diff.Count())
	assert.True(t, diff.Has("z"))
}

func TestSetSaveLoadRoundTrip(t *testing.T) {
	store := newMemStore()
	s := NewSet(store).Add("a").Add("b").Add("c")

	ptr, err := s.Save(context.Background())
	require.NoError(t, err)

	loaded, err := LoadSet(context.Background(), store, ptr)
	require.NoError(t, err)
	assert.Equal(t, loaded.Count(), s.Count())
	for _, v := range s.AsIterable() {
		assert.True(t, loaded.Has(v))
	}
}

func TestCountedSetAddRemoveCounts(t *testing.T) {
	store := newMemStore()
	cs := NewCountedSet(store)
	cs = cs.Add("x").Add("x").Add("x").Add("y")

	assert.Equal(t, 2, cs.Count())
	assert.Equal(t, 3, cs.GetCount("x"))
	assert.Equal(t, 1, cs.GetCount("y"))
	assert.Equal(t, 4, cs.TotalCount())

	cs = cs.RemoveAt("x")
	assert.Equal(t, 2, cs.GetCount("x"))
	assert.True(t, cs.Has("x"))

	cs = cs.RemoveAt("x").RemoveAt("x")
	assert.False(t, cs.Has("x"))
	assert.Equal(t, 1, cs.Count())
}

func TestRepeatedKeysDictionarySetRemove(t *testing.T) {
	store := newMemStore()
	r := NewRepeatedKeysDictionary(store)
	r = r.SetAt(1, "a")
	r = r.SetAt(1, "b")
	r = r.SetAt(2, "c")

	bucket, ok := r.GetAt(1)
	require.True(t, ok)
	assert.Equal(t, 2, bucket.Count())

	r = r.RemoveRecordAt(1, "a")
	bucket, ok = r.GetAt(1)
	require.True(t, ok)
	assert.Equal(t, 1, bucket.Count())

	r = r.RemoveRecordAt(1, "b")
	_, ok = r.GetAt(1)
	assert.False(t, ok)
	assert.Equal(t, 1, r.Count())
}

// assertListBalanced walks every node of l's tree, failing the test if any
// node's balance factor falls outside [-1, 1] or its cached height
// disagrees with what its children report, per spec.md §8.
func assertListBalanced(t *testing.T, l *List) {
	t.Helper()
	if l == nil || l.empty {
		return
	}
	prevHeight, nextHeight := 0, 0
	if l.previous != nil {
		prevHeight = l.previous.height
	}
	if l.next != nil {
		nextHeight = l.next.height
	}
	bf := balanceFactor(prevHeight, nextHeight)
	assert.Falsef(t, needsRotation(bf), "node height=%d has unbalanced factor %d", l.height, bf)
	assert.Equal(t, 1+maxInt(prevHeight, nextHeight), l.height)
	assertListBalanced(t, l.previous)
	assertListBalanced(t, l.next)
}

func assertHashDictBalanced(t *testing.T, d *HashDictionary) {
	t.Helper()
	if d == nil || !d.hasKey {
		return
	}
	prevHeight, nextHeight := 0, 0
	if d.previous != nil {
		prevHeight = d.previous.height
	}
	if d.next != nil {
		nextHeight = d.next.height
	}
	bf := balanceFactor(prevHeight, nextHeight)
	assert.Falsef(t, needsRotation(bf), "node height=%d has unbalanced factor %d", d.height, bf)
	assert.Equal(t, 1+maxInt(prevHeight, nextHeight), d.height)
	assertHashDictBalanced(t, d.previous)
	assertHashDictBalanced(t, d.next)
}

// TestListRandomizedSequenceInvariants replays a seeded random sequence of
// InsertAt/RemoveAt against both a List and a plain slice model, checking
// count and AVL balance after every step and contents at the end.
func TestListRandomizedSequenceInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(20260730))
	store := newMemStore()
	l := NewList(store)
	var model []int

	for i := 0; i < 500; i++ {
		switch {
		case len(model) == 0 || rng.Intn(2) == 0:
			offset := rng.Intn(len(model) + 1)
			value := rng.Intn(1_000_000)
			l = l.InsertAt(offset, value)
			model = append(model, 0)
			copy(model[offset+1:], model[offset:])
			model[offset] = value
		default:
			offset := rng.Intn(len(model))
			l = l.RemoveAt(offset)
			model = append(model[:offset], model[offset+1:]...)
		}

		require.Equal(t, len(model), l.Count())
		assertListBalanced(t, l)
	}

	for offset, want := range model {
		got, ok := l.GetAt(offset)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

// TestHashDictionaryRandomizedSequenceInvariants replays a seeded random
// sequence of SetAt/RemoveAt against both a HashDictionary and a plain map
// model, checking count and AVL balance after every step.
func TestHashDictionaryRandomizedSequenceInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(20260731))
	store := newMemStore()
	d := NewHashDictionary(store)
	model := map[uint64]int{}

	const keySpace = 64
	for i := 0; i < 500; i++ {
		key := uint64(rng.Intn(keySpace))
		if _, present := model[key]; present && rng.Intn(2) == 0 {
			d = d.RemoveAt(key)
			delete(model, key)
		} else {
			value := rng.Intn(1_000_000)
			d = d.SetAt(key, value)
			model[key] = value
		}

		require.Equal(t, len(model), d.Count())
		assertHashDictBalanced(t, d)
	}

	for key, want := range model {
		got, ok := d.GetAt(key)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

// TestDictionaryRandomizedSequenceInvariants replays a seeded random
// sequence of SetAt/RemoveAt with string keys drawn from a small alphabet
// (forcing frequent rebalancing), checking count and the underlying
// List's AVL balance after every step.
func TestDictionaryRandomizedSequenceInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(20260732))
	store := newMemStore()
	d := NewDictionary(store)
	model := map[string]int{}

	keys := make([]string, 40)
	for i := range keys {
		keys[i] = string(rune('a' + (i % 26)))
		if i >= 26 {
			keys[i] += string(rune('a' + i%26))
		}
	}

	for i := 0; i < 500; i++ {
		key := keys[rng.Intn(len(keys))]
		if _, present := model[key]; present && rng.Intn(2) == 0 {
			d = d.RemoveAt(key)
			delete(model, key)
		} else {
			value := rng.Intn(1_000_000)
			d = d.SetAt(key, value)
			model[key] = value
		}

		require.Equal(t, len(model), d.Count())
		assertListBalanced(t, d.content)
	}

	for key, want := range model {
		got, ok := d.GetAt(key)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

// TestSetRandomizedSequenceInvariants replays a seeded random sequence of
// Add/RemoveAt against both a Set and a plain map model, checking count
// and the underlying HashDictionary's AVL balance after every step.
func TestSetRandomizedSequenceInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(20260733))
	store := newMemStore()
	s := NewSet(store)
	model := map[int]bool{}

	const valueSpace = 48
	for i := 0; i < 500; i++ {
		value := rng.Intn(valueSpace)
		if model[value] && rng.Intn(2) == 0 {
			s = s.RemoveAt(value)
			delete(model, value)
		} else {
			s = s.Add(value)
			model[value] = true
		}

		require.Equal(t, len(model), s.Count())
		assertHashDictBalanced(t, s.content)
	}

	for value := range model {
		assert.True(t, s.Has(value))
	}
}

// TestCountedSetRandomizedSequenceInvariants replays a seeded random
// sequence of Add/RemoveAt against both a CountedSet and a plain map of
// occurrence counts, checking unique count, total count, and both backing
// HashDictionaries' AVL balance after every step.
func TestCountedSetRandomizedSequenceInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(20260734))
	store := newMemStore()
	cs := NewCountedSet(store)
	model := map[int]int{}

	const valueSpace = 48
	for i := 0; i < 500; i++ {
		value := rng.Intn(valueSpace)
		if rng.Intn(2) == 0 {
			cs = cs.Add(value)
			model[value]++
		} else if model[value] > 0 {
			cs = cs.RemoveAt(value)
			model[value]--
			if model[value] == 0 {
				delete(model, value)
			}
		}

		require.Equal(t, len(model), cs.Count())
		assertHashDictBalanced(t, cs.items)
		assertHashDictBalanced(t, cs.counts)
	}

	total := 0
	for value, count := range model {
		assert.Equal(t, count, cs.GetCount(value))
		total += count
	}
	assert.Equal(t, total, cs.TotalCount())
}
