package collections

import (
	"context"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/pberr"
)

// List is an immutable, AVL-balanced, offset-keyed sequence. Every node
// carries the value at its position, its subtree's size (count) and
// height, and left/right children (previous/next). Grounded on
// original_source/proto_db/lists.py.
type List struct {
	atom.Base

	value  any
	empty  bool
	count  int
	height int

	previous *List
	next     *List

	indexes *IndexRegistry
}

// NewList returns the empty list, bound to store.
func NewList(store atom.Store) *List {
	l := &List{empty: true}
	l.Bind(store)
	return l
}

func newListNode(store atom.Store, value any, previous, next *List) *List {
	l := &List{value: value, previous: previous, next: next}
	l.Bind(store)
	l.recalc()
	return l
}

func (l *List) recalc() {
	if l.empty {
		l.count = 0
		l.height = 0
		return
	}
	count := 1
	prevHeight, nextHeight := 0, 0
	if l.previous != nil {
		count += l.previous.count
		prevHeight = l.previous.height
	}
	if l.next != nil {
		count += l.next.count
		nextHeight = l.next.height
	}
	l.count = count
	l.height = 1 + maxInt(prevHeight, nextHeight)
}

func (l *List) ClassName() string { return "List" }

// Count returns the number of elements in the list.
func (l *List) Count() int { return l.count }

// Empty reports whether the list holds no elements.
func (l *List) Empty() bool { return l.empty }

// Indexes returns the list's secondary-index registry, or nil if none.
func (l *List) Indexes() *IndexRegistry { return l.indexes }

func (l *List) Load(ctx context.Context) error {
	l.MarkLoaded()
	return nil
}

func (l *List) Save(ctx context.Context) (atom.Pointer, error) {
	if l.AlreadySaved() {
		return l.Pointer(), nil
	}

	payload := map[string]any{
		"className": l.ClassName(),
		"empty":     l.empty,
		"count":     l.count,
		"height":    l.height,
	}
	if !l.empty {
		payload["value"] = l.value
	}
	if l.previous != nil {
		ptr, err := l.previous.Save(ctx)
		if err != nil {
			return atom.Pointer{}, err
		}
		payload["previous"] = pointerRef(ptr)
	}
	if l.next != nil {
		ptr, err := l.next.Save(ctx)
		if err != nil {
			return atom.Pointer{}, err
		}
		payload["next"] = pointerRef(ptr)
	}

	ptr, err := l.Store().PushAtom(ctx, payload)
	if err != nil {
		return atom.Pointer{}, err
	}
	l.AssignPointer(ptr)
	return ptr, nil
}

// LoadList reconstructs a List rooted at ptr, recursively loading children.
func LoadList(ctx context.Context, store atom.Store, ptr atom.Pointer) (*List, error) {
	payload, err := store.GetAtom(ctx, ptr)
	if err != nil {
		return nil, err
	}
	return listFromPayload(ctx, store, ptr, payload)
}

func listFromPayload(ctx context.Context, store atom.Store, ptr atom.Pointer, payload map[string]any) (*List, error) {
	className, _ := payload["className"].(string)
	if className != "List" {
		return nil, pberr.Corruptionf("collections: expected List payload, got %q", className)
	}

	l := &List{}
	l.Bind(store)
	l.empty, _ = payload["empty"].(bool)
	l.value = payload["value"]
	l.count = toInt(payload["count"])
	l.height = toInt(payload["height"])

	if ref, ok := payload["previous"]; ok {
		childPtr, ok := decodePointerRef(ref)
		if ok {
			prev, err := LoadList(ctx, store, childPtr)
			if err != nil {
				return nil, err
			}
			l.previous = prev
		}
	}
	if ref, ok := payload["next"]; ok {
		childPtr, ok := decodePointerRef(ref)
		if ok {
			next, err := LoadList(ctx, store, childPtr)
			if err != nil {
				return nil, err
			}
			l.next = next
		}
	}

	l.AssignPointer(ptr)
	return l, nil
}

// AddIndex builds a RepeatedKeysDictionary over the list's current elements
// keyed by extract, and returns a new List carrying the updated registry.
func (l *List) AddIndex(fieldName string, extract FieldExtractor) *List {
	idx := NewRepeatedKeysDictionary(l.Store())
	for _, v := range l.AsIterable() {
		if key, ok := extract(v); ok {
			idx = idx.SetAt(key, v)
		}
	}

	reg := l.indexes
	if reg == nil {
		reg = NewIndexRegistry()
	}
	next := newListNode(l.Store(), l.value, l.previous, l.next)
	next.empty = l.empty
	next.recalc()
	next.indexes = reg.WithIndex(fieldName, idx, extract)
	return next
}

// RemoveIndex drops fieldName's index, if present.
func (l *List) RemoveIndex(fieldName string) *List {
	if l.indexes == nil || !l.indexes.Has(fieldName) {
		return l
	}
	next := newListNode(l.Store(), l.value, l.previous, l.next)
	next.empty = l.empty
	next.recalc()
	next.indexes = l.indexes.WithoutIndex(fieldName)
	return next
}

// AsIterable returns every element in index order.
func (l *List) AsIterable() []any {
	var out []any
	var scan func(node *List)
	scan = func(node *List) {
		if node == nil {
			return
		}
		scan(node.previous)
		if !node.empty {
			out = append(out, node.value)
		}
		scan(node.next)
	}
	scan(l)
	return out
}

// GetAt returns the value at offset (negative counts from the end), or
// (nil, false) if offset is out of range.
func (l *List) GetAt(offset int) (any, bool) {
	if l.empty {
		return nil, false
	}
	if offset < 0 {
		offset = l.count + offset
	}
	if offset < 0 || offset >= l.count {
		return nil, false
	}

	node := l
	for node != nil {
		nodeOffset := 0
		if node.previous != nil {
			nodeOffset = node.previous.count
		}
		switch {
		case offset == nodeOffset:
			return node.value, true
		case offset > nodeOffset:
			offset -= nodeOffset + 1
			node = node.next
		default:
			node = node.previous
		}
	}
	return nil, false
}

func (l *List) balance() int {
	prevHeight, nextHeight := 0, 0
	if l.previous != nil {
		prevHeight = l.previous.height
	}
	if l.next != nil {
		nextHeight = l.next.height
	}
	return balanceFactor(prevHeight, nextHeight)
}

func (l *List) rightRotation() *List {
	if l.previous == nil {
		return l
	}
	newRight := newListNode(l.Store(), l.value, l.previous.next, l.next)
	return newListNode(l.Store(), l.previous.value, l.previous.previous, newRight)
}

func (l *List) leftRotation() *List {
	if l.next == nil {
		return l
	}
	newLeft := newListNode(l.Store(), l.value, l.previous, l.next.previous)
	return newListNode(l.Store(), l.next.value, newLeft, l.next.next)
}

func (l *List) rebalance() *List {
	node := l
	for node.previous != nil && needsRotation(node.previous.balance()) {
		node = newListNode(node.Store(), node.value, node.previous.rebalance(), node.next)
	}
	for node.next != nil && needsRotation(node.next.balance()) {
		node = newListNode(node.Store(), node.value, node.previous, node.next.rebalance())
	}

	bf := node.balance()
	if bf < -1 {
		if node.previous != nil && node.previous.balance() > 0 {
			node = newListNode(node.Store(), node.value, node.previous.leftRotation(), node.next)
		}
		return node.rightRotation()
	}
	if bf > 1 {
		if node.next != nil && node.next.balance() < 0 {
			node = newListNode(node.Store(), node.value, node.previous, node.next.rightRotation())
		}
		return node.leftRotation()
	}
	return node
}

// SetAt replaces the value at offset, or appends when offset == count. Any
// other out-of-range offset is an error.
func (l *List) SetAt(offset int, value any) (*List, error) {
	if offset < 0 {
		offset = l.count + offset
	}

	if l.empty {
		if offset == 0 {
			return newListNode(l.Store(), value, nil, nil), nil
		}
		return nil, ErrOutOfRange
	}
	if offset < 0 || offset > l.count {
		return nil, ErrOutOfRange
	}

	nodeOffset := 0
	if l.previous != nil {
		nodeOffset = l.previous.count
	}

	var newNode *List
	switch cmp := offset - nodeOffset; {
	case cmp > 0:
		if l.next != nil {
			updated, err := l.next.SetAt(offset-nodeOffset-1, value)
			if err != nil {
				return nil, err
			}
			newNode = newListNode(l.Store(), l.value, l.previous, updated)
		} else {
			newNode = newListNode(l.Store(), l.value, l.previous, newListNode(l.Store(), value, nil, nil))
		}
	case cmp < 0:
		if l.previous != nil {
			updated, err := l.previous.SetAt(offset, value)
			if err != nil {
				return nil, err
			}
			newNode = newListNode(l.Store(), l.value, updated, l.next)
		} else {
			newNode = newListNode(l.Store(), l.value, newListNode(l.Store(), value, nil, nil), l.next)
		}
	default:
		newNode = newListNode(l.Store(), value, l.previous, l.next)
	}

	result := newNode.rebalance()
	newIndexes := l.indexes
	if l.indexes != nil {
		newIndexes = l.indexes.add2indexes(value)
	}
	return l.withResult(result, newIndexes), nil
}

// InsertAt shifts every element at or after offset one position right.
// Offsets are clamped into [0, count].
func (l *List) InsertAt(offset int, value any) *List {
	if offset < 0 {
		offset = l.count + offset
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= l.count {
		offset = l.count
	}

	if l.empty {
		return newListNode(l.Store(), value, nil, nil)
	}

	nodeOffset := 0
	if l.previous != nil {
		nodeOffset = l.previous.count
	}

	var newNode *List
	switch cmp := offset - nodeOffset; {
	case cmp > 0:
		if l.next != nil {
			newNode = newListNode(l.Store(), l.value, l.previous, l.next.InsertAt(cmp-1, value))
		} else {
			newNode = newListNode(l.Store(), l.value, l.previous, newListNode(l.Store(), value, nil, nil))
		}
	case cmp < 0:
		if l.previous != nil {
			newNode = newListNode(l.Store(), l.value, l.previous.InsertAt(cmp, value), l.next)
		} else {
			newNode = newListNode(l.Store(), l.value, newListNode(l.Store(), value, nil, nil), l.next)
		}
	default:
		newNode = newListNode(l.Store(), value, l.previous, newListNode(l.Store(), l.value, nil, l.next))
	}

	newIndexes := l.indexes
	if l.indexes != nil {
		newIndexes = l.indexes.add2indexes(value)
	}
	return l.withResult(newNode.rebalance(), newIndexes)
}

// RemoveAt drops the element at offset, or returns the list unchanged if
// offset is out of range.
func (l *List) RemoveAt(offset int) *List {
	if offset < 0 {
		offset = l.count + offset
	}
	if offset < 0 || offset >= l.count || l.empty {
		return l
	}
	currentValue, _ := l.GetAt(offset)
	newIndexes := l.indexes
	if l.indexes != nil {
		newIndexes = l.indexes.removeFromIndexes(currentValue)
	}

	nodeOffset := 0
	if l.previous != nil {
		nodeOffset = l.previous.count
	}

	var newNode *List
	switch cmp := offset - nodeOffset; {
	case cmp > 0:
		if l.next != nil {
			newNode = newListNode(l.Store(), l.value, l.previous, l.next.RemoveAt(offset-nodeOffset-1))
		} else {
			return l.withResult(l.previous, newIndexes)
		}
	case cmp < 0:
		if l.previous != nil {
			newNode = newListNode(l.Store(), l.value, l.previous.RemoveAt(offset), l.next)
		} else {
			return l.withResult(l.next, newIndexes)
		}
	default:
		switch {
		case l.next != nil:
			firstValue, _ := l.next.GetAt(0)
			newNext := l.next.RemoveFirst()
			var prev *List
			if l.previous != nil && !l.previous.empty {
				prev = l.previous
			}
			var next *List
			if !newNext.empty {
				next = newNext
			}
			newNode = newListNode(l.Store(), firstValue, prev, next)
		case l.previous != nil:
			lastValue, _ := l.previous.GetAt(-1)
			newPrev := l.previous.RemoveLast()
			var prev *List
			if !newPrev.empty {
				prev = newPrev
			}
			newNode = newListNode(l.Store(), lastValue, prev, l.next)
		default:
			return l.withResult(nil, newIndexes)
		}
	}

	return l.withResult(newNode.rebalance(), newIndexes)
}

// RemoveFirst drops the first element.
func (l *List) RemoveFirst() *List {
	if l.empty {
		return l
	}
	currentValue, _ := l.GetAt(0)
	newIndexes := l.indexes
	if l.indexes != nil {
		newIndexes = l.indexes.removeFromIndexes(currentValue)
	}

	nodeOffset := 0
	if l.previous != nil {
		nodeOffset = l.previous.count
	}

	var newNode *List
	if nodeOffset > 0 {
		removed := l.previous.RemoveFirst()
		var prev *List
		if !removed.empty {
			prev = removed
		}
		newNode = newListNode(l.Store(), l.value, prev, l.next)
	} else if l.next != nil {
		return l.withResult(l.next, newIndexes)
	} else {
		empty := NewList(l.Store())
		return l.withResult(empty, newIndexes)
	}

	return l.withResult(newNode.rebalance(), newIndexes)
}

// RemoveLast drops the last element.
func (l *List) RemoveLast() *List {
	if l.empty {
		return l
	}
	currentValue, _ := l.GetAt(-1)
	newIndexes := l.indexes
	if l.indexes != nil {
		newIndexes = l.indexes.removeFromIndexes(currentValue)
	}

	var newNode *List
	if l.next != nil {
		removed := l.next.RemoveLast()
		var next *List
		if !removed.empty {
			next = removed
		}
		newNode = newListNode(l.Store(), l.value, l.previous, next)
	} else if l.previous != nil {
		return l.withResult(l.previous, newIndexes)
	} else {
		empty := NewList(l.Store())
		return l.withResult(empty, newIndexes)
	}

	return l.withResult(newNode.rebalance(), newIndexes)
}

// AppendFirst prepends value.
func (l *List) AppendFirst(value any) *List { return l.InsertAt(0, value) }

// AppendLast appends value.
func (l *List) AppendLast(value any) *List { return l.InsertAt(l.count, value) }

// Extend returns a new list with items's elements appended after l's.
func (l *List) Extend(items *List) *List {
	if items == nil || items.empty {
		return l
	}
	result := l
	for _, v := range items.AsIterable() {
		result = result.InsertAt(result.count, v)
	}
	return result
}

// Head returns the first upperLimit elements (negative counts from the end).
func (l *List) Head(upperLimit int) *List {
	if upperLimit < 0 {
		upperLimit = l.count + upperLimit
	}
	if upperLimit < 0 {
		upperLimit = 0
	}
	if upperLimit >= l.count {
		upperLimit = l.count
	}
	if upperLimit == 0 {
		return NewList(l.Store())
	}
	if upperLimit == l.count {
		return l
	}

	node := l
	offset := 0
	if node.previous != nil {
		offset = node.previous.count
	}
	cmp := upperLimit - offset

	var result *List
	switch {
	case cmp == 0:
		if node.previous != nil {
			return node.previous.Head(upperLimit)
		}
		return NewList(l.Store())
	case cmp > 0 && node.next != nil:
		nextNode := node.next.Head(cmp - 1)
		var next *List
		if !nextNode.empty {
			next = nextNode
		}
		result = newListNode(l.Store(), node.value, node.previous, next)
	case cmp < 0 && node.previous != nil:
		result = node.previous.Head(upperLimit)
	default:
		return NewList(l.Store())
	}

	return result.rebalance()
}

// Tail returns elements starting at lowerLimit (negative counts from the end).
func (l *List) Tail(lowerLimit int) *List {
	if lowerLimit < 0 {
		lowerLimit = l.count + lowerLimit
	}
	if lowerLimit < 0 {
		lowerLimit = 0
	}
	if lowerLimit >= l.count {
		lowerLimit = l.count
	}
	if lowerLimit == l.count {
		return NewList(l.Store())
	}
	if lowerLimit == 0 {
		return l
	}

	node := l
	offset := 0
	if node.previous != nil {
		offset = node.previous.count
	}
	cmp := lowerLimit - offset

	var result *List
	switch {
	case cmp == 0:
		result = newListNode(l.Store(), node.value, nil, node.next)
	case cmp > 0 && node.next != nil:
		return node.next.Tail(lowerLimit - offset - 1)
	case cmp < 0 && node.previous != nil:
		previousNode := node.previous.Tail(lowerLimit)
		var prev *List
		if !previousNode.empty {
			prev = previousNode
		}
		result = newListNode(l.Store(), node.value, prev, node.next)
	default:
		return NewList(l.Store())
	}

	return result.rebalance()
}

// Slice returns elements in [fromOffset, toOffset).
func (l *List) Slice(fromOffset, toOffset int) *List {
	if fromOffset < 0 {
		fromOffset = l.count + fromOffset
	}
	if fromOffset < 0 {
		fromOffset = 0
	}
	if fromOffset >= l.count {
		fromOffset = l.count
	}

	if toOffset < 0 {
		toOffset = l.count + toOffset
	}
	if toOffset < 0 {
		toOffset = 0
	}
	if toOffset >= l.count {
		toOffset = l.count
	}

	if fromOffset > toOffset {
		return NewList(l.Store())
	}

	return l.Tail(fromOffset).Head(toOffset - fromOffset)
}

// withResult wraps result (possibly nil, meaning "became empty") back into
// a List carrying newIndexes, matching every mutator's "indexes update
// alongside the value, not independently" contract.
func (l *List) withResult(result *List, newIndexes *IndexRegistry) *List {
	if result == nil {
		empty := NewList(l.Store())
		empty.indexes = newIndexes
		return empty
	}
	out := newListNode(l.Store(), result.value, result.previous, result.next)
	out.empty = result.empty
	out.recalc()
	out.indexes = newIndexes
	return out
}
