package collections

import (
	"context"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/pberr"
)

// Dictionary is a durable string-keyed mapping, stored as a List of
// (key, value) entries kept in ascending key order and located by binary
// search. Grounded on original_source/proto_db/dictionaries.py's
// Dictionary/DictionaryItem classes.
//
// Entries are plain map[string]any{"key": ..., "value": ...} values rather
// than a dedicated Go struct: List already stores its elements directly in
// the persisted payload (see pointerref.go), so an entry must itself be
// shaped the way atom.DecodePayload hands data back.
type Dictionary struct {
	atom.Base

	content *List
}

func dictEntry(key string, value any) map[string]any {
	return map[string]any{"key": key, "value": value}
}

func dictEntryKey(item any) (string, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		return "", false
	}
	key, ok := m["key"].(string)
	return key, ok
}

func dictEntryValue(item any) any {
	m, ok := item.(map[string]any)
	if !ok {
		return nil
	}
	return m["value"]
}

// NewDictionary returns the empty dictionary, bound to store.
func NewDictionary(store atom.Store) *Dictionary {
	return &Dictionary{content: NewList(store)}
}

func newDictionaryFrom(content *List) *Dictionary {
	d := &Dictionary{content: content}
	d.Bind(content.Store())
	return d
}

func (d *Dictionary) ClassName() string { return "Dictionary" }

// Count returns the number of entries.
func (d *Dictionary) Count() int { return d.content.Count() }

func (d *Dictionary) Load(ctx context.Context) error {
	d.MarkLoaded()
	return nil
}

func (d *Dictionary) Save(ctx context.Context) (atom.Pointer, error) {
	if d.AlreadySaved() {
		return d.Pointer(), nil
	}
	contentPtr, err := d.content.Save(ctx)
	if err != nil {
		return atom.Pointer{}, err
	}
	payload := map[string]any{
		"className": d.ClassName(),
		"content":   pointerRef(contentPtr),
	}
	ptr, err := d.Store().PushAtom(ctx, payload)
	if err != nil {
		return atom.Pointer{}, err
	}
	d.AssignPointer(ptr)
	return ptr, nil
}

// LoadDictionary reconstructs a Dictionary rooted at ptr.
func LoadDictionary(ctx context.Context, store atom.Store, ptr atom.Pointer) (*Dictionary, error) {
	payload, err := store.GetAtom(ctx, ptr)
	if err != nil {
		return nil, err
	}
	className, _ := payload["className"].(string)
	if className != "Dictionary" {
		return nil, pberr.Corruptionf("collections: expected Dictionary payload, got %q", className)
	}
	contentRef, ok := decodePointerRef(payload["content"])
	if !ok {
		return nil, pberr.Corruptionf("collections: Dictionary payload missing content pointer")
	}
	content, err := LoadList(ctx, store, contentRef)
	if err != nil {
		return nil, err
	}
	d := newDictionaryFrom(content)
	d.AssignPointer(ptr)
	return d, nil
}

// AsIterable returns every (key, value) pair in ascending key order.
func (d *Dictionary) AsIterable() []KeyString {
	out := make([]KeyString, 0, d.content.Count())
	for _, item := range d.content.AsIterable() {
		key, ok := dictEntryKey(item)
		if !ok {
			continue
		}
		out = append(out, KeyString{Key: key, Value: dictEntryValue(item)})
	}
	return out
}

// KeyString is one (key, value) pair yielded by Dictionary.AsIterable.
type KeyString struct {
	Key   string
	Value any
}

// locate returns the offset of key if present, and the insertion offset
// (where key would belong) when it is not.
func (d *Dictionary) locate(key string) (offset int, found bool) {
	left, right := 0, d.content.Count()-1
	center := 0
	for left <= right {
		center = (left + right) / 2
		item, ok := d.content.GetAt(center)
		if !ok {
			break
		}
		itemKey, _ := dictEntryKey(item)
		if itemKey == key {
			return center, true
		}
		if itemKey > key {
			right = center - 1
		} else {
			left = center + 1
		}
	}
	return left, false
}

// GetAt returns the value stored at key, or (nil, false) if absent.
func (d *Dictionary) GetAt(key string) (any, bool) {
	offset, found := d.locate(key)
	if !found {
		return nil, false
	}
	item, _ := d.content.GetAt(offset)
	return dictEntryValue(item), true
}

// Has reports whether key is present.
func (d *Dictionary) Has(key string) bool {
	_, found := d.locate(key)
	return found
}

// SetAt inserts or replaces the value stored at key.
func (d *Dictionary) SetAt(key string, value any) *Dictionary {
	offset, found := d.locate(key)
	entry := dictEntry(key, value)
	if found {
		newContent, err := d.content.SetAt(offset, entry)
		if err != nil {
			return d
		}
		return newDictionaryFrom(newContent)
	}
	return newDictionaryFrom(d.content.InsertAt(offset, entry))
}

// RemoveAt drops key, if present; otherwise returns d unchanged.
func (d *Dictionary) RemoveAt(key string) *Dictionary {
	offset, found := d.locate(key)
	if !found {
		return d
	}
	return newDictionaryFrom(d.content.RemoveAt(offset))
}
