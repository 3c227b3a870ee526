package txn

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/collections"
	"github.com/cuemby/protobase/pkg/metrics"
	"github.com/cuemby/protobase/pkg/pberr"
)

// State is a transaction's lifecycle position. Grounded on
// db_access.py's ObjectTransaction.state string field ('Running',
// 'Committed', 'Aborted').
type State int

const (
	StateRunning State = iota
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateCommitted:
		return "Committed"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// ConcurrentOptimized is implemented by a mutable value that can merge its
// own changes on top of a more recent committed version of itself, when
// optimistic validation at commit time finds the slot was modified
// concurrently. Grounded on common.py's ConcurrentOptimized mixin.
type ConcurrentOptimized interface {
	// RebaseOnConcurrentUpdate applies this transaction's changes on top
	// of currentDBValue (the value now published in the database) and
	// returns the merged result to commit instead. Returning an error
	// that does not resolve the conflict should wrap pberr.ErrNotSupported.
	RebaseOnConcurrentUpdate(currentDBValue atom.Node) (atom.Node, error)
}

// Transaction is the unit of optimistic-concurrency work spec.md §4.7
// describes. Grounded on db_access.py's ObjectTransaction.
type Transaction struct {
	mu sync.Mutex

	database *Database

	// transactionRoot is the database root Dictionary as it stood when
	// this transaction started; reads of names never touched by
	// SetRootObject this transaction are served from it.
	transactionRoot *collections.Dictionary

	// stagedRoots holds every name this transaction has set via
	// SetRootObject, keyed by name. Replaces db_access.py's dead
	// new_roots field (see doc.go) with something actually populated.
	stagedRoots map[string]atom.Node

	// readObjects is the identity map keyed by atom pointer hash, so
	// repeated ReadObject/resolution calls for the same pointer return
	// the exact same Go value within one transaction.
	readObjects *collections.HashDictionary

	// newLiterals holds strings interned for the first time this
	// transaction, not yet confirmed present in the database's literal
	// catalog.
	newLiterals map[string]*atom.Literal

	// initialMutableRefs is the "_mutable_root" HashDictionary (slot ->
	// ref map) as read at transaction start, used to distinguish a
	// mutation of an existing slot from the creation of a new one.
	initialMutableRefs *collections.HashDictionary

	newMutableObjects      *collections.HashDictionary // slot(uint64) -> atom.Node
	modifiedMutableObjects *collections.HashDictionary // slot(uint64) -> atom.Node
	readLockObjects        *collections.HashDictionary // slot(uint64) -> atom.Node observed at first write

	state State
}

func newTransaction(ctx context.Context, d *Database, dbRoot *collections.Dictionary) (*Transaction, error) {
	store := d.objectSpace.store.AsStore()

	t := &Transaction{
		database:               d,
		transactionRoot:        dbRoot,
		stagedRoots:            make(map[string]atom.Node),
		readObjects:            collections.NewHashDictionary(store),
		newLiterals:            make(map[string]*atom.Literal),
		newMutableObjects:      collections.NewHashDictionary(store),
		modifiedMutableObjects: collections.NewHashDictionary(store),
		readLockObjects:        collections.NewHashDictionary(store),
		state:                  StateRunning,
	}

	if ref, ok := dbRoot.GetAt(mutableRootKey); ok {
		_, ptr, ok2 := decodeRefMap(ref)
		if !ok2 {
			return nil, pberr.Corruptionf("txn: database %q has a malformed _mutable_root entry", d.name)
		}
		mutableRoot, err := collections.LoadHashDictionary(ctx, store, ptr)
		if err != nil {
			return nil, err
		}
		t.initialMutableRefs = mutableRoot
	} else {
		t.initialMutableRefs = collections.NewHashDictionary(store)
	}

	return t, nil
}

// mutableRootKey is the reserved root-catalog entry name holding the
// database's slot->mutable-value index. Never returned by GetRootObject.
const mutableRootKey = "_mutable_root"

// State reports the transaction's current lifecycle position.
func (t *Transaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transaction) store() atom.Store { return t.database.objectSpace.store.AsStore() }

// GetRootObject reads a root under this transaction's working snapshot:
// whatever this transaction has staged via SetRootObject, else the value
// captured at transaction start, else (nil, false).
func (t *Transaction) GetRootObject(ctx context.Context, name string) (any, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if name == mutableRootKey {
		return nil, false, nil
	}
	if node, ok := t.stagedRoots[name]; ok {
		return node, true, nil
	}
	raw, ok := t.transactionRoot.GetAt(name)
	if !ok {
		return nil, false, nil
	}
	className, ptr, isRef := decodeRefMap(raw)
	if !isRef {
		return raw, true, nil
	}
	resolved, err := t.readObjectCached(ctx, className, ptr)
	return resolved, err == nil, err
}

// SetRootObject stages value as the named root for this transaction. It
// is the only way to persist changes; nothing is visible outside the
// transaction until Commit succeeds. value is saved immediately (this
// port's collections and DBObjects are eagerly, idempotently saved), so
// commit's own re-save is just a cheap no-op confirmation.
func (t *Transaction) SetRootObject(ctx context.Context, name string, value atom.Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		return pberr.Validationf("txn: transaction is not running (%s), cannot set root object", t.state)
	}
	if name == mutableRootKey {
		return pberr.Validationf("txn: %q is a reserved root name", mutableRootKey)
	}
	if _, err := value.Save(ctx); err != nil {
		return err
	}
	t.stagedRoots[name] = value
	return nil
}

// GetLiteral returns the interned Literal for s: from this transaction's
// own staged literals, else from the database's literal catalog, else a
// freshly created (but not yet published) Literal staged for this
// transaction's commit.
func (t *Transaction) GetLiteral(ctx context.Context, s string) (*atom.Literal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if lit, ok := t.newLiterals[s]; ok {
		return lit, nil
	}
	lit, ok, err := t.database.GetLiteral(ctx, s)
	if err != nil {
		return nil, err
	}
	if ok {
		return lit, nil
	}
	fresh := atom.NewLiteral(t.store(), s)
	t.newLiterals[s] = fresh
	return fresh, nil
}

// ReadObject reconstructs the atom of class className at ptr, returning
// the same Go value on every call with the same pointer within this
// transaction.
func (t *Transaction) ReadObject(ctx context.Context, className string, ptr atom.Pointer) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readObjectCached(ctx, className, ptr)
}

func (t *Transaction) readObjectCached(ctx context.Context, className string, ptr atom.Pointer) (any, error) {
	h := ptr.Hash()
	if v, ok := t.readObjects.GetAt(h); ok {
		return v, nil
	}
	resolved, err := resolveRef(ctx, t, className, ptr)
	if err != nil {
		return nil, err
	}
	t.readObjects = t.readObjects.SetAt(h, resolved)
	return resolved, nil
}

// GetMutable returns the current value of mutable slot, preferring this
// transaction's own new/modified value over the snapshot taken at start.
func (t *Transaction) GetMutable(ctx context.Context, slot uint64) (atom.Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getMutableLocked(ctx, slot)
}

func (t *Transaction) getMutableLocked(ctx context.Context, slot uint64) (atom.Node, error) {
	if v, ok := t.newMutableObjects.GetAt(slot); ok {
		return v.(atom.Node), nil
	}
	if v, ok := t.modifiedMutableObjects.GetAt(slot); ok {
		return v.(atom.Node), nil
	}
	if raw, ok := t.initialMutableRefs.GetAt(slot); ok {
		className, ptr, isRef := decodeRefMap(raw)
		if !isRef {
			return nil, pberr.Corruptionf("txn: mutable slot %d has a malformed entry", slot)
		}
		resolved, err := t.readObjectCached(ctx, className, ptr)
		if err != nil {
			return nil, err
		}
		node, ok := resolved.(atom.Node)
		if !ok {
			return nil, pberr.Corruptionf("txn: mutable slot %d does not resolve to an atom", slot)
		}
		return node, nil
	}
	return nil, pberr.Validationf("txn: mutable slot %d not found", slot)
}

// SetMutable stages value as the new contents of mutable slot.
func (t *Transaction) SetMutable(slot uint64, value atom.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.initialMutableRefs.Has(slot) {
		t.modifiedMutableObjects = t.modifiedMutableObjects.SetAt(slot, value)
	} else {
		t.newMutableObjects = t.newMutableObjects.SetAt(slot, value)
	}
}

// SetLockedObject records current as the value observed for slot the
// first time this transaction writes to it, for optimistic validation at
// commit; later calls for the same slot are no-ops.
func (t *Transaction) SetLockedObject(slot uint64, current atom.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.readLockObjects.Has(slot) {
		t.readLockObjects = t.readLockObjects.SetAt(slot, current)
	}
}

// NewHashDictionary returns a new, empty HashDictionary bound to this
// transaction's store.
func (t *Transaction) NewHashDictionary() *collections.HashDictionary {
	return collections.NewHashDictionary(t.store())
}

// NewDictionary returns a new, empty Dictionary bound to this
// transaction's store.
func (t *Transaction) NewDictionary() *collections.Dictionary {
	return collections.NewDictionary(t.store())
}

// NewList returns a new, empty List bound to this transaction's store.
func (t *Transaction) NewList() *collections.List {
	return collections.NewList(t.store())
}

// NewSet returns a new, empty Set bound to this transaction's store.
func (t *Transaction) NewSet() *collections.Set {
	return collections.NewSet(t.store())
}

// NewCountedSet returns a new, empty CountedSet bound to this
// transaction's store.
func (t *Transaction) NewCountedSet() *collections.CountedSet {
	return collections.NewCountedSet(t.store())
}

// NewMutableObject returns a handle to a brand-new mutable slot, backed by
// an empty DBObject, connected to this transaction.
func (t *Transaction) NewMutableObject(class string) *MutableObject {
	slot := newSlotID()
	obj := NewDBObject(t, class, nil)
	t.SetMutable(slot, obj)
	return &MutableObject{txn: t, slot: slot}
}

// MutableByHandle wraps an existing mutable slot id, e.g. one previously
// obtained via MutableObject.Slot and persisted by the caller elsewhere.
func (t *Transaction) MutableByHandle(slot uint64) *MutableObject {
	return &MutableObject{txn: t, slot: slot}
}

// Commit closes the transaction and makes its changes durable, running
// the eight-step optimistic commit protocol from spec.md §4.7. A no-op
// commit (nothing staged) is always allowed and always succeeds.
func (t *Transaction) Commit(ctx context.Context) (err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer := metrics.NewTimer()
	defer func() {
		outcome := "committed"
		switch {
		case err == nil:
		case errors.Is(err, pberr.ErrLocking):
			outcome = "conflict"
		default:
			outcome = "aborted"
		}
		metrics.TxnCommitsTotal.WithLabelValues(outcome).Inc()
		timer.ObserveDuration(metrics.TxnCommitDuration)
	}()

	if t.state != StateRunning {
		return pberr.Validationf("txn: transaction is not running (%s), cannot commit", t.state)
	}

	// Step 1.
	if len(t.stagedRoots) == 0 && t.modifiedMutableObjects.Count() == 0 &&
		t.newMutableObjects.Count() == 0 && len(t.newLiterals) == 0 {
		t.state = StateCommitted
		return nil
	}

	store := t.store()
	os := t.database.objectSpace

	// Step 2: resave staged mutables and roots. This port's collections
	// and DBObjects are eagerly saved as soon as they are staged, so
	// these Save calls are idempotent confirmations, not first writes.
	for _, kv := range t.modifiedMutableObjects.AsIterable() {
		if node, ok := kv.Value.(atom.Node); ok {
			if _, err := node.Save(ctx); err != nil {
				return err
			}
		}
	}
	for _, kv := range t.newMutableObjects.AsIterable() {
		if node, ok := kv.Value.(atom.Node); ok {
			if _, err := node.Save(ctx); err != nil {
				return err
			}
		}
	}
	for _, node := range t.stagedRoots {
		if _, err := node.Save(ctx); err != nil {
			return err
		}
	}

	// Step 3: acquire the storage root lock and read the current root.
	lockedPtr, hadRoot, lock, err := os.store.LockCurrentRoot(ctx)
	if err != nil {
		return err
	}
	defer lock.Unlock()
	if !hadRoot {
		return pberr.Corruptionf("txn: commit: object space has no published root")
	}
	payload, err := store.GetAtom(ctx, lockedPtr)
	if err != nil {
		return err
	}
	rootNode, err := atom.FromPayload(os.registry, store, payload)
	if err != nil {
		return err
	}
	spaceRoot := rootNode.(*atom.RootObject)

	dbCatalog, err := collections.LoadDictionary(ctx, store, spaceRoot.ObjectRoot)
	if err != nil {
		return err
	}
	ref, ok := dbCatalog.GetAt(t.database.name)
	if !ok {
		return pberr.Validationf("txn: database %q no longer exists", t.database.name)
	}
	_, dbRootPtr, ok := decodeRefMap(ref)
	if !ok {
		return pberr.Corruptionf("txn: database %q catalog entry is malformed", t.database.name)
	}
	currentDBRoot, err := collections.LoadDictionary(ctx, store, dbRootPtr)
	if err != nil {
		return err
	}

	// Step 4: reconcile literals.
	literalCatalog, err := collections.LoadDictionary(ctx, store, spaceRoot.LiteralRoot)
	if err != nil {
		return err
	}
	literalRootPtr := spaceRoot.LiteralRoot
	literalsChanged := false
	for s, lit := range t.newLiterals {
		if literalCatalog.Has(s) {
			continue
		}
		litPtr, err := lit.Save(ctx)
		if err != nil {
			return err
		}
		literalCatalog = literalCatalog.SetAt(s, refMap("Literal", litPtr))
		literalsChanged = true
	}
	if literalsChanged {
		literalRootPtr, err = literalCatalog.Save(ctx)
		if err != nil {
			return err
		}
	}

	// Step 5 & 6: validate read-locks (with ConcurrentOptimized rebase),
	// then merge modified/new mutables into the current mutable index.
	currentMutableRoot := collections.NewHashDictionary(store)
	if ref, ok := currentDBRoot.GetAt(mutableRootKey); ok {
		_, mutPtr, ok2 := decodeRefMap(ref)
		if !ok2 {
			return pberr.Corruptionf("txn: commit: malformed %s entry", mutableRootKey)
		}
		currentMutableRoot, err = collections.LoadHashDictionary(ctx, store, mutPtr)
		if err != nil {
			return err
		}
	}

	for _, kv := range t.readLockObjects.AsIterable() {
		slot := kv.Key
		observedRef, hasEntry := currentMutableRoot.GetAt(slot)
		if !hasEntry {
			continue
		}
		_, observedPtr, isRef := decodeRefMap(observedRef)
		if !isRef {
			return pberr.Corruptionf("txn: commit: malformed mutable entry for slot %d", slot)
		}
		seenNode, _ := kv.Value.(atom.Node)
		if seenNode == nil || observedPtr == seenNode.Pointer() {
			continue
		}

		newValueAny, _ := t.modifiedMutableObjects.GetAt(slot)
		newValue, _ := newValueAny.(atom.Node)
		optimized, ok := newValue.(ConcurrentOptimized)
		if !ok {
			return pberr.NotSupportedf(
				"txn: commit: mutable slot %d was modified concurrently and its value does not implement ConcurrentOptimized", slot)
		}
		currentPayload, err := store.GetAtom(ctx, observedPtr)
		if err != nil {
			return err
		}
		currentClassName, _ := currentPayload["className"].(string)
		currentResolved, err := t.readObjectCached(ctx, currentClassName, observedPtr)
		if err != nil {
			return err
		}
		currentNode, ok := currentResolved.(atom.Node)
		if !ok {
			return pberr.Corruptionf("txn: commit: concurrent value for slot %d is not an atom", slot)
		}
		rebased, err := optimized.RebaseOnConcurrentUpdate(currentNode)
		if err != nil {
			return err
		}
		if _, err := rebased.Save(ctx); err != nil {
			return err
		}
		t.modifiedMutableObjects = t.modifiedMutableObjects.SetAt(slot, rebased)
	}

	if t.modifiedMutableObjects.Count() > 0 || t.newMutableObjects.Count() > 0 {
		for _, kv := range t.modifiedMutableObjects.AsIterable() {
			node := kv.Value.(atom.Node)
			ptr, err := node.Save(ctx)
			if err != nil {
				return err
			}
			currentMutableRoot = currentMutableRoot.SetAt(kv.Key, refMap(node.ClassName(), ptr))
		}
		for _, kv := range t.newMutableObjects.AsIterable() {
			node := kv.Value.(atom.Node)
			ptr, err := node.Save(ctx)
			if err != nil {
				return err
			}
			currentMutableRoot = currentMutableRoot.SetAt(kv.Key, refMap(node.ClassName(), ptr))
		}
		mutableRootPtr, err := currentMutableRoot.Save(ctx)
		if err != nil {
			return err
		}
		currentDBRoot = currentDBRoot.SetAt(mutableRootKey, refMap("HashDictionary", mutableRootPtr))
	}

	for name, node := range t.stagedRoots {
		ptr, err := node.Save(ctx)
		if err != nil {
			return err
		}
		currentDBRoot = currentDBRoot.SetAt(name, refMap(node.ClassName(), ptr))
	}

	// Step 7: publish the new database root and the new space root.
	dbRootPtr, err = currentDBRoot.Save(ctx)
	if err != nil {
		return err
	}
	dbCatalog = dbCatalog.SetAt(t.database.name, refMap("Dictionary", dbRootPtr))
	dbCatalogPtr, err := dbCatalog.Save(ctx)
	if err != nil {
		return err
	}
	newSpaceRoot := atom.NewRootObject(store, dbCatalogPtr, literalRootPtr, time.Now())
	newSpaceRootPtr, err := newSpaceRoot.Save(ctx)
	if err != nil {
		return err
	}
	if err := os.store.SetCurrentRoot(ctx, newSpaceRootPtr); err != nil {
		return err
	}

	// Step 8.
	t.state = StateCommitted
	return nil
}

// Abort discards this transaction's staged changes. The database is left
// untouched; every object created in this transaction is no longer usable.
func (t *Transaction) Abort() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateRunning {
		return pberr.Validationf("txn: transaction is not running (%s), cannot abort", t.state)
	}
	t.state = StateAborted
	return nil
}
