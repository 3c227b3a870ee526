package txn

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/collections"
	"github.com/cuemby/protobase/pkg/log"
	"github.com/cuemby/protobase/pkg/pberr"
	"github.com/cuemby/protobase/pkg/sharedstorage"
	"github.com/rs/zerolog"
)

// ObjectSpace is the process-wide catalog of databases and interned
// literals. Grounded on db_access.py's ObjectSpace.
type ObjectSpace struct {
	store    *sharedstorage.SharedStorage
	registry *atom.Registry

	mu sync.Mutex

	classMu     sync.RWMutex
	dbObjectCls map[string]bool
}

// NewObjectSpace returns an ObjectSpace over store, resolving persisted
// classNames through registry (the same registry store's SharedStorage
// was built with).
func NewObjectSpace(store *sharedstorage.SharedStorage, registry *atom.Registry) *ObjectSpace {
	return &ObjectSpace{store: store, registry: registry, dbObjectCls: make(map[string]bool)}
}

// RegisterDBObjectClass declares className as a user-defined DBObject
// subtype, so references to it resolve through LoadDBObject rather than
// falling back to atom.Generic. Mirrors the original's implicit dispatch
// through atom_class_registry for any class deriving from DBObject.
func (os *ObjectSpace) RegisterDBObjectClass(className string) {
	os.classMu.Lock()
	defer os.classMu.Unlock()
	os.dbObjectCls[className] = true
}

func (os *ObjectSpace) isDBObjectClass(className string) bool {
	os.classMu.RLock()
	defer os.classMu.RUnlock()
	return os.dbObjectCls[className]
}

func (os *ObjectSpace) log() zerolog.Logger { return log.WithComponent("txn") }

// readRoot loads the currently published RootObject, if any.
func (os *ObjectSpace) readRoot(ctx context.Context) (*atom.RootObject, atom.Pointer, bool, error) {
	ptr, ok, err := os.store.ReadCurrentRoot(ctx)
	if err != nil {
		return nil, atom.Pointer{}, false, err
	}
	if !ok {
		return nil, atom.Pointer{}, false, nil
	}
	payload, err := os.store.AsStore().GetAtom(ctx, ptr)
	if err != nil {
		return nil, atom.Pointer{}, false, err
	}
	node, err := atom.FromPayload(os.registry, os.store.AsStore(), payload)
	if err != nil {
		return nil, atom.Pointer{}, false, err
	}
	root, ok := node.(*atom.RootObject)
	if !ok {
		return nil, atom.Pointer{}, false, pberr.Corruptionf("txn: expected RootObject at published root, got %T", node)
	}
	return root, ptr, true, nil
}

func (os *ObjectSpace) catalogs(ctx context.Context, root *atom.RootObject) (dbCatalog, literalCatalog *collections.Dictionary, err error) {
	dbCatalog, err = collections.LoadDictionary(ctx, os.store.AsStore(), root.ObjectRoot)
	if err != nil {
		return nil, nil, err
	}
	literalCatalog, err = collections.LoadDictionary(ctx, os.store.AsStore(), root.LiteralRoot)
	if err != nil {
		return nil, nil, err
	}
	return dbCatalog, literalCatalog, nil
}

// OpenDatabase returns a handle to an existing database.
func (os *ObjectSpace) OpenDatabase(ctx context.Context, name string) (*Database, error) {
	os.mu.Lock()
	defer os.mu.Unlock()

	root, _, ok, err := os.readRoot(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		dbCatalog, _, err := os.catalogs(ctx, root)
		if err != nil {
			return nil, err
		}
		if dbCatalog.Has(name) {
			return &Database{objectSpace: os, name: name}, nil
		}
	}
	return nil, pberr.Validationf("txn: database %q does not exist", name)
}

// NewDatabase creates an empty database named name and publishes it.
func (os *ObjectSpace) NewDatabase(ctx context.Context, name string) (*Database, error) {
	os.mu.Lock()
	defer os.mu.Unlock()

	lockedPtr, hadRoot, lock, err := os.store.LockCurrentRoot(ctx)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	store := os.store.AsStore()

	var dbCatalog, literalCatalog *collections.Dictionary
	var root *atom.RootObject
	if hadRoot {
		payload, err := store.GetAtom(ctx, lockedPtr)
		if err != nil {
			return nil, err
		}
		node, err := atom.FromPayload(os.registry, store, payload)
		if err != nil {
			return nil, err
		}
		root = node.(*atom.RootObject)
		dbCatalog, literalCatalog, err = os.catalogs(ctx, root)
		if err != nil {
			return nil, err
		}
	} else {
		dbCatalog = collections.NewDictionary(store)
		literalCatalog = collections.NewDictionary(store)
	}

	if dbCatalog.Has(name) {
		return nil, pberr.Validationf("txn: database %q already exists", name)
	}

	newDBRoot := collections.NewDictionary(store)
	newDBRootPtr, err := newDBRoot.Save(ctx)
	if err != nil {
		return nil, err
	}
	dbCatalog = dbCatalog.SetAt(name, refMap("Dictionary", newDBRootPtr))
	dbCatalogPtr, err := dbCatalog.Save(ctx)
	if err != nil {
		return nil, err
	}
	literalCatalogPtr, err := literalCatalog.Save(ctx)
	if err != nil {
		return nil, err
	}

	newRoot := atom.NewRootObject(store, dbCatalogPtr, literalCatalogPtr, time.Now())
	rootPtr, err := newRoot.Save(ctx)
	if err != nil {
		return nil, err
	}
	if err := os.store.SetCurrentRoot(ctx, rootPtr); err != nil {
		return nil, err
	}

	os.log().Info().Str("database", name).Msg("created database")
	return &Database{objectSpace: os, name: name}, nil
}

// RenameDatabase moves a database's catalog entry to a new name. Per the
// original's own warning, a Database handle obtained before the rename
// will no longer be able to commit afterward, since Transaction.Commit
// looks the entry up by name.
func (os *ObjectSpace) RenameDatabase(ctx context.Context, oldName, newName string) error {
	os.mu.Lock()
	defer os.mu.Unlock()

	lockedPtr, hadRoot, lock, err := os.store.LockCurrentRoot(ctx)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	if !hadRoot {
		return pberr.Validationf("txn: database %q does not exist", oldName)
	}
	store := os.store.AsStore()
	payload, err := store.GetAtom(ctx, lockedPtr)
	if err != nil {
		return err
	}
	node, err := atom.FromPayload(os.registry, store, payload)
	if err != nil {
		return err
	}
	root := node.(*atom.RootObject)
	dbCatalog, literalCatalog, err := os.catalogs(ctx, root)
	if err != nil {
		return err
	}
	if !dbCatalog.Has(oldName) {
		return pberr.Validationf("txn: database %q does not exist", oldName)
	}
	dbRootRef, _ := dbCatalog.GetAt(oldName)
	dbCatalog = dbCatalog.RemoveAt(oldName)
	dbCatalog = dbCatalog.SetAt(newName, dbRootRef)
	dbCatalogPtr, err := dbCatalog.Save(ctx)
	if err != nil {
		return err
	}

	newRoot := atom.NewRootObject(store, dbCatalogPtr, root.LiteralRoot, time.Now())
	_ = literalCatalog
	rootPtr, err := newRoot.Save(ctx)
	if err != nil {
		return err
	}
	return os.store.SetCurrentRoot(ctx, rootPtr)
}

// GetLiterals returns the interned Literal for each string in literals,
// creating and publishing any that are not yet in the literal catalog.
func (os *ObjectSpace) GetLiterals(ctx context.Context, literals []string) (map[string]*atom.Literal, error) {
	os.mu.Lock()
	defer os.mu.Unlock()

	lockedPtr, hadRoot, lock, err := os.store.LockCurrentRoot(ctx)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	if !hadRoot {
		return nil, pberr.Validationf("txn: no database space initialized yet")
	}
	store := os.store.AsStore()
	payload, err := store.GetAtom(ctx, lockedPtr)
	if err != nil {
		return nil, err
	}
	node, err := atom.FromPayload(os.registry, store, payload)
	if err != nil {
		return nil, err
	}
	root := node.(*atom.RootObject)
	literalCatalog, err := collections.LoadDictionary(ctx, store, root.LiteralRoot)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*atom.Literal, len(literals))
	changed := false
	for _, s := range literals {
		if ref, ok := literalCatalog.GetAt(s); ok {
			_, ptr, _ := decodeRefMap(ref)
			lit := atom.NewLiteral(store, s)
			lit.AssignPointer(ptr)
			result[s] = lit
			continue
		}
		lit := atom.NewLiteral(store, s)
		litPtr, err := lit.Save(ctx)
		if err != nil {
			return nil, err
		}
		literalCatalog = literalCatalog.SetAt(s, refMap("Literal", litPtr))
		result[s] = lit
		changed = true
	}

	if changed {
		literalCatalogPtr, err := literalCatalog.Save(ctx)
		if err != nil {
			return nil, err
		}
		newRoot := atom.NewRootObject(store, root.ObjectRoot, literalCatalogPtr, time.Now())
		rootPtr, err := newRoot.Save(ctx)
		if err != nil {
			return nil, err
		}
		if err := os.store.SetCurrentRoot(ctx, rootPtr); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// commitDatabase publishes newRoot as database name's root within the
// catalog, forcing a database's root to a known Dictionary (used by
// Database.NewBranchDatabase). Transaction.Commit does not call it; it
// publishes through its own inline logic.
func (os *ObjectSpace) commitDatabase(ctx context.Context, name string, newRoot *collections.Dictionary) error {
	os.mu.Lock()
	defer os.mu.Unlock()

	lockedPtr, hadRoot, lock, err := os.store.LockCurrentRoot(ctx)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	if !hadRoot {
		return pberr.Validationf("txn: database %q does not exist", name)
	}
	store := os.store.AsStore()
	payload, err := store.GetAtom(ctx, lockedPtr)
	if err != nil {
		return err
	}
	node, err := atom.FromPayload(os.registry, store, payload)
	if err != nil {
		return err
	}
	root := node.(*atom.RootObject)
	dbCatalog, err := collections.LoadDictionary(ctx, store, root.ObjectRoot)
	if err != nil {
		return err
	}
	if !dbCatalog.Has(name) {
		return pberr.Validationf("txn: database %q does not exist", name)
	}

	newRootPtr, err := newRoot.Save(ctx)
	if err != nil {
		return err
	}
	dbCatalog = dbCatalog.SetAt(name, refMap("Dictionary", newRootPtr))
	dbCatalogPtr, err := dbCatalog.Save(ctx)
	if err != nil {
		return err
	}

	published := atom.NewRootObject(store, dbCatalogPtr, root.LiteralRoot, time.Now())
	publishedPtr, err := published.Save(ctx)
	if err != nil {
		return err
	}
	return os.store.SetCurrentRoot(ctx, publishedPtr)
}

// registerDatabase adds a brand-new catalog entry named name, pointing at
// rootPtr. Used by Database.NewBranchDatabase to file a forked database
// under a fresh name without disturbing the origin's own entry.
func (os *ObjectSpace) registerDatabase(ctx context.Context, name string, rootPtr atom.Pointer) error {
	os.mu.Lock()
	defer os.mu.Unlock()

	lockedPtr, hadRoot, lock, err := os.store.LockCurrentRoot(ctx)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	if !hadRoot {
		return pberr.Validationf("txn: object space has no database catalog yet")
	}
	store := os.store.AsStore()
	payload, err := store.GetAtom(ctx, lockedPtr)
	if err != nil {
		return err
	}
	node, err := atom.FromPayload(os.registry, store, payload)
	if err != nil {
		return err
	}
	root := node.(*atom.RootObject)
	dbCatalog, err := collections.LoadDictionary(ctx, store, root.ObjectRoot)
	if err != nil {
		return err
	}
	if dbCatalog.Has(name) {
		return pberr.Validationf("txn: database %q already exists", name)
	}
	dbCatalog = dbCatalog.SetAt(name, refMap("Dictionary", rootPtr))
	dbCatalogPtr, err := dbCatalog.Save(ctx)
	if err != nil {
		return err
	}

	published := atom.NewRootObject(store, dbCatalogPtr, root.LiteralRoot, time.Now())
	publishedPtr, err := published.Save(ctx)
	if err != nil {
		return err
	}
	return os.store.SetCurrentRoot(ctx, publishedPtr)
}
