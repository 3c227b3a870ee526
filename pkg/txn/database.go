package txn

import (
	"context"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/collections"
	"github.com/cuemby/protobase/pkg/pberr"
	"github.com/google/uuid"
)

// Database is one independently-committed object graph within an
// ObjectSpace. Grounded on db_access.py's Database.
type Database struct {
	objectSpace *ObjectSpace
	name        string
}

// Name returns the database's catalog name.
func (d *Database) Name() string { return d.name }

// currentDBRoot loads the database's own root Dictionary, as currently
// published in the object space's catalog.
func (d *Database) currentDBRoot(ctx context.Context) (*collections.Dictionary, error) {
	root, _, ok, err := d.objectSpace.readRoot(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pberr.Validationf("txn: database %q does not exist", d.name)
	}
	dbCatalog, err := collections.LoadDictionary(ctx, d.objectSpace.store.AsStore(), root.ObjectRoot)
	if err != nil {
		return nil, err
	}
	ref, ok := dbCatalog.GetAt(d.name)
	if !ok {
		return nil, pberr.Validationf("txn: database %q does not exist", d.name)
	}
	_, ptr, ok := decodeRefMap(ref)
	if !ok {
		return nil, pberr.Corruptionf("txn: database %q catalog entry is malformed", d.name)
	}
	return collections.LoadDictionary(ctx, d.objectSpace.store.AsStore(), ptr)
}

// GetLiteral looks up an interned literal by its database's literal
// catalog, returning (nil, false, nil) if it has never been interned.
func (d *Database) GetLiteral(ctx context.Context, s string) (*atom.Literal, bool, error) {
	root, _, ok, err := d.objectSpace.readRoot(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	literalCatalog, err := collections.LoadDictionary(ctx, d.objectSpace.store.AsStore(), root.LiteralRoot)
	if err != nil {
		return nil, false, err
	}
	ref, ok := literalCatalog.GetAt(s)
	if !ok {
		return nil, false, nil
	}
	_, ptr, ok := decodeRefMap(ref)
	if !ok {
		return nil, false, pberr.Corruptionf("txn: literal catalog entry for %q is malformed", s)
	}
	lit := atom.NewLiteral(d.objectSpace.store.AsStore(), s)
	lit.AssignPointer(ptr)
	return lit, true, nil
}

// NewTransaction starts a new transaction rooted at the database's
// current state.
func (d *Database) NewTransaction(ctx context.Context) (*Transaction, error) {
	dbRoot, err := d.currentDBRoot(ctx)
	if err != nil {
		return nil, err
	}
	return newTransaction(ctx, d, dbRoot)
}

// NewBranchDatabase forks a new, independently-writable database whose
// initial state is this database's current root; subsequent commits on
// either database do not affect the other. The origin database is reset
// to empty, matching db_access.py's new_branch_database.
func (d *Database) NewBranchDatabase(ctx context.Context) (*Database, error) {
	origin, err := d.currentDBRoot(ctx)
	if err != nil {
		return nil, err
	}
	originPtr, err := origin.Save(ctx)
	if err != nil {
		return nil, err
	}

	newName := uuid.New().String()
	if err := d.objectSpace.registerDatabase(ctx, newName, originPtr); err != nil {
		return nil, err
	}
	if err := d.objectSpace.commitDatabase(ctx, d.name, collections.NewDictionary(d.objectSpace.store.AsStore())); err != nil {
		return nil, err
	}
	return &Database{objectSpace: d.objectSpace, name: newName}, nil
}
