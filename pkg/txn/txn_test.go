package txn

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/cache"
	"github.com/cuemby/protobase/pkg/collections"
	"github.com/cuemby/protobase/pkg/metrics"
	"github.com/cuemby/protobase/pkg/pberr"
	"github.com/cuemby/protobase/pkg/sharedstorage"
	"github.com/cuemby/protobase/pkg/storage"
)

func newTestObjectSpace(t *testing.T) *ObjectSpace {
	t.Helper()
	dir := t.TempDir()
	bp, err := storage.NewFileBlockProvider(dir, 0)
	require.NoError(t, err)
	t.Cleanup(func() { bp.Close() })

	reg := atom.NewRegistry()
	caches := cache.NewAtomCache(cache.DefaultConfig())
	s := sharedstorage.New(bp, caches, reg, 2, atom.FormatJSON)
	t.Cleanup(func() { s.Close() })
	return NewObjectSpace(s, reg)
}

func TestNewDatabaseAndOpenDatabase(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)

	db, err := os.NewDatabase(ctx, "accounts")
	require.NoError(t, err)
	assert.Equal(t, "accounts", db.Name())

	_, err = os.NewDatabase(ctx, "accounts")
	assert.Error(t, err, "creating the same database twice should fail")

	opened, err := os.OpenDatabase(ctx, "accounts")
	require.NoError(t, err)
	assert.Equal(t, "accounts", opened.Name())

	_, err = os.OpenDatabase(ctx, "missing")
	assert.Error(t, err)
}

func TestRootObjectRoundTripThroughCommit(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)

	db, err := os.NewDatabase(ctx, "shop")
	require.NoError(t, err)

	tx, err := db.NewTransaction(ctx)
	require.NoError(t, err)

	list := tx.NewList()
	list = list.AppendLast("first item")

	require.NoError(t, tx.SetRootObject(ctx, "catalog", list))

	// visible to the transaction immediately, before commit
	got, ok, err := tx.GetRootObject(ctx, "catalog")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, list, got)

	require.NoError(t, tx.Commit(ctx))

	tx2, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	got2, ok, err := tx2.GetRootObject(ctx, "catalog")
	require.NoError(t, err)
	require.True(t, ok)
	loaded, ok := got2.(*collections.List)
	require.True(t, ok)
	assert.Equal(t, 1, loaded.Count())
}

func TestSetRootObjectRejectsReservedName(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)
	db, err := os.NewDatabase(ctx, "db1")
	require.NoError(t, err)
	tx, err := db.NewTransaction(ctx)
	require.NoError(t, err)

	err = tx.SetRootObject(ctx, mutableRootKey, tx.NewDictionary())
	assert.ErrorIs(t, err, pberr.ErrValidation)
}

func TestGetLiteralInterningReusesSamePointerAcrossTransactions(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)
	db, err := os.NewDatabase(ctx, "db1")
	require.NoError(t, err)

	tx1, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	lit1, err := tx1.GetLiteral(ctx, "hello")
	require.NoError(t, err)
	ptr1, err := lit1.Save(ctx)
	require.NoError(t, err)

	require.NoError(t, tx1.SetRootObject(ctx, "greeting", lit1))
	require.NoError(t, tx1.Commit(ctx))

	tx2, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	lit2, err := tx2.GetLiteral(ctx, "hello")
	require.NoError(t, err)
	ptr2, err := lit2.Save(ctx)
	require.NoError(t, err)

	assert.Equal(t, ptr1, ptr2, "interning the same string twice must reuse the same atom")
}

func TestMutableObjectGetSetDeleteWithinTransaction(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)
	db, err := os.NewDatabase(ctx, "db1")
	require.NoError(t, err)

	tx, err := db.NewTransaction(ctx)
	require.NoError(t, err)

	mut := tx.NewMutableObject("Account")
	require.NoError(t, mut.Set(ctx, "balance", 100))

	v, ok, err := mut.Get(ctx, "balance")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 100, v)

	require.NoError(t, mut.Delete(ctx, "balance"))
	_, ok, err = mut.Get(ctx, "balance")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tx.SetRootObject(ctx, "owner_slot", tx.NewDictionary()))
	require.NoError(t, tx.Commit(ctx))
}

func TestMutableObjectSurvivesCommitAndReload(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)
	db, err := os.NewDatabase(ctx, "db1")
	require.NoError(t, err)
	os.RegisterDBObjectClass("Account")

	tx, err := db.NewTransaction(ctx)
	require.NoError(t, err)

	mut := tx.NewMutableObject("Account")
	require.NoError(t, mut.Set(ctx, "owner", "alice"))
	slot := mut.Slot()

	root := tx.NewDictionary().SetAt("account", slot)
	require.NoError(t, tx.SetRootObject(ctx, "accounts_index", root))
	require.NoError(t, tx.Commit(ctx))

	tx2, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	reopened := tx2.MutableByHandle(slot)
	v, ok, err := reopened.Get(ctx, "owner")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", v)
}

func TestCommitNoopWhenNothingStaged(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)
	db, err := os.NewDatabase(ctx, "db1")
	require.NoError(t, err)

	tx, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, StateCommitted, tx.State())
}

func TestAbortRejectsFurtherCommit(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)
	db, err := os.NewDatabase(ctx, "db1")
	require.NoError(t, err)

	tx, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Abort())

	err = tx.SetRootObject(ctx, "x", tx.NewDictionary())
	assert.ErrorIs(t, err, pberr.ErrValidation)

	err = tx.Commit(ctx)
	assert.ErrorIs(t, err, pberr.ErrValidation)
}

func TestDBObjectWithWithoutImmutability(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)
	db, err := os.NewDatabase(ctx, "db1")
	require.NoError(t, err)
	tx, err := db.NewTransaction(ctx)
	require.NoError(t, err)

	base := NewDBObject(tx, "Person", map[string]any{"name": "bob"})
	withAge := base.With("age", 42)

	_, ok := base.Get("age")
	assert.False(t, ok, "With must not mutate the receiver")
	v, ok := withAge.Get("age")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	withoutName := withAge.Without("name")
	_, ok = withoutName.Get("name")
	assert.False(t, ok)
	_, ok = withAge.Get("name")
	assert.True(t, ok, "Without must not mutate the receiver")
}

func TestDBObjectSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)
	db, err := os.NewDatabase(ctx, "db1")
	require.NoError(t, err)
	os.RegisterDBObjectClass("Person")

	tx, err := db.NewTransaction(ctx)
	require.NoError(t, err)

	person := NewDBObject(tx, "Person", map[string]any{"name": "carol", "age": 30})
	require.NoError(t, tx.SetRootObject(ctx, "person", person))
	require.NoError(t, tx.Commit(ctx))

	tx2, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	got, ok, err := tx2.GetRootObject(ctx, "person")
	require.NoError(t, err)
	require.True(t, ok)

	reloaded, ok := got.(*DBObject)
	require.True(t, ok)
	name, ok := reloaded.Get("name")
	require.True(t, ok)
	assert.Equal(t, "carol", name)
	age, ok := reloaded.Get("age")
	require.True(t, ok)
	assert.EqualValues(t, 30, age)
}

func TestNewBranchDatabaseIsolatesOriginAndBranch(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)
	db, err := os.NewDatabase(ctx, "origin")
	require.NoError(t, err)

	tx, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetRootObject(ctx, "seed", tx.NewDictionary()))
	require.NoError(t, tx.Commit(ctx))

	branch, err := db.NewBranchDatabase(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, db.Name(), branch.Name())

	branchTx, err := branch.NewTransaction(ctx)
	require.NoError(t, err)
	_, ok, err := branchTx.GetRootObject(ctx, "seed")
	require.NoError(t, err)
	assert.True(t, ok, "branch must start from the origin's committed state")

	originTx, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	_, ok, err = originTx.GetRootObject(ctx, "seed")
	require.NoError(t, err)
	assert.False(t, ok, "origin must be reset to empty after branching")
}

func TestRenameDatabase(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)
	_, err := os.NewDatabase(ctx, "old_name")
	require.NoError(t, err)

	require.NoError(t, os.RenameDatabase(ctx, "old_name", "new_name"))

	_, err = os.OpenDatabase(ctx, "old_name")
	assert.Error(t, err)
	_, err = os.OpenDatabase(ctx, "new_name")
	assert.NoError(t, err)
}

func TestGetLiteralsBatch(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)
	_, err := os.NewDatabase(ctx, "db1")
	require.NoError(t, err)

	lits, err := os.GetLiterals(ctx, []string{"a", "b", "a"})
	require.NoError(t, err)
	require.Len(t, lits, 2)
	assert.Equal(t, "a", lits["a"].Value)
	assert.Equal(t, "b", lits["b"].Value)
}

// optimisticObject is a test-only mutable value that implements
// ConcurrentOptimized by replaying only its own single tracked field change
// on top of whatever is currently published, so two writers touching
// disjoint fields of the same slot don't clobber each other.
type optimisticObject struct {
	*DBObject
	changedKey string
	changedVal any
}

func (o *optimisticObject) RebaseOnConcurrentUpdate(currentDBValue atom.Node) (atom.Node, error) {
	current, ok := currentDBValue.(*DBObject)
	if !ok {
		current = o.DBObject
	}
	if o.changedKey == "" {
		return &optimisticObject{DBObject: current}, nil
	}
	return &optimisticObject{DBObject: current.With(o.changedKey, o.changedVal), changedKey: o.changedKey, changedVal: o.changedVal}, nil
}

func TestConcurrentMutableWriteWithoutRebaseSupportFails(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)
	db, err := os.NewDatabase(ctx, "db1")
	require.NoError(t, err)

	seed, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	mut := seed.NewMutableObject("Account")
	require.NoError(t, mut.Set(ctx, "balance", 0))
	slot := mut.Slot()
	require.NoError(t, seed.SetRootObject(ctx, "slot_holder", seed.NewDictionary()))
	require.NoError(t, seed.Commit(ctx))

	txA, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	txB, err := db.NewTransaction(ctx)
	require.NoError(t, err)

	require.NoError(t, txA.MutableByHandle(slot).Set(ctx, "balance", 10))
	require.NoError(t, txA.Commit(ctx))

	err = txB.MutableByHandle(slot).Set(ctx, "balance", 20)
	require.NoError(t, err)
	err = txB.Commit(ctx)
	assert.ErrorIs(t, err, pberr.ErrNotSupported)
}

func TestConcurrentMutableWriteRebasesWhenSupported(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)
	db, err := os.NewDatabase(ctx, "db1")
	require.NoError(t, err)

	os.RegisterDBObjectClass("Account")

	seed, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	base := NewDBObject(seed, "Account", map[string]any{"balance": 0})
	slot := newSlotID()
	seed.SetMutable(slot, base)
	require.NoError(t, seed.SetRootObject(ctx, "slot_holder", seed.NewDictionary()))
	require.NoError(t, seed.Commit(ctx))

	txA, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	txB, err := db.NewTransaction(ctx)
	require.NoError(t, err)

	currentA, err := txA.GetMutable(ctx, slot)
	require.NoError(t, err)
	updatedA := &optimisticObject{DBObject: currentA.(*DBObject).With("balance", 10), changedKey: "balance", changedVal: 10}
	txA.SetMutable(slot, updatedA)
	txA.SetLockedObject(slot, currentA)
	require.NoError(t, txA.Commit(ctx))

	currentB, err := txB.GetMutable(ctx, slot)
	require.NoError(t, err)
	updatedB := &optimisticObject{DBObject: currentB.(*DBObject).With("owner", "dana"), changedKey: "owner", changedVal: "dana"}
	txB.SetMutable(slot, updatedB)
	txB.SetLockedObject(slot, currentB)
	require.NoError(t, txB.Commit(ctx), "a ConcurrentOptimized value should rebase instead of failing")

	final, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	resolved, err := final.GetMutable(ctx, slot)
	require.NoError(t, err)
	obj, ok := resolved.(*DBObject)
	require.True(t, ok)
	balance, ok := obj.Get("balance")
	require.True(t, ok)
	assert.EqualValues(t, 10, balance, "rebase must preserve txA's committed change")
	owner, ok := obj.Get("owner")
	require.True(t, ok)
	assert.Equal(t, "dana", owner, "rebase must apply txB's own change on top")
}

func TestCommitRecordsOutcomeAndDuration(t *testing.T) {
	ctx := context.Background()
	os := newTestObjectSpace(t)
	db, err := os.NewDatabase(ctx, "metered")
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.TxnCommitsTotal.WithLabelValues("committed"))
	durationSamplesBefore := testutil.CollectAndCount(metrics.TxnCommitDuration)

	tx, err := db.NewTransaction(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetRootObject(ctx, "catalog", tx.NewList()))
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.TxnCommitsTotal.WithLabelValues("committed")))
	assert.Greater(t, testutil.CollectAndCount(metrics.TxnCommitDuration), durationSamplesBefore)
}
