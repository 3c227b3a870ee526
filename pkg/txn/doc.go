/*
Package txn implements ProtoBase's transaction engine: ObjectSpace (the
per-process catalog of databases and interned literals), Database (one
named, independently-committed object graph), and Transaction (the unit of
optimistic-concurrency work a caller reads and writes through).

Grounded on original_source/proto_db/db_access.py's ObjectSpace/Database/
ObjectTransaction and common.py's DBObject/MutableObject/ConcurrentOptimized,
with the Begin/Commit/Abort shape cross-checked against
other_examples/b2d816ed_NayanaChandrika99-DocReasoner__tree_db-pkg-storage-transaction.go.go.

Two deliberate departures from db_access.py, both recorded in DESIGN.md:

  - A single root lock path. The original threads two separate locks
    through a commit (an in-process ObjectSpace.Lock for catalog edits,
    and a storage-level "read_lock_current_root" used only by
    Transaction.commit) whose interaction the reference source never
    fully reconciles. This port uses pkg/sharedstorage's
    LockCurrentRoot/SetCurrentRoot exclusively, for both ObjectSpace
    catalog mutations and Transaction commits, so there is exactly one
    path that can publish a new root pointer.

  - new_roots is never populated in db_access.py (every call site that
    reads self.new_roots.as_iterable() sees a permanently empty
    Dictionary), so effectively no root-object changes ever reach a
    commit in the reference source as written. This port tracks the
    names touched by SetRootObject explicitly and merges exactly those
    into the freshly re-read database root at commit time, which is
    what the docstrings say should happen.
*/
package txn
