/*
Package atom defines ProtoBase's persisted node model: AtomPointer identity,
the Node lifecycle (unloaded, loaded, saved), the class Registry (one per
ObjectSpace) used for polymorphic rehydration, and the two serialization
formats (JSON and MessagePack) a WAL record may carry.

Every concrete collection and object type in ProtoBase (List nodes,
HashDictionary nodes, Dictionary, Set, CountedSet, RepeatedKeysDictionary,
MutableObject, DBObject, Literal, BytesAtom, RootObject) embeds Base and
implements Node. A class-name string recorded in every persisted payload
drives FromPayload's dispatch back to the right constructor through the Registry;
a type with no registered constructor falls back to Generic, an attribute
bag that keeps the payload's shape without interpreting it.

Atoms are saved bottom-up: a node's Save first saves any child atoms it
references, then asks its owning Store for a pointer via PushAtom. A
pointer is assigned exactly once; after that the Saved flag suppresses
re-serialization for the remainder of the process's view of that node.
*/
package atom
