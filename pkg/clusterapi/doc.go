// Package clusterapi exposes a storage.BlockProvider's WAL append/read and
// root-pointer publish/get contract over gRPC, so a remote process can act
// as a BlockProvider client without sharing a filesystem with the node that
// actually holds the data. Grounded on cuemby-warren/pkg/api/server.go's
// gRPC service shape (a Server wrapping the domain object it fronts and a
// paired HTTP health server; Warren's ensureLeader guard has no
// counterpart here beyond toStatus mapping pberr kinds to gRPC codes)
// and pkg/client's client-side wrapper, reduced from Warren's
// broad node/service/task API surface to the one BlockProvider contract
// spec.md §4.10 and SPEC_FULL.md §2 call for.
//
// No .proto file or protoc-generated code ships with this package: the
// corpus this module was built from carries no committed .proto sources or
// generated *.pb.go output to model byte-for-byte, and a hand-fabricated
// FileDescriptorProto would not reflect correctly without the toolchain
// that compiles one. Instead, every request/response message is a
// google.golang.org/protobuf well-known type (structpb.Struct,
// wrapperspb.UInt64Value, emptypb.Empty) — real generated code shipped
// inside the protobuf module itself, not hand-written — and the service
// registration (ClusterAPI_ServiceDesc, handler funcs, client stub) follows
// protoc-gen-go-grpc's own stable, documented output shape directly. See
// DESIGN.md for the full rationale.
package clusterapi
