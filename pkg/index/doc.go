// Package index implements ProtoBase's vector similarity indexes: an
// in-memory, linear-scan ExactVectorIndex, a centroid-partitioned
// IVFFlatIndex, and an HNSWIndex approximation. All three share the
// VectorIndex contract (Build/Add/Remove/Search/RangeSearch/Stats) so a
// collection can swap index kinds without touching caller code.
package index
