// Package query implements ProtoBase's query engine: an expression tree
// with a compact list-form compiler, a tree of composable QueryPlan
// nodes (scan, filter, join, group, sort, project, vector search), and
// an optimizer that pushes filters toward indexes and reorders terms by
// cost. Grounded on original_source/proto_db/queries.py (the plan node
// catalog) and common.py's QueryPlan/Expression base classes; queries.py
// itself ships every plan past ListPlan/FromPlan as a bare TODO stub, so
// the execution and optimization semantics here follow spec.md §4.8.
package query
