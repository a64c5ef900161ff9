// Package classify maps request paths to service kinds.
//
// The classifier is a compiled prefix table: rules declare a path prefix, a
// ServiceKind, and optionally a payload shape gate. Matching is per path
// segment against a trie, so lookup cost scales with the request path, not
// the table size. The deepest matching prefix wins; ties go to the first
// declared rule whose shape gate admits the payload.
//
// Classification never errors and never invents values: unmatched paths are
// Unknown, and the matched rule's prefix, not the raw path, becomes the
// route label, keeping route cardinality bounded by the table.
package classify
