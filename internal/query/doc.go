// Package query validates and evaluates where-clause pipelines against
// concept storage.
//
// A pipeline (ir.Step slice) transforms a working set of binding
// environments: Bind introduces variables, Query fans out over
// matching state rows, Guard filters. Evaluation is side-effect free;
// the only I/O is reads through the Storage interface.
package query
