// Package buffer implements the two-slot pool behind the sampling pipeline.
//
// One slot is always owned by the transfer engine; the other is either idle
// in the pool or on loan to the consumer. A Pool is not synchronized and is
// meant to live inside a kernel.Shared cell.
package buffer
