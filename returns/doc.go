// Package returns provides return-calculation utilities for financial time
// series: price to simple-return conversion, multi-period compounding,
// arithmetic and geometric mean returns, and annualization under a
// configurable compounding period. The same primitives apply to a single
// sequence (Series) or column-wise to many named sequences sharing one time
// index (Table).
//
// All operations construct and return new values; a Series or Table is never
// modified after construction, so values can be shared freely across
// goroutines without synchronization.
package returns
