// Package record implements versioned, chainable data records.
//
// Every record embeds a [Header] carrying a 128-bit type tag, a monotonic
// version number and a borrowed link to the next record. A fixed-signature
// call can therefore carry any number of extension records without the
// callee knowing about them at compile time:
//
//	tag := resource.NewTag(resource.BufferTypeDepth, &depth, resource.ValidUntilPresent)
//	prec := resource.NewPrecisionInfo(resource.PrecisionFP16, 0.5, 0)
//	record.Chain(tag, prec)
//
//	if p := record.Find[resource.PrecisionInfo](tag); p != nil {
//		// use p
//	}
//
// # Versioning
//
// A reader must gate every field introduced in version N of a type behind
// [Header.AtLeast]. A writer that fills a record it did not allocate must
// check [Writable] before touching fields newer than the record's reported
// version, and must leave the version number untouched.
//
// # Ownership
//
// Records are owned by the caller. Nothing in this package copies, retains
// or frees a chain; walkers read Next once per call.
package record
