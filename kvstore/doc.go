// Package kvstore provides the durable key-value layer underneath the
// session core. It probes an ordered chain of backends (Redis, SQLite,
// in-process memory) once per process, selects the most durable one that
// accepts writes, and guarantees that Set/Get/Remove/Clear never surface
// a backend failure to the caller: any error falls through to the
// in-process map, which cannot fail.
//
// The memory backend is always the last element of the chain, so storage
// is best-effort durable but unconditionally available.
package kvstore
