// Package decay holds the pure parts of forgetting: the algorithm registry,
// the per-algorithm content transforms, their lookup tables and the one-way
// trace digest. Nothing here keeps state between calls; randomness is always
// supplied by the caller.
package decay
