// Package files provides file system helpers for aqicli: station file lookup
// and atomic output writes. Every output goes through WriteAtomic so that
// concurrently written monthly files never interleave or appear half-written.
package files
