// Package fuzztests houses Go fuzz harnesses for the parts of wirepath that take
// raw user strings: notation classification, coordinate parsing and source tree
// mapping. They guard against panics and broken invariants on arbitrary input.
//
// They do not touch the filesystem beyond what the code under test reads.
package fuzztests
