// Package memory provides functionality for reading and writing the memory
// of a 32-bit target process.
//
// Most interesting values in the target live several structures deep,
// behind a chain of pointers that starts at a fixed address. A FieldPath
// describes such a chain as a list of offsets:
//
//	p0 = a0
//	pN = deref(pN-1) + aN
//
// where deref reads a pointer-sized little endian value from the target.
// A Resolver walks FieldPaths against a Reader and offers typed helpers
// for the values found at the end of a chain.
//
// Addresses that differ between builds of the target can be organized
// with an AddressTable, which maps symbol names to addresses for each
// build (context).
package memory
