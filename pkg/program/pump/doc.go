// Package pump holds the bindings for the pump.fun bonding-curve program:
// account layouts, instruction builders, PDA helpers, the program error table
// and event decoders. Everything except this file is produced by internal/gen.
package pump

//go:generate go run ../../../internal/gen -idl ../../../idl/pump.json -out . -pkg pump
