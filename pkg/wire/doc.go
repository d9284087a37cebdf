// Package wire implements the binary transaction encoding.
//
// The format is byte-for-byte compatible with the standard Bitcoin
// transaction serialization: little-endian integers, compact-size
// ("varint") length prefixes, and transaction hashes stored in internal
// byte order (reversed relative to the human-readable hex txid).
package wire
