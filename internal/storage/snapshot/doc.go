// Package snapshot writes and restores point-in-time dumps of a raw store.
//
// File layout:
//
//	snapshot-<timestamp>-<sequence>.snap
//	[magic:8 "CMPSSNAP"]
//	[HeaderLen:4][HeaderJSON:HeaderLen]
//	[DataLen:4][Data:DataLen]   (entries, or encrypted entries)
//	[checksum:32 SHA-256 of all bytes above]
//
// Data is a run of [KeyLen:4][Key][ValueLen:4][Value] records in key order.
// With a passphrase the data block is sealed with a key derived by Argon2id;
// the salt and cipher are recorded in the header, which is also bound to the
// ciphertext as additional data.
//
// Restoring writes every entry back through the store's batch path; keys
// absent from the snapshot are left untouched.
package snapshot
