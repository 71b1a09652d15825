// Package keyspace builds raw storage keys out of namespaces and keys.
//
// The default namespacer is plain concatenation: no delimiter and no length
// prefix is written, so namespace("ab")+key("c") and namespace("a")+key("bc")
// address the same raw key. Callers that use namespaces of varying width
// should either pick fixed-width namespaces or switch to LengthPrefixed,
// which writes a 2-byte length before the namespace.
//
//	raw := keyspace.Combine([]byte("game1"), []byte("count"))   // "game1count"
//	raw, err := keyspace.LengthPrefixed([]byte("game1"), []byte("count")) // "\x00\x05game1count"
package keyspace
