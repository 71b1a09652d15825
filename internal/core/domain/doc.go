// Package domain defines the error taxonomy shared by the storage facade,
// the address codec bridge and the dispatch layer.
//
// Every failure surfaced to a caller is a *DomainError carrying a stable
// code, optionally wrapping the lower-level cause:
//
//   - CMP-CODE: serialization (decode/encode) failures
//   - CMP-ADDR: address conversion failures
//   - CMP-STOR: raw backend failures
//   - CMP-DISP: routing and handler failures
//   - CMP-ARG:  invalid arguments and configuration
//
// A missing key is not an error anywhere in this taxonomy.
package domain
