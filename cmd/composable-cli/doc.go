// Package main provides the entry point for composable-cli.
//
// composable-cli builds a sandbox host from configuration and runs one
// command against it:
//
//	composable-cli --backend badger --dir ./data exec --sender alice '{"create_game": {"game": "chess"}}'
//	composable-cli --backend badger --dir ./data -o json query '{"high_score": {"game": "chess"}}'
//	composable-cli system variants
//	composable-cli --backend badger --dir ./data system snapshot save
//
// Configuration comes from --config (YAML), COMPOSABLE_* environment
// variables and global flags, in increasing precedence.
package main
