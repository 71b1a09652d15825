// Package confloader loads configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults already present in the target struct
//  2. A YAML file
//  3. Environment variables (COMPOSABLE_ prefix)
//  4. Explicit overrides, typically CLI flags, via LoadMap
//
// Environment names map to keys by lowercasing and turning single
// underscores into dots. A double underscore stands for a literal
// underscore inside a key:
//
//	COMPOSABLE_STORAGE_BADGER_GC__INTERVAL=5m  ->  storage.badger.gc_interval
package confloader
