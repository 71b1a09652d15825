// Package config defines the host configuration structure.
//
// The configuration is loaded by confloader (YAML file, COMPOSABLE_*
// environment variables, CLI overrides) on top of Default, then checked
// with Verify. Sanitize masks secrets before the configuration is logged
// or printed.
package config
