// Package output renders command results for composable-cli.
//
// Results are written as indented JSON, YAML (gopkg.in/yaml.v3) or an
// aligned text table. Types that know their own tabular layout implement
// Tabular; anything else is laid out by reflection.
package output
