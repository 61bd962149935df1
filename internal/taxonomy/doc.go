// Package taxonomy holds the lookup tables that drive categorization, ordering and module
// display: document categories, the root-document order table, guide keywords, title term
// substitutions and per-module display records.
//
// A Taxonomy is a plain value. Components receive it at construction and never consult
// package-level state, so tests can substitute an alternate table freely.
package taxonomy
