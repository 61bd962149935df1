// Package pipeline runs the documentation stages in order: fetch the source, collect and
// rewrite the README fragments, copy auxiliary docs, scan module metadata, index the target
// tree, then write the sidebar, docs index and sitemaps.
//
// A Runner executes a Plan. Fatal stage errors abort the run; per-item failures are counted
// and turn the outcome into a warning without stopping later stages.
package pipeline
