// Package workspace manages the scratch directory a run fetches remote sources into.
//
// Ephemeral workspaces are unique per run and removed afterwards. Persistent workspaces
// live at a fixed path and survive the run, which keeps the clone inspectable between
// watch cycles.
package workspace
