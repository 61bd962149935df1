// Package git fetches a remote documentation source into a local workspace with go-git.
//
// Remote sources are cloned shallow and single-branch; every fetch starts from a clean
// directory, so no state is carried between runs. Transient failures are retried with a
// retry.Policy, and failures are reported as classified errors.
package git
