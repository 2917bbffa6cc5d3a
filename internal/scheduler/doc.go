// Package scheduler runs polling passes on an interval with single-instance
// locking and overlap suppression.
package scheduler
