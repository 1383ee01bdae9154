// Package preflight provides system validation checks run before a serve
// or index operation starts: disk space, memory, write permissions and
// file descriptor limits against the `.docsearch` data directory.
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, dataDir)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
