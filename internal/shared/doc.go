// Package shared groups helpers used across the dashboard packages that
// belong to no single layer.
//
// The testutil subpackage provides a slog handler that buffers records for
// assertions and optionally forwards them to the test log:
//
//	handler := testutil.NewBufferedSlogHandler(t)
//	logger := slog.New(handler)
//	// ...
//	assert.True(t, handler.ContainsMessage("View rejected"))
package shared
