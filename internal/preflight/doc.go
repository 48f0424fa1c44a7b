// Package preflight provides readiness checks for the filesystem paths and
// package index a bootstrap depends on.
//
// These checks run in two contexts:
//   - The bootstrap sequence calls RunAll before taking the cache lock. If a
//     check fails the run stops before any install is attempted.
//   - The CLI "wheelhouse doctor" command uses individual check functions
//     (CheckDirectoryAccess, CheckDriveMount, CheckIndex) to display health.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
