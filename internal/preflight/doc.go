// Package preflight provides readiness checks for the directories and external
// programs autosplit depends on.
//
// The batch workflow calls RunAll before touching any input so that an
// unwritable output directory fails the batch up front. The CLI "status"
// command reuses the individual checks to print a health summary.
package preflight
