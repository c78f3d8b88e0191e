// Package staging maintains the scratch directories extraction runs leave
// behind. A run removes its own scratch directory on exit; CleanStale catches
// the ones orphaned by a crash or a killed process.
package staging
