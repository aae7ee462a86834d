// Package preflight provides readiness checks for the services and
// filesystem paths reelpost depends on.
//
// "reelpost config validate --check" runs RunAll and prints one line per
// result. Each check is independent; a failing check never stops the
// others from running.
package preflight
