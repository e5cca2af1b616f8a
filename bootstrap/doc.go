// Package bootstrap runs the process lifecycle: validate config, start the
// registered components, run hooks, then either block until a signal (Run)
// or run a finite task such as the stdio session (RunTask), and finally
// stop everything in reverse order.
package bootstrap
