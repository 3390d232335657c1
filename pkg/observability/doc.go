/*
Package observability turns engine lifecycle events into Prometheus metrics
and structured log records.

Both are expressed as domain.LifecycleHooks; Combine merges several hook
sets into one so an engine can feed metrics and logs at the same time.
*/
package observability
