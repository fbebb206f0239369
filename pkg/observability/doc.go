/*
Package observability provides lifecycle hooks for monitoring models.

NewMetrics records prometheus counters and histograms; LoggingHooks writes
structured log lines. Both return domain.LifecycleHooks and can be merged with
domain.Combine before being handed to model.WithLifecycleHooks.
*/
package observability
