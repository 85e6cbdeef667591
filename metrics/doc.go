/*
Package metrics provides counters, gauges and histograms for the directory
backend.

Two backends implement Client: HostMetrics sends protobuf payloads to the
Tarmac metrics capability over waPC, and Prometheus registers collectors with
a prometheus.Registerer for the standalone server. Nop discards everything.

Emission follows Prometheus ergonomics: Inc/Dec/Observe are best-effort and do
not return errors. Marshal or host-call failures are swallowed so that a broken
metrics sink never changes the outcome of a query.
*/
package metrics
