// Package sysmetrics samples process and infrastructure resource gauges on
// a cron schedule: runtime CPU and memory, the quota store's connection
// pool, and optionally GPU utilization through a pluggable reader.
package sysmetrics
