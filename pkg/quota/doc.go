// Package quota persists per-tenant monthly service quotas in SQLite and
// publishes them as gauges alongside the request metrics, so dashboards can
// chart usage against entitlement.
package quota
