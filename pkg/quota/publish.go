package quota

import (
	"context"
	"fmt"

	"vaani-labs/drishti/pkg/metrics"
)

// PublishGauges pushes every stored quota into the collector's per-tenant
// monthly quota gauge.
func PublishGauges(ctx context.Context, s *Store, c *metrics.Collector) error {
	entries, err := s.All(ctx)
	if err != nil {
		return fmt.Errorf("listing quotas: %w", err)
	}
	for _, e := range entries {
		c.SetTenantQuota(e.Tenant, e.Service, e.Monthly)
	}
	return nil
}
