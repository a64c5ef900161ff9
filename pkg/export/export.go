package export

import (
	"fmt"
	"io"

	"github.com/prometheus/common/expfmt"

	"vaani-labs/drishti/pkg/metrics"
)

// TextFormat is the content type of the exposition endpoint.
var TextFormat = expfmt.NewFormat(expfmt.TypeTextPlain)

// WriteText renders a snapshot of the registry in the Prometheus text
// exposition format. An empty registry renders to valid, empty output.
func WriteText(reg *metrics.Registry, w io.Writer) error {
	families, err := reg.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshotting registry: %w", err)
	}
	enc := expfmt.NewEncoder(w, TextFormat)
	for _, fam := range families {
		if err := enc.Encode(fam); err != nil {
			return fmt.Errorf("encoding %s: %w", fam.GetName(), err)
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		return closer.Close()
	}
	return nil
}
