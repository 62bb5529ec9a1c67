package mapper

import (
	"context"

	"visio-restyle/internal/diagnostic"
	"visio-restyle/internal/diagram"
)

// Mapper proposes a shape-to-master mapping for a diagram against a target
// master listing. Implementations append non-fatal notes to the Report and
// never emit a master name absent from the listing.
type Mapper interface {
	CreateMapping(ctx context.Context, d *diagram.Diagram, masters *diagram.MastersFile, rep *diagnostic.Report) (diagram.Mapping, error)
}
