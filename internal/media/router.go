package media

import (
	"context"
	"fmt"
)

// KindRouter dispatches compression to a per-kind Compressor.
type KindRouter map[Kind]Compressor

// Compress implements Compressor.
func (r KindRouter) Compress(ctx context.Context, raw Raw) (Encoded, error) {
	c, ok := r[raw.Kind]
	if !ok || c == nil {
		return Encoded{}, fmt.Errorf("%w: no compressor for %q", ErrUnsupportedKind, raw.Kind)
	}
	return c.Compress(ctx, raw)
}
