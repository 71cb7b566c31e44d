package layout

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Config collects engine knobs. Defaults returns a usable set.
type Config struct {
	Filler FillerConfig
	Entry  EntryStyle
}

func Defaults() Config {
	return Config{
		Filler: DefaultFiller(),
		Entry:  DefaultEntryStyle(),
	}
}

// Layout feeds records in input order through normalization, section
// classification, the pagination planner and the entry renderer, issuing
// commands to the backend exactly in the order they are generated. The
// sequence must be pre-sorted by topic, ordering it is the input provider's
// job.
//
// Processing is strictly sequential and stops at the first error from any
// stage. There is no rollback: whatever has been written to the backend by
// then is left as is, cleanup belongs to the backend owner. Backend errors
// are propagated unchanged. The context is only consulted between records,
// cancellation simply abandons the remaining state.
func Layout(ctx context.Context, records []Raw, b Backend, cfg Config, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	p := &planner{filler: cfg.Filler}
	for i, raw := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := Normalize(raw)
		if err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
		key, letter := Classify(e)
		if p.boundary(key, letter) {
			log.Debug("Section boundary",
				zap.String("from", string(p.prev)),
				zap.String("to", string(key)))
		}
		if err := p.advance(key, letter, b); err != nil {
			return err
		}
		if err := b.Emit(Render(e, cfg.Entry), true); err != nil {
			return err
		}
	}
	return p.finish(b)
}
