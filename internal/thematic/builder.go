package thematic

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/choropleth/internal/classify"
	"github.com/sells-group/choropleth/internal/symbology"
)

const defaultMaxConcurrent = 4

// Request asks for one attribute to be classified. Breaks, when set, are
// used as-is and Mode and Classes are ignored.
type Request struct {
	Attribute string        `json:"attribute" yaml:"attribute"`
	Mode      classify.Mode `json:"mode" yaml:"mode"`
	Classes   int           `json:"classes" yaml:"classes"`
	Breaks    []float64     `json:"breaks,omitempty" yaml:"breaks,omitempty"`
}

// Outcome is the renderer built for a Request. Result is nil for explicit
// breaks and Custom mode.
type Outcome struct {
	Request  Request
	RangeSet *symbology.RangeSet
	Result   *classify.Result
}

// Builder classifies several attributes of one source concurrently.
type Builder struct {
	tmpl  Template
	limit int
}

// NewBuilder returns a Builder running at most maxConcurrent
// classifications at once.
func NewBuilder(tmpl Template, maxConcurrent int) *Builder {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Builder{tmpl: tmpl, limit: maxConcurrent}
}

// Build runs every request against src and returns outcomes in request
// order. src must be safe for concurrent Values calls. The first failure
// cancels the remaining requests.
func (b *Builder) Build(ctx context.Context, src symbology.ValueSource, reqs []Request) ([]Outcome, error) {
	log := zap.L().With(zap.String("component", "thematic"), zap.Int("requests", len(reqs)))
	start := time.Now()

	outcomes := make([]Outcome, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.limit)

	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := b.one(gctx, src, req)
			if err != nil {
				return eris.Wrapf(err, "thematic: build %s", req.Attribute)
			}
			outcomes[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("built renderers", zap.Duration("elapsed", time.Since(start)))
	return outcomes, nil
}

func (b *Builder) one(ctx context.Context, src symbology.ValueSource, req Request) (Outcome, error) {
	out := Outcome{Request: req}
	if len(req.Breaks) > 0 {
		rs, err := b.tmpl.FromBreaks(req.Attribute, req.Breaks)
		if err != nil {
			return out, err
		}
		out.RangeSet = rs
		return out, nil
	}
	rs, res, err := b.tmpl.Build(ctx, src, req.Attribute, req.Mode, req.Classes)
	if err != nil {
		return out, err
	}
	out.RangeSet, out.Result = rs, res
	return out, nil
}
