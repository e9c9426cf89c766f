package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/coloriage/pkg/errors"
	"github.com/matzehuels/coloriage/pkg/expr"
	"github.com/matzehuels/coloriage/pkg/observability"
	"github.com/matzehuels/coloriage/pkg/textfit"
	"github.com/matzehuels/coloriage/pkg/tiling"
)

// annotateCheckEvery is how many rectangles are laid out between two
// cancellation checks.
const annotateCheckEvery = 64

// Annotate attaches a statement to every rectangle and fits it into the
// rectangle's pixel size. targets holds one value per color id.
//
// Overrides win over the annotation mode. In expression mode the statement
// list of each color is generated once and the rectangle picks from it by
// position, so neighbouring regions of one color show different statements.
func (r *Runner) Annotate(ctx context.Context, rects []tiling.Rect, targets []float64, opts Options) (regions []Region, err error) {
	if err := opts.SetAnnotateDefaults(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnStageStart(ctx, observability.StageAnnotate)
	defer func() {
		hooks.OnStageComplete(ctx, observability.StageAnnotate, len(regions), time.Since(start), err)
	}()

	regions = make([]Region, len(rects))
	for i, rect := range rects {
		regions[i].Rect = rect
	}
	if opts.Annotate == AnnotateNone && len(opts.Overrides) == 0 {
		return regions, nil
	}
	if opts.Annotate != AnnotateNone {
		if err := errors.ValidateTargets(targets); err != nil {
			return nil, err
		}
		for _, rect := range rects {
			if rect.ColorID >= len(targets) {
				return nil, errors.New(errors.ErrCodeInvalidTarget, "no target for color %d", rect.ColorID)
			}
		}
	}

	f, err := expr.ParseFormatter(opts.Locale)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid locale")
	}
	m, release, err := opts.measurer()
	if err != nil {
		return nil, err
	}
	defer release()

	fit := textfit.Options{
		MinScale:     opts.MinScale,
		MaxScale:     opts.MaxScale,
		PaddingRatio: opts.PaddingRatio,
		Measurer:     m,
	}
	bank := newStatementBank(opts.ExprOptions(f))
	cell := float64(opts.CellSize)

	for i := range regions {
		if i%annotateCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		reg := &regions[i]

		var text textfit.Text
		if s, ok := opts.Overrides[reg.ID]; ok {
			text = textfit.Plain(s)
		} else {
			switch opts.Annotate {
			case AnnotateNone:
				continue
			case AnnotateValue:
				text = textfit.Plain(f.Number(targets[reg.ColorID]))
			case AnnotateExpression:
				e, err := bank.pick(targets[reg.ColorID], reg.X, reg.Y, reg.ColorID)
				if err != nil {
					return nil, err
				}
				text = textfit.Text{Body: e.Body(f), Suffix: e.Suffix()}
			}
		}

		res := textfit.Layout(text, float64(reg.W)*cell, float64(reg.H)*cell, fit)
		reg.Text = text.String()
		reg.Label = &res
	}
	return regions, nil
}

// measurer resolves the text measurer for a run. The returned function
// releases measurer resources created here.
func (o *Options) measurer() (textfit.Measurer, func(), error) {
	if o.Measurer != nil {
		return o.Measurer, func() {}, nil
	}
	if o.Font == FontGoRegular {
		fm, err := textfit.NewGoRegularMeasurer()
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "load font")
		}
		return fm, func() { _ = fm.Close() }, nil
	}
	return textfit.Monospace{}, func() {}, nil
}

// statementBank memoizes the statement list of each target value.
type statementBank struct {
	opts  expr.Options
	lists map[float64][]expr.Expression
}

func newStatementBank(opts expr.Options) *statementBank {
	return &statementBank{opts: opts, lists: make(map[float64][]expr.Expression)}
}

func (b *statementBank) pick(target float64, x, y, colorID int) (expr.Expression, error) {
	list, ok := b.lists[target]
	if !ok {
		var err error
		list, err = expr.Generate(target, b.opts)
		if err != nil {
			return expr.Expression{}, err
		}
		b.lists[target] = list
	}
	e, _ := expr.Pick(list, x, y, colorID)
	return e, nil
}
