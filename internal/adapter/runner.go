package adapter

import (
	"context"
	"fmt"

	"apilab/internal/apperr"
	"apilab/internal/catalog"
	"apilab/internal/pkg/jsonutil"
)

// Outcome is what a card run produces: display text and, for structured
// adapters, the typed result.
type Outcome struct {
	Text   string
	Result any
}

// RunFunc executes one card against its current input.
type RunFunc func(ctx context.Context, input string) (Outcome, error)

// Runner binds a card to the adapter its kind selects. Blank input is
// rejected before the card template is applied.
func (a *Adapters) Runner(card catalog.Card) (RunFunc, error) {
	run, err := a.dispatch(card)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, input string) (Outcome, error) {
		if blank(input) {
			return Outcome{}, apperr.EmptyInput(card.ID)
		}
		if !card.IsImage() {
			rendered, err := card.RenderInput(input)
			if err != nil {
				return Outcome{}, err
			}
			input = rendered
		}
		return run(ctx, input)
	}, nil
}

func (a *Adapters) dispatch(card catalog.Card) (RunFunc, error) {
	text := func(fn func(context.Context, string) (string, error)) RunFunc {
		return func(ctx context.Context, input string) (Outcome, error) {
			out, err := fn(ctx, input)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Text: out}, nil
		}
	}
	task := func(t TextTask) RunFunc {
		return text(func(ctx context.Context, in string) (string, error) {
			return a.ProcessText(ctx, in, t, card.TargetLang)
		})
	}
	switch card.Kind {
	case catalog.KindSimulate:
		return text(func(ctx context.Context, in string) (string, error) {
			return a.SimulateAPI(ctx, card.APIName, in)
		}), nil
	case catalog.KindVision:
		return text(func(ctx context.Context, in string) (string, error) {
			return a.AnalyzeImage(ctx, in, card.Prompt)
		}), nil
	case catalog.KindSearch:
		return text(a.LiveSearch), nil
	case catalog.KindMaps:
		return text(a.MapsQuery), nil
	case catalog.KindTranslate:
		return task(TaskTranslate), nil
	case catalog.KindSentiment:
		return task(TaskSentiment), nil
	case catalog.KindQA:
		return task(TaskQA), nil
	case catalog.KindMarket:
		return func(ctx context.Context, in string) (Outcome, error) {
			data, err := a.GenerateMarketData(ctx, in)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Text: data.Summary, Result: data}, nil
		}, nil
	case catalog.KindSiteAudit:
		return func(ctx context.Context, in string) (Outcome, error) {
			rep, err := a.SiteAudit(ctx, in)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Text: jsonutil.PrettyValue(rep, rep.Summary), Result: rep}, nil
		}, nil
	case catalog.KindClinicalAudit:
		return func(ctx context.Context, in string) (Outcome, error) {
			rep, err := a.ClinicalAudit(ctx, in)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Text: jsonutil.PrettyValue(rep, rep.ClinicalSummary), Result: rep}, nil
		}, nil
	default:
		return nil, fmt.Errorf("card %s: unsupported kind %q", card.ID, card.Kind)
	}
}
