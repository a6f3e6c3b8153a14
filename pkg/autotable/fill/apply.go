package fill

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/anchor"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/docx"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/prompt"
)

// ErrNoTarget is returned when a decision lacks the location it writes to.
var ErrNoTarget = errors.New("decision has no target")

// Apply executes a decision.
func Apply(d Decision) error {
	switch d.Strategy {
	case Skip:
		return nil
	case Smart:
		if d.Paragraph == nil {
			return ErrNoTarget
		}
		return applySmart(d.Paragraph, d.Placeholder, d.Text)
	case AppendParagraph:
		if d.Cell == nil {
			return ErrNoTarget
		}
		p := d.Cell.AddParagraph(d.Text)
		for _, r := range p.Runs() {
			r.ApplyFont(d.Font)
		}
		return nil
	case AppendRun:
		if d.Paragraph == nil {
			return ErrNoTarget
		}
		d.Paragraph.AddRun(d.Text)
		return nil
	case Overwrite:
		if d.Paragraph == nil {
			return ErrNoTarget
		}
		d.Paragraph.SetText(d.Text).ApplyFont(d.Font)
		return nil
	case Replace:
		if d.Paragraph == nil {
			return ErrNoTarget
		}
		d.Paragraph.SetText(d.Text)
		return nil
	case Raw:
		if d.Cell == nil {
			return ErrNoTarget
		}
		d.Cell.SetText(d.Text)
		return nil
	}
	return fmt.Errorf("unknown strategy %d", int(d.Strategy))
}

func applySmart(p *docx.Paragraph, idx int, fill string) error {
	runs := p.Runs()
	if idx < 0 || idx >= len(runs) {
		return fmt.Errorf("placeholder run %d: %w", idx, docx.ErrOutOfRange)
	}
	target := runs[idx]
	target.SetText(" " + fill + " ")
	target.SetUnderline(true)

	// A long placeholder is often split over several runs.
	for _, r := range runs[idx+1:] {
		if !isPlaceholderRun(r) {
			break
		}
		r.SetText("")
	}
	return nil
}

// Result counts the outcome of one scope.
type Result struct {
	Filled  int
	Skipped int
	Unknown int
	Failed  int
}

// Applier writes oracle replies into a document.
type Applier struct {
	log *zap.Logger
}

// NewApplier creates an applier. A nil logger discards output.
func NewApplier(log *zap.Logger) *Applier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Applier{log: log}
}

// ApplyScope writes every entry of a mapping reply into the locations of
// scope. Unknown ids and per-anchor failures are logged and skipped.
func (a *Applier) ApplyScope(doc *docx.Document, scope *anchor.Scope, reply prompt.Reply) Result {
	var res Result
	if !reply.Mapping() {
		return res
	}
	log := a.log.With(zap.String("scope", scope.Name()))

	resolve, err := resolver(doc, scope)
	if err != nil {
		log.Error("scope target unavailable", zap.Error(err))
		res.Failed = len(reply.Entries)
		return res
	}

	for _, e := range reply.Entries {
		an, ok := scope.Lookup(e.ID)
		if !ok {
			log.Warn("unknown anchor id", zap.String("id", e.ID))
			res.Unknown++
			continue
		}
		strategy, err := a.applyOne(resolve, an, e.Value)
		switch {
		case err != nil:
			log.Error("fill failed", zap.String("id", an.ID), zap.Error(err))
			res.Failed++
		case strategy == Skip:
			res.Skipped++
		default:
			log.Debug("anchor filled",
				zap.String("id", an.ID),
				zap.Stringer("strategy", strategy),
				zap.String("value", e.Value))
			res.Filled++
		}
	}

	log.Info("scope done",
		zap.Int("filled", res.Filled),
		zap.Int("skipped", res.Skipped),
		zap.Int("unknown", res.Unknown),
		zap.Int("failed", res.Failed))
	return res
}

func (a *Applier) applyOne(resolve func(*anchor.Anchor) (Target, error), an *anchor.Anchor, value string) (strategy Strategy, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	target, err := resolve(an)
	if err != nil {
		return Skip, err
	}
	d := Decide(target, value)
	return d.Strategy, Apply(d)
}

// resolver maps anchors of scope to live document locations.
func resolver(doc *docx.Document, scope *anchor.Scope) (func(*anchor.Anchor) (Target, error), error) {
	if scope.Kind == anchor.KindParagraphs {
		paras := doc.Paragraphs()
		return func(an *anchor.Anchor) (Target, error) {
			i := an.Locator.Paragraph
			if i < 0 || i >= len(paras) {
				return Target{}, fmt.Errorf("paragraph %d: %w", i, docx.ErrOutOfRange)
			}
			return Target{Paragraph: paras[i]}, nil
		}, nil
	}

	tables := doc.Tables()
	if scope.Table < 0 || scope.Table >= len(tables) {
		return nil, fmt.Errorf("table %d: %w", scope.Table, docx.ErrOutOfRange)
	}
	t := tables[scope.Table]
	return func(an *anchor.Anchor) (Target, error) {
		c, err := t.Cell(an.Locator.Row, an.Locator.Col)
		if err != nil {
			return Target{}, err
		}
		return Target{Cell: c}, nil
	}, nil
}
