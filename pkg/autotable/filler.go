package autotable

import (
	"context"

	"go.uber.org/zap"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/anchor"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/docx"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/fill"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/identity"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/knowledge"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/oracle"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/prompt"
)

// ScopeReport is the outcome of one scope.
type ScopeReport struct {
	Name     string           `json:"name"`
	Anchors  int              `json:"anchors"`
	Reply    string           `json:"reply,omitempty"`
	Identity string           `json:"identity,omitempty"`
	Result   fill.Result      `json:"result"`
	Kind     prompt.ReplyKind `json:"-"`
}

// Report is the outcome of filling one document.
type Report struct {
	Filled     int           `json:"filled"`
	Identities []string      `json:"identities,omitempty"`
	Scopes     []ScopeReport `json:"scopes"`
}

// Filler runs the classify, map, ask and apply cycle over a document.
type Filler struct {
	client      oracle.Client
	builder     *prompt.Builder
	applier     *fill.Applier
	temperature float64
	log         *zap.Logger
}

// NewFiller creates a filler. A nil builder uses the built-in prompt and a
// nil logger discards output.
func NewFiller(client oracle.Client, builder *prompt.Builder, temperature float64, log *zap.Logger) (*Filler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if builder == nil {
		b, err := prompt.New(nil)
		if err != nil {
			return nil, err
		}
		builder = b
	}
	return &Filler{
		client:      client,
		builder:     builder,
		applier:     fill.NewApplier(log),
		temperature: temperature,
		log:         log,
	}, nil
}

func (f *Filler) withLogger(log *zap.Logger) *Filler {
	c := *f
	c.log = log
	c.applier = fill.NewApplier(log)
	return &c
}

// FillDocument fills the body paragraphs first and then every table in
// document order. Scopes are processed one at a time so each oracle call
// sees the identities used by all earlier ones. Oracle and parse failures
// leave a scope unfilled; only cancellation of ctx is returned.
func (f *Filler) FillDocument(ctx context.Context, doc *docx.Document, kb *knowledge.Base) (*Report, error) {
	var (
		tracker identity.Tracker
		report  Report
	)

	// Each scope is mapped only after the previous one has been applied.
	next := func(i int) *anchor.Scope {
		if i == 0 {
			return anchor.MapParagraphs(doc.Paragraphs())
		}
		tables := doc.Tables()
		if i > len(tables) {
			return nil
		}
		return anchor.MapTable(tables[i-1], i-1)
	}

	for i := 0; ; i++ {
		scope := next(i)
		if scope == nil {
			break
		}
		sr, err := f.fillScope(ctx, doc, kb, scope, &tracker)
		if err != nil {
			return nil, err
		}
		report.Filled += sr.Result.Filled
		report.Scopes = append(report.Scopes, sr)
	}

	report.Identities = tracker.Used()
	f.log.Info("document filled", zap.Int("filled", report.Filled), zap.Strings("identities", report.Identities))
	return &report, nil
}

func (f *Filler) fillScope(ctx context.Context, doc *docx.Document, kb *knowledge.Base, scope *anchor.Scope, tracker *identity.Tracker) (ScopeReport, error) {
	log := f.log.With(zap.String("scope", scope.Name()))
	sr := ScopeReport{Name: scope.Name(), Anchors: scope.Len()}
	if scope.Len() == 0 {
		log.Info("no slots found, skipping")
		return sr, nil
	}

	msgs, err := f.builder.Build(ctx, prompt.Request{Scope: scope, Knowledge: kb, Used: tracker.Used()})
	if err != nil {
		if ctx.Err() != nil {
			return sr, ctx.Err()
		}
		log.Warn("prompt build failed", zap.Error(err))
		sr.Kind, sr.Reply = prompt.ReplyFailed, prompt.ReplyFailed.String()
		return sr, nil
	}

	log.Info("requesting values", zap.Int("anchors", scope.Len()), zap.Int("used_identities", tracker.Len()))
	var reply prompt.Reply
	raw, err := f.client.Complete(ctx, msgs, f.temperature)
	if err != nil {
		if ctx.Err() != nil {
			return sr, ctx.Err()
		}
		log.Warn("oracle call failed, scope left unfilled", zap.Error(err))
		reply = prompt.Failed(err)
	} else {
		reply = prompt.ParseReply(raw)
		if reply.Kind == prompt.ReplyUnparseable {
			log.Warn("unparseable oracle reply, scope left unfilled", zap.Error(reply.Err), zap.Int("bytes", len(raw)))
		}
	}
	sr.Kind, sr.Reply = reply.Kind, reply.Kind.String()

	if reply.Mapping() && tracker.Record(reply.Identity) {
		sr.Identity = reply.Identity
		log.Info("identity used", zap.String("identity", reply.Identity))
	}

	sr.Result = f.applier.ApplyScope(doc, scope, reply)
	return sr, nil
}
