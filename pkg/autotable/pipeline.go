package autotable

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/config"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/docx"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/extract"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/history"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/knowledge"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/oracle"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/prompt"
)

// Result describes a finished run.
type Result struct {
	RunID         string         `json:"run_id"`
	Success       bool           `json:"success"`
	Filled        int            `json:"filled"`
	OutputPath    string         `json:"output_path"`
	KnowledgePath string         `json:"knowledge_path"`
	Identities    []string       `json:"identities,omitempty"`
	Scopes        []ScopeReport  `json:"scopes"`
	History       *history.Entry `json:"history,omitempty"`
}

// Pipeline loads knowledge, fills a template and saves the result.
type Pipeline struct {
	cfg    *config.Config
	client oracle.Client
	filler *Filler
	opts   Options
	log    *zap.Logger
	now    func() time.Time
}

// NewPipeline creates a pipeline for one run.
func NewPipeline(cfg *config.Config, client oracle.Client, log *zap.Logger, opts Options) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	builder, err := prompt.New(&prompt.Options{SystemTemplatePath: cfg.LLM.SystemPromptPath})
	if err != nil {
		return nil, err
	}
	filler, err := NewFiller(client, builder, cfg.LLM.Temperature, log)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:    cfg,
		client: client,
		filler: filler,
		opts:   opts,
		log:    log,
		now:    time.Now,
	}, nil
}

// Run executes the pipeline. Any failure before the output is saved is
// returned as a *StageError. A failed history copy is only logged.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	log := p.log.With(
		zap.String("run_id", res.RunID),
		zap.String("template", p.opts.TemplatePath),
	)

	if p.opts.TemplatePath == "" {
		return nil, NewStageError(StageLoadTemplate, "", ErrNoDocument)
	}

	kb, kbPath, err := p.loadKnowledge(ctx, log)
	if err != nil {
		return nil, err
	}
	res.KnowledgePath = kbPath
	log.Info("knowledge loaded",
		zap.String("knowledge", kbPath),
		zap.Stringer("shape", kb.Shape()),
		zap.Int("records", kb.Records()),
	)

	doc, err := openDocx(p.opts.TemplatePath)
	if err != nil {
		return nil, NewStageError(StageLoadTemplate, p.opts.TemplatePath, err)
	}

	report, err := p.filler.withLogger(log).FillDocument(ctx, doc, kb)
	if err != nil {
		return nil, NewStageError(StageFill, p.opts.TemplatePath, err)
	}
	res.Filled = report.Filled
	res.Identities = report.Identities
	res.Scopes = report.Scopes

	outDir := p.opts.OutputDir
	if outDir == "" {
		outDir = p.cfg.Output.Dir
	}
	out := filepath.Join(outDir, p.opts.OutputFileName(p.now()))
	if err := doc.Save(out); err != nil {
		return nil, NewStageError(StageSave, out, err)
	}
	res.OutputPath = out
	res.Success = true
	log.Info("document saved", zap.String("output", out), zap.Int("filled", res.Filled))

	if p.opts.ShouldSaveHistory(p.cfg.History.Enabled) {
		store := history.New(p.cfg.History.Dir, p.cfg.History.MaxRecords, log)
		entry, err := store.Save(out)
		if err != nil {
			log.Warn("failed to save history copy", zap.Error(err))
		} else {
			res.History = &entry
		}
	}
	return res, nil
}

func (p *Pipeline) loadKnowledge(ctx context.Context, log *zap.Logger) (*knowledge.Base, string, error) {
	if path := p.opts.KnowledgePath; path != "" {
		if err := checkFile(path); err != nil {
			return nil, "", NewStageError(StageLoadKnowledge, path, err)
		}
		kb, err := knowledge.Load(path)
		if err != nil {
			return nil, "", NewStageError(StageLoadKnowledge, path, err)
		}
		return kb, path, nil
	}

	src := p.opts.SourcePath
	if src == "" {
		return nil, "", NewStageError(StageLoadKnowledge, "", ErrNoKnowledge)
	}
	srcDoc, err := openDocx(src)
	if err != nil {
		return nil, "", NewStageError(StageLoadKnowledge, src, err)
	}

	log.Info("extracting knowledge from source document", zap.String("source", src))
	data, err := extract.ToJSON(ctx, srcDoc, p.client, extract.Options{
		ChunkSize:   p.cfg.Extract.ChunkChars,
		Concurrency: p.cfg.Extract.Concurrency,
		Temperature: p.cfg.LLM.Temperature,
		Logger:      log,
	})
	if err != nil {
		return nil, "", NewStageError(StageLoadKnowledge, src, err)
	}

	outDir := p.opts.OutputDir
	if outDir == "" {
		outDir = p.cfg.Output.Dir
	}
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	path := filepath.Join(outDir, base+"_extracted.json")
	if err := extract.WriteJSON(path, data); err != nil {
		return nil, "", NewStageError(StageLoadKnowledge, path, err)
	}
	kb, err := knowledge.LoadJSON(path)
	if err != nil {
		return nil, "", NewStageError(StageLoadKnowledge, path, err)
	}
	return kb, path, nil
}

func openDocx(path string) (*docx.Document, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	return docx.Open(path)
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrFileNotFound
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
