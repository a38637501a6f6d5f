package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docnav/internal/navigator"
	"github.com/dgallion1/docnav/internal/parser"
	"github.com/dgallion1/docnav/internal/render"
)

// Worker processes a single document job.
type Worker struct {
	log        *slog.Logger
	parserOpts parser.Options
	renderOpts render.Options
}

func NewWorker(log *slog.Logger, parserOpts parser.Options, renderOpts render.Options) *Worker {
	return &Worker{
		log:        log,
		parserOpts: parserOpts,
		renderOpts: renderOpts,
	}
}

// Process runs the full build for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "queued")
		return
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	data := job.FileData()
	doc, err := p.Parse(bytes.NewReader(data), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		doc.Title = job.Title
	}

	// Phase 2: Build
	job.SetStatus(StatusBuilding, "building")
	warnings := navigator.Warnings(navigator.Validate(doc, w.renderOpts.Nav))
	tree := navigator.Build(doc, w.renderOpts.Nav)
	job.SetOutline(len(doc.Headings), len(tree.Order), warnings)
	log.Info("built navigation", "headings", len(doc.Headings), "entries", len(tree.Order), "warnings", len(warnings))

	if !parser.IsRenderable(job.Filename) {
		job.SetResult(tree, nil)
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 3: Render
	job.SetStatus(StatusRendering, "rendering")
	page, pageTree, err := render.Page(bytes.NewReader(data), job.Filename, w.renderOpts)
	if err != nil {
		log.Error("render failed", "error", err)
		job.AddError(fmt.Sprintf("render: %s", err))
		job.SetResult(tree, nil)
		job.SetStatus(StatusFailed, "rendering")
		return
	}
	pageTree.Title = doc.Title
	job.SetResult(pageTree, page)
	job.SetStatus(StatusCompleted, "done")
	log.Info("rendered page", "bytes", len(page))
}
