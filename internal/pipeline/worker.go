package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/redline/internal/annotate"
	"github.com/dgallion1/redline/internal/docio"
)

// Worker processes a single proofing job: parse the upload into lines,
// annotate the lines with bounded fan-out, and assemble both renderings.
type Worker struct {
	collector *annotate.Collector
	log       *slog.Logger

	maxConcurrentLines int
}

func NewWorker(collector *annotate.Collector, log *slog.Logger, maxLines int) *Worker {
	if maxLines <= 0 {
		maxLines = 1
	}
	return &Worker{
		collector:          collector,
		log:                log,
		maxConcurrentLines: maxLines,
	}
}

// lineOutput is one line's share of both renderings.
type lineOutput struct {
	markup string
	runs   []annotate.Run
}

// Process runs the full proofing pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	reader, err := docio.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	doc, err := reader.Read(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetTitle(doc.Title)

	if doc.IsEmpty() {
		log.Warn("no text in document")
		job.AddError("document contains no text to check")
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Annotate lines. Lines are independent, so they fan out
	// with bounded concurrency; outputs are indexed by line number so
	// the final concatenation preserves document order.
	job.SetTotalLines(len(doc.Lines))
	job.SetStatus(StatusChecking, "checking")

	outputs := make([]lineOutput, len(doc.Lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.maxConcurrentLines)
	for i, line := range doc.Lines {
		g.Go(func() error {
			spans, degraded := w.collector.Collect(gctx, line, job.Language)
			for _, srcErr := range degraded {
				job.AddError(fmt.Sprintf("line %d: %s", i+1, srcErr))
			}
			set := annotate.Reconcile(line, spans)
			outputs[i] = lineOutput{
				markup: annotate.RenderMarkup(line, set),
				runs:   annotate.RenderRuns(line, set),
			}
			job.IncrLinesChecked()
			job.AddSpans(len(set))
			return nil
		})
	}
	// Collection degrades internally and never returns errors; Wait only
	// propagates context cancellation.
	if err := g.Wait(); err != nil {
		log.Error("annotation interrupted", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "checking")
		return
	}

	// Phase 3: Render both outputs.
	job.SetStatus(StatusRendering, "rendering")

	markups := make([]string, len(outputs))
	paragraphs := make([][]annotate.Run, len(outputs))
	for i, out := range outputs {
		markups[i] = out.markup
		paragraphs[i] = out.runs
	}

	result := &Result{
		PreviewHTML:  strings.Join(markups, "\n"),
		DownloadName: downloadName(job.Filename),
	}

	docxBytes, err := docio.BuildAnnotated(paragraphs)
	if err != nil {
		// Preview is still usable; only the download is missing.
		log.Error("docx build failed", "error", err)
		job.AddError(fmt.Sprintf("docx: %s", err))
		job.SetResult(result)
		job.SetStatus(StatusPartial, "rendering")
		return
	}
	result.Docx = docxBytes
	job.SetResult(result)

	snap := job.Snapshot()
	log.Info("proofing complete",
		"lines", snap.Progress.TotalLines,
		"spans", snap.Progress.SpansFound,
	)
	if job.HasErrors() {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// downloadName derives the attachment name for the annotated document.
func downloadName(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	if base == "" {
		base = "document"
	}
	return base + "_corrected.docx"
}
