// Package report renders a completed run's statistics, and optionally
// its per-item results, as text or JSON. Per-item output is always in
// original load order.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/happyfish100/fdfs-batch/logger"
	"github.com/happyfish100/fdfs-batch/model"
)

// Options controls rendering.
type Options struct {
	// Tool names the run in the summary header.
	Tool string
	// JSON selects the machine-readable format.
	JSON bool
	// PerItem includes one entry per item. When set, the JSON output
	// always carries a results array (possibly empty) so field
	// presence stays stable for parsers.
	PerItem bool
}

// Render writes the report to w.
func Render(w io.Writer, rep *model.Report, opts Options) error {
	if opts.JSON {
		return renderJSON(w, rep, opts)
	}
	return renderText(w, rep, opts)
}

// OpenOutput opens the report destination. An empty path means
// stdout. A destination that cannot be opened degrades to stdout with
// a logged warning: the work already happened and must not be lost.
func OpenOutput(path string, log logger.Logger) io.WriteCloser {
	if path == "" {
		return nopCloser{os.Stdout}
	}
	f, err := os.Create(path)
	if err != nil {
		log.Warn("cannot open output %s (%v), writing report to stdout", path, err)
		return nopCloser{os.Stdout}
	}
	return f
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func renderText(w io.Writer, rep *model.Report, opts Options) error {
	s := rep.Stats
	if _, err := fmt.Fprintf(w, "%s summary\n", opts.Tool); err != nil {
		return err
	}
	fmt.Fprintf(w, "  scanned:       %d\n", s.Scanned)
	fmt.Fprintf(w, "  matched:       %d\n", s.Matched)
	fmt.Fprintf(w, "  succeeded:     %d\n", s.Succeeded)
	fmt.Fprintf(w, "  failed:        %d\n", s.Failed)
	fmt.Fprintf(w, "  skipped:       %d\n", s.Skipped)
	fmt.Fprintf(w, "  fetch errors:  %d\n", s.FetchErrors)
	fmt.Fprintf(w, "  bytes:         %d\n", s.BytesAffected)

	if !opts.PerItem {
		return nil
	}

	fmt.Fprintln(w)
	for _, item := range rep.Items {
		line := fmt.Sprintf("%6d  %-11s  %s", item.Index, item.Status, item.ID)
		switch {
		case item.Err != "":
			line += "  (" + item.Err + ")"
		case item.Detail != "":
			line += "  (" + item.Detail + ")"
		}
		if item.ResultID != "" {
			line += "  -> " + item.ResultID
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// jsonItem keeps every field present in every entry so a field never
// appears conditionally per item.
type jsonItem struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Status   string `json:"status"`
	Matched  bool   `json:"matched"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail"`
	Error    string `json:"error"`
	ResultID string `json:"result_id"`
}

type jsonReport struct {
	Tool    string         `json:"tool"`
	Summary model.RunStats `json:"summary"`
	Results *[]jsonItem    `json:"results,omitempty"`
}

func renderJSON(w io.Writer, rep *model.Report, opts Options) error {
	out := jsonReport{Tool: opts.Tool, Summary: rep.Stats}
	if opts.PerItem {
		results := make([]jsonItem, 0, len(rep.Items))
		for _, item := range rep.Items {
			results = append(results, jsonItem{
				Index:    item.Index,
				ID:       item.ID,
				Status:   item.Status.String(),
				Matched:  item.Matched,
				Reason:   item.Reason,
				Detail:   item.Detail,
				Error:    item.Err,
				ResultID: item.ResultID,
			})
		}
		out.Results = &results
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
