// Package report prints pair results as text lines, a table or JSON lines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"imagecompare/evaluator"
	"imagecompare/types"
)

// Formats
const (
	FormatPercent = "percent"
	FormatFloat   = "float"
	FormatTable   = "table"
	FormatJSON    = "json"
)

// Orders
const (
	OrderEmission = "emission"
	OrderRanked   = "ranked"
)

// HighlightMarker prefixes near-duplicate lines
const HighlightMarker = ">> "

// ErrUnknownFormat is returned for an unsupported output format
var ErrUnknownFormat = errors.New("unknown output format")

type Options struct {
	Format  string
	Order   string
	NoColor bool
}

// Reporter writes results to one writer
type Reporter struct {
	out       io.Writer
	format    string
	order     string
	highlight *color.Color
	failure   *color.Color
}

// New creates a reporter. Empty format and order fall back to percent and emission.
func New(out io.Writer, opts Options) *Reporter {
	r := &Reporter{
		out:       out,
		format:    opts.Format,
		order:     opts.Order,
		highlight: color.New(color.FgGreen, color.Bold),
		failure:   color.New(color.FgRed),
	}
	if r.format == "" {
		r.format = FormatPercent
	}
	if r.order == "" {
		r.order = OrderEmission
	}
	if opts.NoColor {
		r.highlight.DisableColor()
		r.failure.DisableColor()
	}
	return r
}

// Write prints results, which must be in emission order
func (r *Reporter) Write(results []types.PairResult) error {
	ranked := r.order == OrderRanked

	switch r.format {
	case FormatPercent, FormatFloat:
		if ranked {
			return r.writeRankedLines(evaluator.Ranked(results))
		}
		return r.writeLines(results)
	case FormatTable:
		if ranked {
			r.writeRankedTable(evaluator.Ranked(results))
			return nil
		}
		r.writeTable(results)
		return nil
	case FormatJSON:
		if ranked {
			return r.writeRankedJSON(evaluator.Ranked(results))
		}
		return r.writeJSON(results)
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", r.format)
	}
}

// Line formats one result in the text formats
func Line(a, b string, score float64, nearDuplicate bool, err error, format string) string {
	if err != nil {
		return fmt.Sprintf("%s - %s: error: %v", a, b, err)
	}
	prefix := ""
	if nearDuplicate {
		prefix = HighlightMarker
	}
	return fmt.Sprintf("%s%s - %s: %s", prefix, a, b, FormatScore(score, format))
}

// FormatScore renders a similarity as a percentage with two decimals or a
// float with four
func FormatScore(score float64, format string) string {
	if format == FormatFloat {
		return strconv.FormatFloat(score, 'f', 4, 64)
	}
	return fmt.Sprintf("%.2f%%", score*100)
}

func (r *Reporter) writeLines(results []types.PairResult) error {
	for _, res := range results {
		line := Line(res.A, res.B, res.Score, res.NearDuplicate, res.Err, r.format)
		if err := r.println(line, res.NearDuplicate, res.Err); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reporter) writeRankedLines(groups []evaluator.Group) error {
	for _, g := range groups {
		if _, err := fmt.Fprintf(r.out, "%s:\n", g.Name); err != nil {
			return err
		}
		for _, m := range g.Matches {
			line := "  " + Line(g.Name, m.Other, m.Score, m.NearDuplicate, m.Err, r.format)
			if err := r.println(line, m.NearDuplicate, m.Err); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Reporter) println(line string, nearDuplicate bool, failed error) error {
	var err error
	switch {
	case failed != nil:
		_, err = r.failure.Fprintln(r.out, line)
	case nearDuplicate:
		_, err = r.highlight.Fprintln(r.out, line)
	default:
		_, err = fmt.Fprintln(r.out, line)
	}
	return err
}

func (r *Reporter) writeTable(results []types.PairResult) {
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"#", "Image A", "Image B", "Similarity", "Note"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
	})

	for _, res := range results {
		table.Append([]string{
			strconv.Itoa(res.Index + 1),
			res.A,
			res.B,
			tableScore(res.Score, res.Err),
			note(res.NearDuplicate, res.Err),
		})
	}
	table.Render()
}

func (r *Reporter) writeRankedTable(groups []evaluator.Group) {
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Image", "Match", "Similarity", "Note"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAutoMergeCells(true)

	for _, g := range groups {
		for _, m := range g.Matches {
			table.Append([]string{g.Name, m.Other, tableScore(m.Score, m.Err), note(m.NearDuplicate, m.Err)})
		}
	}
	table.Render()
}

func tableScore(score float64, err error) string {
	if err != nil {
		return "-"
	}
	return FormatScore(score, FormatPercent)
}

func note(nearDuplicate bool, err error) string {
	switch {
	case err != nil:
		return "error: " + err.Error()
	case nearDuplicate:
		return "near-duplicate"
	default:
		return ""
	}
}

// PairRecord is the JSON form of one pair result
type PairRecord struct {
	Index         int     `json:"index"`
	A             string  `json:"a"`
	B             string  `json:"b"`
	Score         float64 `json:"score"`
	NearDuplicate bool    `json:"near_duplicate"`
	Error         string  `json:"error,omitempty"`
}

// GroupRecord is the JSON form of one ranked group
type GroupRecord struct {
	Image   string        `json:"image"`
	Matches []MatchRecord `json:"matches"`
}

type MatchRecord struct {
	Index         int     `json:"index"`
	Other         string  `json:"other"`
	Score         float64 `json:"score"`
	NearDuplicate bool    `json:"near_duplicate"`
	Error         string  `json:"error,omitempty"`
}

func (r *Reporter) writeJSON(results []types.PairResult) error {
	enc := json.NewEncoder(r.out)
	for _, res := range results {
		rec := PairRecord{
			Index:         res.Index,
			A:             res.A,
			B:             res.B,
			Score:         res.Score,
			NearDuplicate: res.NearDuplicate,
			Error:         errString(res.Err),
		}
		if err := enc.Encode(rec); err != nil {
			return errors.Wrap(err, "encode pair")
		}
	}
	return nil
}

func (r *Reporter) writeRankedJSON(groups []evaluator.Group) error {
	enc := json.NewEncoder(r.out)
	for _, g := range groups {
		rec := GroupRecord{Image: g.Name, Matches: make([]MatchRecord, 0, len(g.Matches))}
		for _, m := range g.Matches {
			rec.Matches = append(rec.Matches, MatchRecord{
				Index:         m.Index,
				Other:         m.Other,
				Score:         m.Score,
				NearDuplicate: m.NearDuplicate,
				Error:         errString(m.Err),
			})
		}
		if err := enc.Encode(rec); err != nil {
			return errors.Wrapf(err, "encode group %s", g.Name)
		}
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
