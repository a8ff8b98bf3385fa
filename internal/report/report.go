// Package report writes aggregation results for people: conversion warnings,
// the final total, fatal load errors and the run history.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/commission-tally/internal/aggregate"
	"github.com/j-veylop/commission-tally/internal/loader"
	"github.com/j-veylop/commission-tally/internal/models"
	"github.com/j-veylop/commission-tally/internal/ui/styles"
)

// Reporter writes result lines to a single writer. Only fixed labels are
// styled; values are written verbatim.
type Reporter struct {
	out   io.Writer
	theme styles.Theme
}

// New returns a Reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{
		out:   w,
		theme: styles.New(lipgloss.NewRenderer(w)),
	}
}

// Warning writes: Could not convert value '<value>' to a number
func (r *Reporter) Warning(w aggregate.ConversionWarning) {
	_, _ = fmt.Fprintf(r.out, "%s '%s' %s\n",
		r.theme.Warning.Render("Could not convert value"),
		FormatValue(w.Value),
		r.theme.Warning.Render("to a number"))
}

// Total writes: Total affiliate_net_commission: <number>
func (r *Reporter) Total(res aggregate.Result) {
	_, _ = fmt.Fprintf(r.out, "%s %s\n",
		r.theme.Total.Render("Total "+aggregate.TargetKey+":"),
		r.theme.Amount.Render(FormatTotal(res.Total, res.Matches)))
}

// NotFound writes: File not found: <path>
func (r *Reporter) NotFound(path string) {
	_, _ = fmt.Fprintf(r.out, "%s %s\n", r.theme.Error.Render("File not found:"), path)
}

// ReadError writes: Error reading file: <message>
func (r *Reporter) ReadError(err error) {
	_, _ = fmt.Fprintf(r.out, "%s %v\n", r.theme.Error.Render("Error reading file:"), err)
}

// FormatTotal renders a total built from matches values. With no matches
// the total is the integer 0. Otherwise it is written as a float with the
// fewest digits that round-trip: whole numbers keep a ".0", and decimal
// exponents below -4 or from 16 up switch to e-notation (1e+16, 1e-05).
func FormatTotal(total float64, matches int) string {
	switch {
	case matches == 0 && total == 0:
		return "0"
	case math.IsNaN(total):
		return "nan"
	case math.IsInf(total, 1):
		return "inf"
	case math.IsInf(total, -1):
		return "-inf"
	}

	exp := strconv.FormatFloat(total, 'e', -1, 64)
	if e, err := strconv.Atoi(exp[strings.IndexByte(exp, 'e')+1:]); err == nil && (e < -4 || e >= 16) {
		return exp
	}

	s := strconv.FormatFloat(total, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// FormatValue renders an offending value: strings as their raw text,
// everything else as compact JSON.
func FormatValue(n models.Node) string {
	if s, ok := n.(models.String); ok {
		return string(s)
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Sprintf("%v", n)
	}
	return string(data)
}

// LoadError writes the user-facing line for a loader failure and reports
// whether err was one.
func (r *Reporter) LoadError(err error) bool {
	var notFound *loader.NotFoundError
	if errors.As(err, &notFound) {
		r.NotFound(notFound.Path)
		return true
	}

	var parseErr *loader.ParseError
	if errors.As(err, &parseErr) {
		r.ReadError(parseErr.Err)
		return true
	}

	return false
}
