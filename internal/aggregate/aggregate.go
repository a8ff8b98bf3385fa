// Package aggregate sums the affiliate_net_commission values of a parsed
// JSON report.
package aggregate

import (
	"fmt"
	"strings"

	"github.com/j-veylop/commission-tally/internal/logger"
	"github.com/j-veylop/commission-tally/internal/models"
)

// TargetKey is the field whose values are summed.
const TargetKey = "affiliate_net_commission"

// ConversionWarning records a value under TargetKey that could not be
// interpreted as a number. It contributes nothing to the total.
type ConversionWarning struct {
	Value models.Node
	Path  string
}

func (w ConversionWarning) Error() string {
	return fmt.Sprintf("could not convert value at %s to a number", w.Path)
}

// Result is the outcome of one traversal.
type Result struct {
	Warnings []ConversionWarning
	Total    float64
	Matches  int
}

// Aggregator walks a document and accumulates TargetKey values.
type Aggregator struct {
	// OnWarning, when set, is called for each warning in document order.
	OnWarning func(ConversionWarning)
}

// Sum is a convenience for an Aggregator without a warning callback.
func Sum(root models.Node) Result {
	var a Aggregator
	return a.Sum(root)
}

// Sum walks root depth-first and returns the accumulated total.
func (a *Aggregator) Sum(root models.Node) Result {
	var res Result
	a.walk(root, []string{"$"}, &res)
	return res
}

// walk recurses into containers except those stored under TargetKey; a
// container there is reported as a conversion failure and not visited.
func (a *Aggregator) walk(n models.Node, path []string, res *Result) {
	switch v := n.(type) {
	case models.Object:
		for _, m := range v {
			p := append(path, "."+m.Key)
			if m.Key == TargetKey {
				a.accumulate(m.Value, p, res)
				continue
			}
			if models.IsContainer(m.Value) {
				a.walk(m.Value, p, res)
			}
		}
	case models.Sequence:
		for i, item := range v {
			a.walk(item, append(path, fmt.Sprintf("[%d]", i)), res)
		}
	}
}

func (a *Aggregator) accumulate(val models.Node, path []string, res *Result) {
	f, err := ToFloat(val)
	if err != nil {
		w := ConversionWarning{Path: strings.Join(path, ""), Value: val}
		res.Warnings = append(res.Warnings, w)
		logger.Debug("skipping unconvertible value", "path", w.Path, "error", err)
		if a.OnWarning != nil {
			a.OnWarning(w)
		}
		return
	}
	res.Total += f
	res.Matches++
}
