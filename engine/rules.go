// Package engine holds the pure state layer of the quiz: conditional
// rule evaluation and the navigation machine over the visible question
// set. Nothing here touches storage or the network.
package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pulsekit/pulse-survey/model"
)

// Outcome is the result of one rule evaluation pass.
// Hidden and Shown track rule decisions only; static visibility is
// combined in by Visible. ForcedRequired overrides the static flag.
type Outcome struct {
	Hidden         map[string]bool
	Shown          map[string]bool
	ForcedRequired map[string]bool
}

// Evaluate runs every rule against the current answers. Rules fire
// independently; later rules win over earlier ones for the same target.
// A rule whose condition does not hold contributes nothing.
func Evaluate(rules []model.Rule, answers model.Answers) Outcome {
	out := Outcome{
		Hidden:         map[string]bool{},
		Shown:          map[string]bool{},
		ForcedRequired: map[string]bool{},
	}
	for _, r := range rules {
		if !holds(r.When, answers[r.When.QuestionID]) {
			continue
		}
		for _, a := range r.Then {
			switch a.Kind {
			case model.ActionShow:
				delete(out.Hidden, a.Target)
				out.Shown[a.Target] = true
			case model.ActionHide:
				delete(out.Shown, a.Target)
				out.Hidden[a.Target] = true
			case model.ActionMakeRequired:
				out.ForcedRequired[a.Target] = true
			}
		}
	}
	return out
}

// Visible reports whether a question is part of the current flow:
// not hidden by a rule, and either statically visible or surfaced by a
// show action.
func (out Outcome) Visible(q model.Question) bool {
	if out.Hidden[q.ID] {
		return false
	}
	return q.Visible || out.Shown[q.ID]
}

// Required is the effective required flag: forced by a rule, or
// statically required while visible. A hidden question is never
// required, even when its definition says so.
func (out Outcome) Required(q model.Question) bool {
	if out.ForcedRequired[q.ID] {
		return true
	}
	return q.Required && out.Visible(q)
}

func holds(c model.Condition, answer any) bool {
	switch c.Operator {
	case model.OpEquals:
		return looseEqual(answer, c.Value)
	case model.OpNotEquals:
		return !looseEqual(answer, c.Value)
	case model.OpContains:
		return contains(answer, c.Value)
	case model.OpGreater:
		a, okA := toNumber(answer)
		b, okB := toNumber(c.Value)
		return okA && okB && a > b
	case model.OpLess:
		a, okA := toNumber(answer)
		b, okB := toNumber(c.Value)
		return okA && okB && a < b
	}
	return false
}

// looseEqual compares numerically when both sides look like numbers,
// by string form otherwise.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	na, okA := toNumber(a)
	nb, okB := toNumber(b)
	if okA && okB {
		return na == nb
	}
	return stringify(a) == stringify(b)
}

// contains is a membership test when the answer is a collection, a
// case-insensitive substring test otherwise.
func contains(answer, needle any) bool {
	switch vs := answer.(type) {
	case []any:
		for _, v := range vs {
			if looseEqual(v, needle) {
				return true
			}
		}
		return false
	case []string:
		for _, v := range vs {
			if looseEqual(v, needle) {
				return true
			}
		}
		return false
	}
	if answer == nil {
		return false
	}
	return strings.Contains(
		strings.ToLower(stringify(answer)),
		strings.ToLower(stringify(needle)),
	)
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
