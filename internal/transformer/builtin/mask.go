package builtin

import (
	"fmt"
	"regexp"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer"
)

// Mask policies.
const (
	// MaskFirstMatch rewrites a value with the first rule matching it; a value
	// rewritten earlier in the same call is not examined again.
	MaskFirstMatch = "first_match"
	// MaskProgressive lets every rule scan the current column state, so a later
	// rule can match a label written by an earlier one.
	MaskProgressive = "progressive"
)

// MaskRule maps values matching Pattern to Label.
type MaskRule struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Label   string `json:"label" yaml:"label"`
}

type compiledRule struct {
	re    *regexp.Regexp
	label string
}

// Mask collapses free-text values of a text column into a small set of labels.
// Under first_match values already equal to one of the labels are left alone.
// Under progressive every non-missing value goes through every rule. Missing
// values stay missing.
type Mask struct {
	Column string
	Policy string
	rules  []compiledRule
	labels map[string]bool
}

// NewMask compiles rules in order.
func NewMask(column, policy string, rules []MaskRule, caseInsensitive bool) (*Mask, error) {
	switch policy {
	case "":
		policy = MaskFirstMatch
	case MaskFirstMatch, MaskProgressive:
	default:
		return nil, fmt.Errorf("unknown mask policy %q", policy)
	}
	m := &Mask{Column: column, Policy: policy, labels: make(map[string]bool, len(rules))}
	for i, r := range rules {
		p := r.Pattern
		if caseInsensitive {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		m.rules = append(m.rules, compiledRule{re: re, label: r.Label})
		m.labels[r.Label] = true
	}
	return m, nil
}

func newMask(o config.Options, _ Env) (transformer.Transformer, error) {
	col, err := requireString(o, "column")
	if err != nil {
		return nil, err
	}
	var rules []MaskRule
	if err := o.Decode("rules", &rules); err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("option %q must list at least one rule", "rules")
	}
	m, err := NewMask(col, o.String("policy", MaskFirstMatch), rules, o.Bool("case_insensitive", false))
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mask) Apply(in *table.Table) (*table.Table, error) {
	c, err := in.Column(m.Column)
	if err != nil {
		return nil, err
	}
	if !c.Type().IsText() {
		return nil, &errs.ShapeError{Column: m.Column, Msg: fmt.Sprintf("mask needs a text column, got %s", c.Type())}
	}
	src, _ := c.Strings()
	vals := append([]string(nil), src...)
	done := make([]bool, len(vals))
	for i, v := range vals {
		done[i] = c.IsMissing(i) || (m.Policy == MaskFirstMatch && m.labels[v])
	}

	if m.Policy == MaskProgressive {
		for _, r := range m.rules {
			for i, v := range vals {
				if !done[i] && r.re.MatchString(v) {
					vals[i] = r.label
				}
			}
		}
	} else {
		for i, v := range vals {
			if done[i] {
				continue
			}
			for _, r := range m.rules {
				if r.re.MatchString(v) {
					vals[i] = r.label
					break
				}
			}
		}
	}

	b := table.NewBuilder(c.Name(), c.Type(), len(vals))
	for i, v := range vals {
		if c.IsMissing(i) {
			b.AppendNull()
			continue
		}
		b.AppendString(v)
	}
	return in.With(b.Build())
}
