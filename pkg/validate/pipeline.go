package validate

import (
	"strings"

	"github.com/ravensys/netcollect/pkg/domain"
	"github.com/ravensys/netcollect/pkg/storage"
)

// Status is the outcome of running the validation pipeline against one
// device's raw output.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	StatusNoTemplate Status = "no-template"
)

// Result is the pipeline's verdict: the selected template identifier (empty
// when none matched), its parsed records, the score, and the status.
type Result struct {
	TemplateIdentifier string
	Records []Record
	Score int
	Status Status
}

// Pipeline selects and scores templates against raw device output.
type Pipeline struct {
	templates storage.TemplateStore
}

// New returns a Pipeline backed by the given read-only template store.
func New(templates storage.TemplateStore) *Pipeline {
	return &Pipeline{templates: templates}
}

// Validate runs the template filter against the store, scores every
// candidate whose identifier contains every underscore-separated term in
// filter, and keeps the best. minScore is the job's validation
// policy threshold.
func (p *Pipeline) Validate(filter, commandIdentifier, raw string, minScore int) (Result, error) {
	all, err := p.templates.ListTemplates()
	if err != nil {
		return Result{}, err
	}

	terms := splitTerms(filter)
	var best *domain.Template
	var bestResult ParseResult
	bestScore := -1

	for _, tmpl := range all {
		if !containsAllTerms(tmpl.Identifier, terms) {
			continue
		}
		parsed := Parse(tmpl.Body, raw)
		score := Score(commandIdentifier, parsed)
		if score > bestScore {
			bestScore = score
			best = tmpl
			bestResult = parsed
		}
	}

	if best == nil {
		return Result{Status: StatusNoTemplate}, nil
	}

	status := StatusPassed
	if bestScore < minScore {
		status = StatusFailed
	}

	return Result{
		TemplateIdentifier: best.Identifier,
		Records: bestResult.Records,
		Score: bestScore,
		Status: status,
	}, nil
}

func splitTerms(filter string) []string {
	var terms []string
	for _, t := range strings.Split(filter, "_") {
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

func containsAllTerms(identifier string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(identifier, t) {
			return false
		}
	}
	return true
}
