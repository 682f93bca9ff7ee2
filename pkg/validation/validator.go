package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// MaxQueryLength bounds search queries accepted from clients
	MaxQueryLength = 256
)

func init() {
	validate = validator.New()
	mustRegister("nodekind", func(fl validator.FieldLevel) bool {
		return graph.NodeKind(fl.Field().String()).Valid()
	})
	mustRegister("predicate", func(fl validator.FieldLevel) bool {
		return graph.Predicate(fl.Field().String()).Valid()
	})
	mustRegister("layout", func(fl validator.FieldLevel) bool {
		_, err := filter.ParseLayout(fl.Field().String())
		return err == nil
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Struct validates v against its validate struct tags
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	return formatValidationError(validate.Struct(v))
}

// PayloadReport summarizes a graph payload check
type PayloadReport struct {
	Invalid    []error
	Duplicates int
	Dangling   int
}

// OK reports whether no record failed validation
func (r PayloadReport) OK() bool { return len(r.Invalid) == 0 }

// Err joins every record error, or returns nil
func (r PayloadReport) Err() error { return errors.Join(r.Invalid...) }

// CheckPayload validates every record of a payload. Duplicate node ids and
// dangling edge endpoints are counted but are not errors: the graph tolerates
// them.
func CheckPayload(p *graph.Payload) PayloadReport {
	var report PayloadReport
	if p == nil {
		report.Invalid = append(report.Invalid, errors.New("payload cannot be nil"))
		return report
	}

	seen := make(map[string]bool, len(p.Nodes))
	for i := range p.Nodes {
		n := &p.Nodes[i]
		if err := validate.Struct(n); err != nil {
			report.Invalid = append(report.Invalid, fmt.Errorf("nodes[%d] %q: %w", i, n.ID, formatValidationError(err)))
		}
		if seen[n.ID] {
			report.Duplicates++
		}
		seen[n.ID] = true
	}

	for i := range p.Edges {
		e := &p.Edges[i]
		if err := validate.Struct(e); err != nil {
			report.Invalid = append(report.Invalid, fmt.Errorf("edges[%d] %s->%s: %w", i, e.Source, e.Target, formatValidationError(err)))
		}
		if !seen[e.Source] || !seen[e.Target] {
			report.Dangling++
		}
	}
	return report
}

// ValidateQuery checks a raw search query
func ValidateQuery(q string) error {
	if len(q) > MaxQueryLength {
		return fmt.Errorf("query exceeds maximum length of %d characters", MaxQueryLength)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s: field is required", field))
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%s: must be at least %s", field, param))
		case "max", "lte":
			msgs = append(msgs, fmt.Sprintf("%s: must not exceed %s", field, param))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s: must be one of [%s]", field, param))
		case "nodekind":
			msgs = append(msgs, fmt.Sprintf("%s: unknown node kind %q", field, e.Value()))
		case "predicate":
			msgs = append(msgs, fmt.Sprintf("%s: unknown predicate %q", field, e.Value()))
		case "layout":
			msgs = append(msgs, fmt.Sprintf("%s: unknown layout %q", field, e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: validation failed (%s)", field, e.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
