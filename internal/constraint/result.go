// Package constraint validates batches of facet actions against the
// catalog and the current project state, and orders them for execution.
package constraint

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

// Severity of a Problem.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Problem codes.
const (
	CodeInvalidAction    = "action.invalid"
	CodeDuplicateAction  = "action.duplicate"
	CodeAlreadyInstalled = "action.already-installed"
	CodeNotInstalled     = "action.not-installed"
	CodeSameVersion      = "action.same-version"
	CodeUnknownFacet     = "action.unknown-facet"
	CodeUnknownVersion   = "action.unknown-version"
	CodeFixedUninstall   = "fixed.uninstall"
	CodeFixedChange      = "fixed.version-change"
	CodeUnsatisfied      = "constraint.unsatisfied"
	CodeUnsupported      = "runtime.unsupported"
	CodeUndefinedRuntime = "runtime.undefined"
	CodeUnknownOnRuntime = "runtime.unknown-facet"
	CodeCycle            = "dependency.cycle"
)

// Problem is one finding of a validation run.
type Problem struct {
	Severity Severity
	Code     string
	Message  string
	Versions []*catalog.FacetVersion
}

func (p Problem) String() string {
	return fmt.Sprintf("%s [%s] %s", p.Severity, p.Code, p.Message)
}

// Result collects problems. It is OK when no error-severity problem exists.
type Result struct {
	Problems []Problem
}

func (r *Result) add(sev Severity, code, msg string, fvs ...*catalog.FacetVersion) {
	r.Problems = append(r.Problems, Problem{Severity: sev, Code: code, Message: msg, Versions: fvs})
}

func (r *Result) errorf(code string, fvs []*catalog.FacetVersion, format string, args ...any) {
	r.add(SeverityError, code, fmt.Sprintf(format, args...), fvs...)
}

func (r *Result) warnf(code string, fvs []*catalog.FacetVersion, format string, args ...any) {
	r.add(SeverityWarning, code, fmt.Sprintf(format, args...), fvs...)
}

// Merge appends the problems of other.
func (r *Result) Merge(other *Result) {
	if other != nil {
		r.Problems = append(r.Problems, other.Problems...)
	}
}

func (r *Result) OK() bool { return len(r.Errors()) == 0 }

// Errors returns the error-severity problems.
func (r *Result) Errors() []Problem { return r.filter(SeverityError) }

// Warnings returns the warning-severity problems.
func (r *Result) Warnings() []Problem { return r.filter(SeverityWarning) }

func (r *Result) filter(sev Severity) []Problem {
	var out []Problem
	for _, p := range r.Problems {
		if p.Severity == sev {
			out = append(out, p)
		}
	}
	return out
}

// HasCode reports whether a problem with code was recorded.
func (r *Result) HasCode(code string) bool {
	for _, p := range r.Problems {
		if p.Code == code {
			return true
		}
	}
	return false
}

// Err returns nil for an OK result, otherwise a classified validation error
// wrapping a *ValidationError.
func (r *Result) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	return errors.ValidationError("facet validation failed").
		WithCause(&ValidationError{Problems: errs}).
		WithContext("problems", len(errs)).
		Build()
}

// ValidationError carries the error-severity problems of a failed validation.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Message
	}
	return strings.Join(msgs, "; ")
}
