package statecharts

import (
	"fmt"
	"io"
	"sort"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (sev Severity) String() string {
	if sev == SeverityError {
		return "error"
	}
	return "warning"
}

// Kind classifies where in the pipeline a diagnostic was raised.
type Kind int

const (
	ParseError Kind = iota
	ShapeError
	StructuralError
	StructuralWarning
	EmitError
)

func (kind Kind) Severity() Severity {
	if kind == StructuralWarning {
		return SeverityWarning
	}
	return SeverityError
}

// Diag is a single diagnostic tied to a source position. Line and Col are
// 1-based; zero means the position is not known (whole-file diagnostics).
type Diag struct {
	File string
	Line int
	Col  int
	Kind Kind
	Msg  string
}

func (diag Diag) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", diag.File, diag.Line, diag.Col, diag.Kind.Severity(), diag.Msg)
}

// Report collects diagnostics for one translation run. The pipeline keeps
// going where recovery is possible and asks the report afterwards whether
// emission is still allowed.
type Report struct {
	file  string
	diags []Diag
}

func NewReport(file string) *Report {
	return &Report{file: file}
}

func (rep *Report) Errorf(kind Kind, pos Pos, format string, args ...interface{}) {
	rep.diags = append(rep.diags, Diag{
		File: rep.file,
		Line: pos.Line,
		Col:  pos.Col,
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
	})
}

func (rep *Report) Diags() []Diag {
	return rep.diags
}

func (rep *Report) HasErrors() bool {
	for _, diag := range rep.diags {
		if diag.Kind.Severity() == SeverityError {
			return true
		}
	}
	return false
}

func (rep *Report) CountKind(kind Kind) int {
	var count = 0
	for _, diag := range rep.diags {
		if diag.Kind == kind {
			count++
		}
	}
	return count
}

// Flush writes all diagnostics, ordered by position, to the given sink.
func (rep *Report) Flush(sink io.Writer) {
	var diags = make([]Diag, len(rep.diags))
	copy(diags, rep.diags)
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		return diags[i].Col < diags[j].Col
	})
	for _, diag := range diags {
		fmt.Fprintln(sink, diag.Error())
	}
}
