package xsdtree

import (
	"fmt"
	"strings"
)

// Diagnostic is a non-fatal finding reported while flattening a schema.
type Diagnostic struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`
	Message  string   `json:"message" yaml:"message"`
	Path     string   `json:"path" yaml:"path"`
	Type     string   `json:"type,omitempty" yaml:"type,omitempty"`
	Hints    []string `json:"hints,omitempty" yaml:"hints,omitempty"`
}

// Severity represents the severity level of a diagnostic
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic codes.
const (
	CodeRecursion      = "recursion"
	CodeGroupRecursion = "group-recursion"
	CodeWildcard       = "wildcard"
)

func recursionDiagnostic(path, typeName string) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     CodeRecursion,
		Message:  fmt.Sprintf("%s: element re-enters type %s", ErrRecursionDetected, typeName),
		Path:     path,
		Type:     typeName,
		Hints:    []string{"descendants of this element are not listed"},
	}
}

func groupRecursionDiagnostic(path string, group QName) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     CodeGroupRecursion,
		Message:  fmt.Sprintf("%s: group %s references itself", ErrRecursionDetected, group.Local),
		Path:     path,
	}
}

func wildcardDiagnostic(path string, w *Wildcard) Diagnostic {
	ns := w.Namespace
	if ns == "" {
		ns = "##any"
	}
	return Diagnostic{
		Severity: SeverityInfo,
		Code:     CodeWildcard,
		Message:  fmt.Sprintf("wildcard content (namespace %s) is not listed", ns),
		Path:     path,
	}
}

// ErrorFormatter provides rustc-style diagnostic formatting
type ErrorFormatter struct {
	Color bool
}

// Format formats a diagnostic in rustc style
func (ef *ErrorFormatter) Format(diag Diagnostic) string {
	var sb strings.Builder

	severity := string(diag.Severity)
	if ef.Color {
		switch diag.Severity {
		case SeverityError:
			severity = "\033[31;1merror\033[0m" // Red
		case SeverityWarning:
			severity = "\033[33;1mwarning\033[0m" // Yellow
		case SeverityInfo:
			severity = "\033[36;1minfo\033[0m" // Cyan
		}
	}

	sb.WriteString(fmt.Sprintf("%s[%s]: %s\n", severity, diag.Code, diag.Message))
	if diag.Path != "" {
		sb.WriteString(" --> " + diag.Path + "\n")
	}

	if len(diag.Hints) > 0 {
		sb.WriteString("     |\n")
		for _, hint := range diag.Hints {
			sb.WriteString("     = help: " + hint + "\n")
		}
	}

	return sb.String()
}
