package resolve

import (
	"fmt"

	"github.com/skiff-cloud/skiff/pkg/io/logging"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one recorded resolution event: a skipped entity, an applied
// fallback, or an informational note.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Stage    string   `json:"stage"`
	Entity   string   `json:"entity,omitempty"`
	Message  string   `json:"message"`
}

// Diagnostics collects resolution events. It is passed explicitly through
// every resolver stage and returned with the results, so callers can query
// what was skipped or defaulted instead of scraping log output. Entries are
// also emitted live through the log manager.
type Diagnostics struct {
	logger  logging.LogManager
	entries []Diagnostic
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{logger: logging.GetLogManager()}
}

func (d *Diagnostics) Infof(stage, entity, format string, args ...interface{}) {
	d.record(SeverityInfo, stage, entity, fmt.Sprintf(format, args...))
}

func (d *Diagnostics) Warnf(stage, entity, format string, args ...interface{}) {
	d.record(SeverityWarning, stage, entity, fmt.Sprintf(format, args...))
}

func (d *Diagnostics) record(severity Severity, stage, entity, message string) {
	d.entries = append(d.entries, Diagnostic{
		Severity: severity,
		Stage:    stage,
		Entity:   entity,
		Message:  message,
	})
	if severity == SeverityWarning {
		d.logger.Warn(message, "stage", stage, "entity", entity)
	} else {
		d.logger.Info(message, "stage", stage, "entity", entity)
	}
}

func (d *Diagnostics) Entries() []Diagnostic {
	return d.entries
}

// Warnings returns only the warning-severity entries.
func (d *Diagnostics) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, entry := range d.entries {
		if entry.Severity == SeverityWarning {
			out = append(out, entry)
		}
	}
	return out
}
