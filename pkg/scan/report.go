package scan

import "encoding/json"

// Severity ranks a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Decision is the gate outcome derived from a report's most severe
// finding.
type Decision string

const (
	DecisionClean   Decision = "clean"
	DecisionNote    Decision = "note"
	DecisionCaution Decision = "caution"
	DecisionBlock   Decision = "block"
)

// Finding is one detected threat. Immutable once recorded.
type Finding struct {
	Severity       Severity `json:"severity"`
	Category       string   `json:"category"`
	File           string   `json:"file"`
	Line           int      `json:"line"`
	Description    string   `json:"description"`
	MatchedText    string   `json:"matched_text"`
	Recommendation string   `json:"recommendation"`
}

// Summary tallies findings by severity.
type Summary struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}

// Report is the scan result. Its JSON form is the scanner's output
// contract.
type Report struct {
	SkillPath     string    `json:"skill_path"`
	FilesScanned  []string  `json:"files_scanned"`
	ScanTimestamp string    `json:"scan_timestamp"`
	Summary       Summary   `json:"summary"`
	Findings      []Finding `json:"findings"`
}

func (r *Report) add(f Finding) {
	switch f.Severity {
	case SeverityCritical:
		r.Summary.Critical++
	case SeverityWarning:
		r.Summary.Warning++
	case SeverityInfo:
		r.Summary.Info++
	}
	r.Findings = append(r.Findings, f)
}

// Decision maps the summary to the gate outcome: any critical finding
// blocks, warnings advise caution, info findings are a note.
func (r *Report) Decision() Decision {
	switch {
	case r.Summary.Critical > 0:
		return DecisionBlock
	case r.Summary.Warning > 0:
		return DecisionCaution
	case r.Summary.Info > 0:
		return DecisionNote
	}
	return DecisionClean
}

// ExitCode returns the scan command's exit code for the report:
// 3 blocking, 2 caution, 1 note, 0 clean.
func (r *Report) ExitCode() int {
	switch r.Decision() {
	case DecisionBlock:
		return 3
	case DecisionCaution:
		return 2
	case DecisionNote:
		return 1
	}
	return 0
}

// JSON encodes the report, optionally indented.
func (r *Report) JSON(pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(r, "", "  ")
	}
	return json.Marshal(r)
}
