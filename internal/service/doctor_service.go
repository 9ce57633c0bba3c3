package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/amterp/tally/internal/config"
	"github.com/amterp/tally/internal/id"
	"github.com/amterp/tally/internal/model"
	"github.com/amterp/tally/internal/store"
	"github.com/amterp/tally/internal/version"
)

// IssueSeverity indicates how critical an issue is.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue codes for diagnostic results.
const (
	// Priority 1: the file cannot be used as-is (errors)
	CodeUnreadableCounters = "UNREADABLE_COUNTERS"
	CodeMalformedCounters  = "MALFORMED_COUNTERS"
	CodeSchemaViolation    = "SCHEMA_VIOLATION"
	CodeDuplicateID        = "DUPLICATE_COUNTER_ID"

	// Priority 2: load would normalize these (warnings)
	CodeMissingID    = "MISSING_COUNTER_ID"
	CodeMissingColor = "MISSING_COLOR"
	CodeUnknownColor = "UNKNOWN_COLOR"
	CodeHexMismatch  = "COLOR_HEX_MISMATCH"

	// Priority 3: global config (warnings)
	CodeMalformedGlobalConfig = "MALFORMED_GLOBAL_CONFIG"
	CodeGlobalSchemaOutdated  = "GLOBAL_SCHEMA_OUTDATED"
	CodeInvalidGlobalConfig   = "INVALID_GLOBAL_CONFIG"
)

// Issue represents a single diagnostic finding.
type Issue struct {
	Severity  IssueSeverity `json:"severity"`
	Code      string        `json:"code"`
	Position  int           `json:"position,omitempty"` // 1-based index into counters.json
	CounterID string        `json:"counter_id,omitempty"`
	Message   string        `json:"message"`
	Fixable   bool          `json:"fixable"`
	FixAction string        `json:"fix_action,omitempty"`
	FixError  string        `json:"fix_error,omitempty"` // Populated if fix was attempted but failed
}

// CountersDiagnostic contains stats for the counters file.
type CountersDiagnostic struct {
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
	Counters int    `json:"counters"`
}

// ReportSummary summarizes the diagnostic results.
type ReportSummary struct {
	Errors    int `json:"errors"`
	Warnings  int `json:"warnings"`
	Fixed     int `json:"fixed"`
	FixFailed int `json:"fix_failed,omitempty"`
}

// DiagnosticReport contains all diagnostic results.
type DiagnosticReport struct {
	File    CountersDiagnostic `json:"file"`
	Issues  []Issue            `json:"issues"`
	Summary ReportSummary      `json:"summary"`
}

// HasErrors returns true if there are any error-level issues.
func (r *DiagnosticReport) HasErrors() bool {
	return r.Summary.Errors > 0
}

func (r *DiagnosticReport) summarize() {
	r.Summary.Errors = 0
	r.Summary.Warnings = 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			r.Summary.Errors++
		} else {
			r.Summary.Warnings++
		}
	}
}

const countersSchemaURL = "tally://counters.schema.json"

// countersSchema describes the persisted collection. Fields are optional
// because load fills in anything missing.
const countersSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "id":           {"type": "string"},
      "name":         {"type": "string"},
      "initialValue": {"type": "integer"},
      "value":        {"type": "integer"},
      "colorName":    {"type": "string"},
      "colorHex":     {"type": "string", "pattern": "^(#[0-9A-Fa-f]{6})?$"}
    }
  }
}`

var compileCountersSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(countersSchemaURL, strings.NewReader(countersSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(countersSchemaURL)
})

// DoctorService checks counters.json and the global config for problems.
type DoctorService struct {
	store            store.CounterStore
	globalConfigPath string
}

// NewDoctorService creates a new diagnostic service.
func NewDoctorService(counterStore store.CounterStore) *DoctorService {
	return &DoctorService{
		store:            counterStore,
		globalConfigPath: config.GlobalConfigPath(),
	}
}

// Diagnose reads the files as they are on disk and reports every problem.
// A missing counters file is not a problem.
func (s *DoctorService) Diagnose() (*DiagnosticReport, error) {
	report := &DiagnosticReport{
		File:   CountersDiagnostic{Path: s.store.Path()},
		Issues: []Issue{},
	}

	s.checkGlobalConfig(report)
	s.checkCounters(report)

	report.summarize()
	return report, nil
}

// Fix applies automatic fixes for issues that have deterministic solutions.
// All fixes are applied to one load of the file and written back once.
// Returns a new report showing remaining issues and what was fixed.
func (s *DoctorService) Fix(report *DiagnosticReport) (*DiagnosticReport, error) {
	fixable := []Issue{}
	remaining := []Issue{}
	for _, issue := range report.Issues {
		if issue.Fixable {
			fixable = append(fixable, issue)
		} else {
			remaining = append(remaining, issue)
		}
	}

	newReport := &DiagnosticReport{File: report.File}
	if len(fixable) == 0 {
		newReport.Issues = remaining
		newReport.summarize()
		return newReport, nil
	}

	counters, loadErr := s.loadRaw()
	fixed := 0
	fixFailed := 0
	taken := make(map[string]bool)
	for _, c := range counters {
		if c != nil && !id.Missing(c.ID) {
			taken[c.ID] = true
		}
	}

	for _, issue := range fixable {
		err := loadErr
		if err == nil {
			err = applyFix(counters, issue, taken)
		}
		if err != nil {
			issue.FixError = err.Error()
			remaining = append(remaining, issue)
			fixFailed++
			continue
		}
		fixed++
	}

	if fixed > 0 {
		if err := s.store.Save(compact(counters)); err != nil {
			return nil, fmt.Errorf("failed to write fixes: %w", err)
		}
	}

	newReport.Issues = remaining
	newReport.summarize()
	newReport.Summary.Fixed = fixed
	newReport.Summary.FixFailed = fixFailed
	return newReport, nil
}

func (s *DoctorService) checkGlobalConfig(report *DiagnosticReport) {
	if s.globalConfigPath == "" {
		return
	}

	data, err := os.ReadFile(s.globalConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return // No global config is fine
		}
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityWarning,
			Code:     CodeMalformedGlobalConfig,
			Message:  fmt.Sprintf("Cannot read global config: %v", err),
		})
		return
	}

	var cfg model.GlobalConfig
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityWarning,
			Code:     CodeMalformedGlobalConfig,
			Message:  fmt.Sprintf("Invalid TOML in global config: %v", err),
		})
		return
	}

	current := version.CurrentGlobalSchema()
	switch {
	case cfg.TallySchema == "":
		report.Issues = append(report.Issues, Issue{
			Severity:  SeverityWarning,
			Code:      CodeGlobalSchemaOutdated,
			Message:   fmt.Sprintf("Global config missing schema version, current is %s", current),
			FixAction: fmt.Sprintf("Add tally_schema = %q to %s", current, s.globalConfigPath),
		})
	case cfg.TallySchema != current:
		report.Issues = append(report.Issues, Issue{
			Severity:  SeverityWarning,
			Code:      CodeGlobalSchemaOutdated,
			Message:   fmt.Sprintf("Global config has schema %s, current is %s", cfg.TallySchema, current),
			FixAction: fmt.Sprintf("Set tally_schema = %q in %s", current, s.globalConfigPath),
		})
	}

	if err := cfg.Validate(); err != nil {
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityWarning,
			Code:     CodeInvalidGlobalConfig,
			Message:  err.Error(),
		})
	}
}

func (s *DoctorService) checkCounters(report *DiagnosticReport) {
	data, err := os.ReadFile(s.store.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		report.File.Exists = true
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityError,
			Code:     CodeUnreadableCounters,
			Message:  fmt.Sprintf("Cannot read counters file: %v", err),
		})
		return
	}
	report.File.Exists = true

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		report.Issues = append(report.Issues, Issue{
			Severity:  SeverityError,
			Code:      CodeMalformedCounters,
			Message:   fmt.Sprintf("Invalid JSON: %v", err),
			FixAction: "Repair or remove the file; tally starts empty while it cannot be parsed",
		})
		return
	}

	if schemaIssues := validateCountersDoc(doc); len(schemaIssues) > 0 {
		report.Issues = append(report.Issues, schemaIssues...)
		return
	}

	var counters []*model.Counter
	if err := json.Unmarshal(data, &counters); err != nil {
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityError,
			Code:     CodeMalformedCounters,
			Message:  fmt.Sprintf("Cannot decode counters: %v", err),
		})
		return
	}

	seen := make(map[string]int)
	for i, c := range counters {
		if c == nil {
			continue
		}
		report.File.Counters++
		pos := i + 1
		s.checkCounterID(report, c, pos, seen)
		checkCounterColor(report, c, pos)
	}
}

func (s *DoctorService) checkCounterID(report *DiagnosticReport, c *model.Counter, pos int, seen map[string]int) {
	if id.Missing(c.ID) {
		report.Issues = append(report.Issues, Issue{
			Severity:  SeverityWarning,
			Code:      CodeMissingID,
			Position:  pos,
			Message:   fmt.Sprintf("Counter %q has no ID", c.Name),
			Fixable:   true,
			FixAction: "Assign a new ID",
		})
		return
	}

	if first, dup := seen[c.ID]; dup {
		report.Issues = append(report.Issues, Issue{
			Severity:  SeverityError,
			Code:      CodeDuplicateID,
			Position:  pos,
			CounterID: c.ID,
			Message:   fmt.Sprintf("Counter %q reuses the ID of counter #%d", c.Name, first),
			Fixable:   true,
			FixAction: fmt.Sprintf("Keep the ID on counter #%d, assign a new one here", first),
		})
		return
	}
	seen[c.ID] = pos
}

func checkCounterColor(report *DiagnosticReport, c *model.Counter, pos int) {
	name := c.ColorName
	switch {
	case strings.TrimSpace(name) == "":
		report.Issues = append(report.Issues, Issue{
			Severity:  SeverityWarning,
			Code:      CodeMissingColor,
			Position:  pos,
			CounterID: c.ID,
			Message:   fmt.Sprintf("Counter %q has no color", c.Name),
			Fixable:   true,
			FixAction: fmt.Sprintf("Set color to %s", model.DefaultColorName),
		})
	case !model.IsKnownColor(name):
		report.Issues = append(report.Issues, Issue{
			Severity:  SeverityWarning,
			Code:      CodeUnknownColor,
			Position:  pos,
			CounterID: c.ID,
			Message:   fmt.Sprintf("Counter %q has unknown color %q", c.Name, c.ColorName),
			Fixable:   true,
			FixAction: fmt.Sprintf("Set color to %s", model.DefaultColorName),
		})
	case strings.TrimSpace(c.ColorHex) != "" && !strings.EqualFold(c.ColorHex, model.ColorHex(name)):
		report.Issues = append(report.Issues, Issue{
			Severity:  SeverityWarning,
			Code:      CodeHexMismatch,
			Position:  pos,
			CounterID: c.ID,
			Message:   fmt.Sprintf("Counter %q stores %s for %s, palette has %s", c.Name, c.ColorHex, name, model.ColorHex(name)),
			Fixable:   true,
			FixAction: fmt.Sprintf("Set colorHex to %s", model.ColorHex(name)),
		})
	}
}

func validateCountersDoc(doc any) []Issue {
	schema, err := compileCountersSchema()
	if err != nil {
		return []Issue{{
			Severity: SeverityError,
			Code:     CodeSchemaViolation,
			Message:  fmt.Sprintf("Cannot compile counters schema: %v", err),
		}}
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Issue{{Severity: SeverityError, Code: CodeSchemaViolation, Message: err.Error()}}
	}

	var issues []Issue
	collectSchemaIssues(&issues, ve)
	return issues
}

func collectSchemaIssues(issues *[]Issue, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		*issues = append(*issues, Issue{
			Severity: SeverityError,
			Code:     CodeSchemaViolation,
			Position: positionFromPointer(err.InstanceLocation),
			Message:  fmt.Sprintf("%s: %s", location, err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaIssues(issues, cause)
	}
}

// positionFromPointer turns "/3/value" into 4. Returns 0 for pointers that
// do not start with an array index.
func positionFromPointer(ptr string) int {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	head, _, _ := strings.Cut(ptr, "/")
	n := 0
	for _, r := range head {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	if head == "" {
		return 0
	}
	return n + 1
}

// loadRaw decodes the file keeping null entries so positions line up with
// the ones reported by Diagnose.
func (s *DoctorService) loadRaw() ([]*model.Counter, error) {
	data, err := os.ReadFile(s.store.Path())
	if err != nil {
		return nil, err
	}
	var counters []*model.Counter
	if err := json.Unmarshal(data, &counters); err != nil {
		return nil, err
	}
	return counters, nil
}

func applyFix(counters []*model.Counter, issue Issue, taken map[string]bool) error {
	if issue.Position < 1 || issue.Position > len(counters) || counters[issue.Position-1] == nil {
		return fmt.Errorf("counter #%d no longer exists", issue.Position)
	}
	c := counters[issue.Position-1]

	switch issue.Code {
	case CodeMissingID, CodeDuplicateID:
		c.ID = freshID(taken)
		taken[c.ID] = true
	case CodeMissingColor, CodeUnknownColor:
		c.SetColor(model.DefaultColorName)
	case CodeHexMismatch:
		c.ColorHex = model.ColorHex(c.ColorName)
	default:
		return fmt.Errorf("no automatic fix for %s", issue.Code)
	}
	return nil
}

func compact(counters []*model.Counter) []*model.Counter {
	out := make([]*model.Counter, 0, len(counters))
	for _, c := range counters {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
