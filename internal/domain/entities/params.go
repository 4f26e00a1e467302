package entities

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

// ParameterSet is the decoded argument object of a tool call.
type ParameterSet map[string]interface{}

// ParseParameterSet decodes a JSON argument string. An empty string yields an empty set.
func ParseParameterSet(arguments string) (ParameterSet, error) {
	if strings.TrimSpace(arguments) == "" {
		return ParameterSet{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(arguments))
	dec.UseNumber()
	var set ParameterSet
	if err := dec.Decode(&set); err != nil {
		return nil, apperrors.NewValidationError("tool arguments are not a JSON object: " + err.Error())
	}
	if set == nil {
		set = ParameterSet{}
	}
	return set, nil
}

// Primary field names per resource kind.
const (
	FieldCondition           = "condition"
	FieldMedicationStatement = "medication_statement"
	FieldProcedure           = "procedure"
)

// PrimaryField returns the free-text field that carries the coded concept of a kind.
func (k ResourceKind) PrimaryField() string {
	switch k {
	case ResourceKindCondition:
		return FieldCondition
	case ResourceKindMedicationStatement:
		return FieldMedicationStatement
	case ResourceKindProcedure:
		return FieldProcedure
	}
	return ""
}

// DateLayouts are the accepted layouts for date and dateTime fields.
var DateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// TimeChoice is a FHIR choice element such as onset[x]. At most one member is set.
type TimeChoice struct {
	DateTime string
	Age      *Age
	Period   *Period
	String   string
}

// IsZero reports whether no member is set.
func (c TimeChoice) IsZero() bool {
	return c.DateTime == "" && c.Age == nil && c.Period == nil && c.String == ""
}

// ConditionParams are the recognised arguments of extract_fhir_condition.
type ConditionParams struct {
	Condition          string
	ClinicalStatus     string
	VerificationStatus string
	Category           []string
	Severity           string
	BodySite           []string
	Onset              TimeChoice
	Abatement          TimeChoice
	RecordedDate       string
	Stage              []string
	Evidence           []string
	Note               []string
}

// MedicationStatementParams are the recognised arguments of extract_fhir_medication_statement.
type MedicationStatementParams struct {
	MedicationStatement string
	Status              string
	StatusReason        []string
	Category            string
	Effective           TimeChoice
	DateAsserted        string
	ReasonCode          []string
	Dosage              []string
	Note                []string
}

// ProcedureParams are the recognised arguments of extract_fhir_procedure.
type ProcedureParams struct {
	Procedure    string
	Status       string
	StatusReason string
	Category     string
	Performed    TimeChoice
	BodySite     []string
	ReasonCode   []string
	Outcome      string
	Complication []string
	FollowUp     []string
	Note         []string
}

var conditionFields = []string{
	FieldCondition, "clinicalStatus", "verificationStatus", "category", "severity", "bodySite",
	"onsetDateTime", "onsetAge", "onsetPeriod", "onsetString",
	"abatementDateTime", "abatementAge", "abatementPeriod", "abatementString",
	"recordedDate", "stage", "evidence", "note",
}

var medicationStatementFields = []string{
	FieldMedicationStatement, "status", "statusReason", "category",
	"effectiveDateTime", "effectivePeriod", "dateAsserted", "reasonCode", "dosage", "note",
}

var procedureFields = []string{
	FieldProcedure, "status", "statusReason", "category",
	"performedDateTime", "performedPeriod", "performedString", "performedAge",
	"bodySite", "reasonCode", "outcome", "complication", "followUp", "note",
}

// RecognisedFields returns the allow-list of argument names for a kind.
func (k ResourceKind) RecognisedFields() []string {
	switch k {
	case ResourceKindCondition:
		return conditionFields
	case ResourceKindMedicationStatement:
		return medicationStatementFields
	case ResourceKindProcedure:
		return procedureFields
	}
	return nil
}

// PrimaryText returns the trimmed primary free text of a kind, or a MISSING_FIELD error.
func (s ParameterSet) PrimaryText(kind ResourceKind) (string, error) {
	field := kind.PrimaryField()
	raw, ok := s[field]
	if !ok || raw == nil {
		return "", apperrors.NewMissingFieldError(field)
	}
	text, ok := raw.(string)
	if !ok {
		return "", apperrors.NewValidationError(fmt.Sprintf("%s must be a string", field))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.NewMissingFieldError(field)
	}
	return text, nil
}

// DecodeCondition maps a parameter set onto ConditionParams.
func DecodeCondition(set ParameterSet) (*ConditionParams, []FieldIssue, error) {
	primary, err := set.PrimaryText(ResourceKindCondition)
	if err != nil {
		return nil, nil, err
	}
	d := newParamDecoder(set, ResourceKindCondition)
	p := &ConditionParams{
		Condition:          primary,
		ClinicalStatus:     d.text("clinicalStatus"),
		VerificationStatus: d.text("verificationStatus"),
		Category:           d.list("category"),
		Severity:           d.text("severity"),
		BodySite:           d.list("bodySite"),
		Onset:              d.choice("onset", true),
		Abatement:          d.choice("abatement", true),
		RecordedDate:       d.date("recordedDate"),
		Stage:              d.list("stage"),
		Evidence:           d.list("evidence"),
		Note:               d.list("note"),
	}
	return p, d.finish(), nil
}

// DecodeMedicationStatement maps a parameter set onto MedicationStatementParams.
func DecodeMedicationStatement(set ParameterSet) (*MedicationStatementParams, []FieldIssue, error) {
	primary, err := set.PrimaryText(ResourceKindMedicationStatement)
	if err != nil {
		return nil, nil, err
	}
	d := newParamDecoder(set, ResourceKindMedicationStatement)
	p := &MedicationStatementParams{
		MedicationStatement: primary,
		Status:              d.text("status"),
		StatusReason:        d.list("statusReason"),
		Category:            d.text("category"),
		Effective:           d.choice("effective", false),
		DateAsserted:        d.date("dateAsserted"),
		ReasonCode:          d.list("reasonCode"),
		Dosage:              d.list("dosage"),
		Note:                d.list("note"),
	}
	return p, d.finish(), nil
}

// DecodeProcedure maps a parameter set onto ProcedureParams.
func DecodeProcedure(set ParameterSet) (*ProcedureParams, []FieldIssue, error) {
	primary, err := set.PrimaryText(ResourceKindProcedure)
	if err != nil {
		return nil, nil, err
	}
	d := newParamDecoder(set, ResourceKindProcedure)
	p := &ProcedureParams{
		Procedure:    primary,
		Status:       d.text("status"),
		StatusReason: d.text("statusReason"),
		Category:     d.text("category"),
		Performed:    d.choice("performed", true),
		BodySite:     d.list("bodySite"),
		ReasonCode:   d.list("reasonCode"),
		Outcome:      d.text("outcome"),
		Complication: d.list("complication"),
		FollowUp:     d.list("followUp"),
		Note:         d.list("note"),
	}
	return p, d.finish(), nil
}

type paramDecoder struct {
	set    ParameterSet
	kind   ResourceKind
	issues []FieldIssue
}

func newParamDecoder(set ParameterSet, kind ResourceKind) *paramDecoder {
	return &paramDecoder{set: set, kind: kind}
}

func (d *paramDecoder) issue(field, format string, args ...interface{}) {
	d.issues = append(d.issues, FieldIssue{Field: field, Reason: fmt.Sprintf(format, args...)})
}

// lookup returns the value of a field when it is present and not null.
func (d *paramDecoder) lookup(field string) (interface{}, bool) {
	v, ok := d.set[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (d *paramDecoder) text(field string) string {
	v, ok := d.lookup(field)
	if !ok {
		return ""
	}
	s, ok := scalarString(v)
	if !ok {
		d.issue(field, "expected a string, got %s", describe(v))
		return ""
	}
	return s
}

func (d *paramDecoder) list(field string) []string {
	v, ok := d.lookup(field)
	if !ok {
		return nil
	}
	if s, ok := scalarString(v); ok {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	items, ok := v.([]interface{})
	if !ok {
		d.issue(field, "expected a string or a list of strings, got %s", describe(v))
		return nil
	}
	var out []string
	for i, item := range items {
		s, ok := scalarString(item)
		if !ok {
			d.issue(field, "item %d: expected a string, got %s", i, describe(item))
			continue
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (d *paramDecoder) date(field string) string {
	v, ok := d.lookup(field)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.issue(field, "expected a date string, got %s", describe(v))
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !IsDate(s) {
		d.issue(field, "%q is not a recognised date", s)
		return ""
	}
	return s
}

func (d *paramDecoder) period(field string) *Period {
	v, ok := d.lookup(field)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		d.issue(field, "expected an object with start and end, got %s", describe(v))
		return nil
	}
	start, hasStart := m["start"].(string)
	end, hasEnd := m["end"].(string)
	if !hasStart || !hasEnd {
		d.issue(field, "period requires both start and end")
		return nil
	}
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if !IsDate(start) || !IsDate(end) {
		d.issue(field, "period bounds must be dates")
		return nil
	}
	return &Period{Start: start, End: end}
}

func (d *paramDecoder) age(field string) *Age {
	v, ok := d.lookup(field)
	if !ok {
		return nil
	}
	if m, ok := v.(map[string]interface{}); ok {
		v = m["value"]
	}
	n, ok := number(v)
	if !ok || n < 0 {
		d.issue(field, "expected a non-negative number of years, got %s", describe(v))
		return nil
	}
	return YearsAge(n)
}

// choice decodes a prefix[x] element. The first valid member in DateTime, Age, Period,
// String order wins; later members are reported as conflicting.
func (d *paramDecoder) choice(prefix string, withAgeAndString bool) TimeChoice {
	var c TimeChoice
	var chosen string
	take := func(field string, set func() bool) {
		if _, ok := d.lookup(field); !ok {
			return
		}
		if chosen != "" {
			d.issue(field, "conflicts with %s", chosen)
			return
		}
		if set() {
			chosen = field
		}
	}

	take(prefix+"DateTime", func() bool {
		c.DateTime = d.date(prefix + "DateTime")
		return c.DateTime != ""
	})
	if withAgeAndString {
		take(prefix+"Age", func() bool {
			c.Age = d.age(prefix + "Age")
			return c.Age != nil
		})
	}
	take(prefix+"Period", func() bool {
		c.Period = d.period(prefix + "Period")
		return c.Period != nil
	})
	if withAgeAndString {
		take(prefix+"String", func() bool {
			c.String = d.text(prefix + "String")
			return c.String != ""
		})
	}
	return c
}

// finish reports arguments outside the allow-list and returns all collected issues.
func (d *paramDecoder) finish() []FieldIssue {
	known := make(map[string]struct{}, len(d.kind.RecognisedFields()))
	for _, f := range d.kind.RecognisedFields() {
		known[f] = struct{}{}
	}
	var unknown []string
	for k := range d.set {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		d.issue(k, "not recognised for %s", d.kind)
	}
	return d.issues
}

// IsDate reports whether s matches one of DateLayouts.
func IsDate(s string) bool {
	for _, layout := range DateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// number accepts finite numbers only. NaN and infinities cannot be encoded as JSON.
func number(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func describe(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}:
		return "an object"
	case []interface{}:
		return "a list"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number, float64, int:
		return "a number"
	}
	return fmt.Sprintf("%T", v)
}
