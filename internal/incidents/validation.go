package incidents

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bissquit/incident-tracker/internal/domain"
	"github.com/go-playground/validator/v10"
)

// fieldRule declares how one request field is validated.
type fieldRule struct {
	name     string
	required bool
	nullable bool
	tag      string // validator tag applied to the string value
}

const (
	titleTag    = "min=1,max=255"
	serviceTag  = "min=1"
	severityTag = "oneof=SEV1 SEV2 SEV3 SEV4"
	statusTag   = "oneof=OPEN MITIGATED RESOLVED"
)

var createRules = []fieldRule{
	{name: "title", required: true, tag: titleTag},
	{name: "service", required: true, tag: serviceTag},
	{name: "severity", required: true, tag: severityTag},
	{name: "status", tag: statusTag},
	{name: "owner", nullable: true},
	{name: "summary", nullable: true},
}

var updateRules = []fieldRule{
	{name: "title", tag: titleTag},
	{name: "service", tag: serviceTag},
	{name: "severity", tag: severityTag},
	{name: "status", tag: statusTag},
	{name: "owner", nullable: true},
	{name: "summary", nullable: true},
}

// forbiddenUpdateFields are server-managed and may not appear in an update body.
var forbiddenUpdateFields = []string{"id", "createdAt", "updatedAt"}

// CreateInput is a validated create request.
type CreateInput struct {
	Title    string
	Service  string
	Severity domain.Severity
	Status   domain.IncidentStatus
	Owner    *string
	Summary  *string
}

// fieldValue is a decoded field: present, possibly null, otherwise a string.
type fieldValue struct {
	present bool
	null    bool
	value   string
}

// RequestValidator decodes and validates incident request bodies.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a request validator.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Create validates a create request body.
func (rv *RequestValidator) Create(body []byte) (CreateInput, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return CreateInput{}, err
	}

	verr := &ValidationError{}
	rejectUnknown(raw, createRules, nil, verr)
	values := rv.apply(raw, createRules, verr)
	if !verr.empty() {
		return CreateInput{}, verr
	}

	in := CreateInput{
		Title:    values["title"].value,
		Service:  values["service"].value,
		Severity: domain.Severity(values["severity"].value),
		Status:   domain.IncidentStatusOpen,
		Owner:    values["owner"].ptr(),
		Summary:  values["summary"].ptr(),
	}
	if v := values["status"]; v.present {
		in.Status = domain.IncidentStatus(v.value)
	}

	return in, nil
}

// Update validates a partial update body.
func (rv *RequestValidator) Update(body []byte) (Patch, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return Patch{}, err
	}

	verr := &ValidationError{}
	rejectUnknown(raw, updateRules, forbiddenUpdateFields, verr)
	values := rv.apply(raw, updateRules, verr)
	if !verr.empty() {
		return Patch{}, verr
	}

	var p Patch
	if v := values["title"]; v.present {
		p.Title = &v.value
	}
	if v := values["service"]; v.present {
		p.Service = &v.value
	}
	if v := values["severity"]; v.present {
		s := domain.Severity(v.value)
		p.Severity = &s
	}
	if v := values["status"]; v.present {
		s := domain.IncidentStatus(v.value)
		p.Status = &s
	}
	if v := values["owner"]; v.present {
		p.Owner = Nullable{Set: true, Value: v.ptr()}
	}
	if v := values["summary"]; v.present {
		p.Summary = Nullable{Set: true, Value: v.ptr()}
	}

	if p.IsEmpty() {
		return Patch{}, ErrEmptyUpdate
	}
	return p, nil
}

// apply evaluates rules against the decoded object.
func (rv *RequestValidator) apply(raw map[string]json.RawMessage, rules []fieldRule, verr *ValidationError) map[string]fieldValue {
	values := make(map[string]fieldValue, len(rules))

	for _, rule := range rules {
		msg, ok := raw[rule.name]
		if !ok {
			if rule.required {
				verr.add(rule.name, fmt.Sprintf("%s is required", rule.name))
			}
			continue
		}

		fv, err := decodeString(msg)
		if err != nil {
			verr.add(rule.name, fmt.Sprintf("%s must be a string", rule.name))
			continue
		}
		if fv.null {
			if !rule.nullable {
				verr.add(rule.name, fmt.Sprintf("%s must not be null", rule.name))
				continue
			}
			values[rule.name] = fv
			continue
		}

		if rule.tag != "" {
			if err := rv.validate.Var(fv.value, rule.tag); err != nil {
				verr.add(rule.name, describe(rule.name, err))
				continue
			}
		}
		values[rule.name] = fv
	}

	return values
}

func (fv fieldValue) ptr() *string {
	if !fv.present || fv.null {
		return nil
	}
	s := fv.value
	return &s
}

func rejectUnknown(raw map[string]json.RawMessage, rules []fieldRule, forbidden []string, verr *ValidationError) {
	known := make(map[string]bool, len(rules))
	for _, r := range rules {
		known[r.name] = true
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range forbidden {
		if _, ok := raw[k]; ok {
			verr.add(k, fmt.Sprintf("%s cannot be updated", k))
		}
	}
	for _, k := range keys {
		if !known[k] && !contains(forbidden, k) {
			verr.add(k, fmt.Sprintf("%s is not allowed", k))
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// decodeObject parses body as a single JSON object.
func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrInvalidJSON
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, ErrInvalidJSON
	}
	if dec.More() {
		return nil, ErrInvalidJSON
	}
	return raw, nil
}

func decodeString(msg json.RawMessage) (fieldValue, error) {
	trimmed := bytes.TrimSpace(msg)
	if bytes.Equal(trimmed, []byte("null")) {
		return fieldValue{present: true, null: true}, nil
	}
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return fieldValue{}, errors.New("not a string")
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return fieldValue{}, err
	}
	return fieldValue{present: true, value: s}, nil
}

// describe turns a validator failure into a readable message.
func describe(field string, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Sprintf("%s is invalid", field)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "min":
		if fe.Param() == "1" {
			return fmt.Sprintf("%s must not be empty", field)
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
