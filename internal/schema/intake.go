package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"grievance/internal/model"

	js "github.com/santhosh-tekuri/jsonschema/v5"
)

// complaintIntakeSchema bounds the complaint creation payload before it
// reaches the service layer. Unknown fields are rejected so typos like
// "trackingNo" fail loudly instead of silently dropping data.
const complaintIntakeSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"additionalProperties": false,
	"required": ["serviceType", "complaintType", "email"],
	"properties": {
		"serviceType":    {"type": "string", "minLength": 1, "maxLength": 100},
		"complaintType":  {"type": "string", "minLength": 1, "maxLength": 100},
		"complaintText":  {"type": "string", "maxLength": 5000},
		"email":          {"type": "string", "format": "email", "maxLength": 254},
		"trackingNumber": {"type": "string", "maxLength": 50},
		"incidentDate":   {"type": "string", "format": "date-time"},
		"city":           {"type": "string", "maxLength": 100},
		"pincode":        {"type": "string", "pattern": "^[1-9][0-9]{5}$"}
	}
}`

// Intake validates raw complaint creation payloads.
type Intake struct {
	schema *js.Schema
}

// NewIntake compiles the intake schema once at startup.
func NewIntake() (*Intake, error) {
	c := js.NewCompiler()
	c.AssertFormat = true
	if err := c.AddResource("mem://intake.json", strings.NewReader(complaintIntakeSchema)); err != nil {
		return nil, fmt.Errorf("failed to add intake schema: %w", err)
	}
	compiled, err := c.Compile("mem://intake.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile intake schema: %w", err)
	}
	return &Intake{schema: compiled}, nil
}

// Validate checks a raw JSON body against the intake schema. Failures
// carry the domain validation sentinel with the schema detail attached.
func (i *Intake) Validate(body []byte) error {
	var value interface{}
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("invalid JSON: %w", model.ErrValidation)
	}
	if err := i.schema.Validate(value); err != nil {
		return fmt.Errorf("%v: %w", summarize(err), model.ErrValidation)
	}
	return nil
}

// summarize flattens a jsonschema error tree into its most specific
// leaf message.
func summarize(err error) string {
	ve, ok := err.(*js.ValidationError)
	if !ok {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := strings.TrimPrefix(ve.InstanceLocation, "/")
	if loc == "" {
		return ve.Message
	}
	return fmt.Sprintf("%s: %s", loc, ve.Message)
}
