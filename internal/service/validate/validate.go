package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/sup/internal/models"
	"github.com/nkiryanov/sup/internal/objectid"
)

type Kind int

const (
	MissingField Kind = iota + 1
	IncorrectFieldType
)

// FieldError is the only validation failure the caller sees
// It always points to one field: the first violation found
type FieldError struct {
	Kind  Kind
	Field string
}

func (e *FieldError) Error() string {
	switch e.Kind {
	case MissingField:
		return "Missing field: " + e.Field
	default:
		return "Incorrect field type: " + e.Field
	}
}

// DecodeError means body is not a JSON object at all
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("Failed to parse JSON: %s", e.Err.Error())
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type Mode int

const (
	// Creating user with POST: password is required
	ForCreate Mode = iota

	// Replacing user with PUT: password may be omitted
	ForReplace
)

// Candidate user as sent by client
// Pointers keep the difference between absent and empty value
type UserCandidate struct {
	Username *string
	ID       *string
	Password *string
}

// Rule for one body key. Rules are checked in slice order and the first violation wins
type fieldRule struct {
	key   string
	tag   string
	field func(c *UserCandidate) **string
}

func userRules(mode Mode) []fieldRule {
	passwordTag := "omitnil"
	if mode == ForCreate {
		passwordTag = "required,min=1"
	}

	return []fieldRule{
		{key: "username", tag: "required,min=1", field: func(c *UserCandidate) **string { return &c.Username }},
		{key: "_id", tag: "omitnil,objectid", field: func(c *UserCandidate) **string { return &c.ID }},
		{key: "password", tag: passwordTag, field: func(c *UserCandidate) **string { return &c.Password }},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	configureValidator(v)
	return v
}

func configureValidator(v *validator.Validate) {
	if err := v.RegisterValidation("objectid", validateObjectID); err != nil {
		panic(fmt.Sprintf("validate: register objectid tag: %v", err))
	}
}

func validateObjectID(fl validator.FieldLevel) bool {
	return objectid.IsValid(fl.Field().String())
}

// User decodes and validates user candidate
// Keys are matched exactly. For each key presence and type are checked before the next key
// Returns *FieldError for invalid fields and *DecodeError for malformed body
func User(data []byte, mode Mode) (models.UserFields, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.UserFields{}, &DecodeError{Err: err}
	}

	var c UserCandidate
	for _, rule := range userRules(mode) {
		value, ok := raw[rule.key]
		if ok {
			s, err := stringValue(value)
			if err != nil {
				return models.UserFields{}, &FieldError{Kind: IncorrectFieldType, Field: rule.key}
			}
			*rule.field(&c) = &s
		}

		if err := checkField(rule, *rule.field(&c)); err != nil {
			return models.UserFields{}, err
		}
	}

	return fields(c)
}

// Candidate validates already decoded candidate
func Candidate(c UserCandidate, mode Mode) (models.UserFields, error) {
	for _, rule := range userRules(mode) {
		if err := checkField(rule, *rule.field(&c)); err != nil {
			return models.UserFields{}, err
		}
	}

	return fields(c)
}

func checkField(rule fieldRule, value *string) error {
	err := validate.Var(value, rule.tag)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}

	switch errs[0].Tag() {
	case "required", "min":
		return &FieldError{Kind: MissingField, Field: rule.key}
	default:
		return &FieldError{Kind: IncorrectFieldType, Field: rule.key}
	}
}

// JSON null is a present value of the wrong type, not an absent one
func stringValue(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", errNotString
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

var errNotString = errors.New("value is not a string")

func fields(c UserCandidate) (models.UserFields, error) {
	f := models.UserFields{
		Username: *c.Username,
		Password: c.Password,
	}

	if c.ID != nil {
		// Shape already checked by 'objectid' tag
		id, err := objectid.Parse(*c.ID)
		if err != nil {
			return models.UserFields{}, &FieldError{Kind: IncorrectFieldType, Field: "_id"}
		}
		f.ID = &id
	}

	return f, nil
}
