// Package validation checks user-supplied input before it reaches the engine.
package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ = uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}

	if err := validate.RegisterValidation("personname", personName); err != nil {
		panic(err)
	}
	registerTranslation("personname", "{0} may only contain letters, spaces, hyphens and apostrophes")
}

func registerTranslation(tag, msg string) {
	err := validate.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
		return ut.Add(tag, msg, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T(tag, fe.Field())
		return t
	})
	if err != nil {
		panic(err)
	}
}

// personName accepts letters with inner spaces, hyphens and apostrophes.
// Separators used in trainer ids and document paths are rejected.
func personName(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if unicode.IsLetter(r) || r == ' ' || r == '-' || r == '\'' {
			continue
		}
		return false
	}
	return true
}

// Errors maps a field name to its message
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = e[f]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Struct validates v against its validate tags, returning Errors on failure
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate input: %w", err)
	}
	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Translate(trans)
	}
	return out
}

// SignupInput is the identity a trainer signs up or logs in with
type SignupInput struct {
	FirstName string `json:"firstName" validate:"required,max=40,personname"`
	LastName  string `json:"lastName" validate:"required,max=40,personname"`
	Age       int    `json:"age" validate:"min=1,max=18"`
}

// Normalize trims surrounding whitespace from the names
func (in *SignupInput) Normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
}

// ValidateSignup normalizes and validates signup input
func ValidateSignup(in *SignupInput) error {
	in.Normalize()
	return Struct(in)
}

// SubmissionInput is one quest answer
type SubmissionInput struct {
	QuestNumber int    `json:"questNumber" validate:"min=1"`
	Answer      string `json:"answer" validate:"required,max=200"`
}

// ValidateSubmission trims and validates a quest answer
func ValidateSubmission(in *SubmissionInput) error {
	in.Answer = strings.TrimSpace(in.Answer)
	return Struct(in)
}
