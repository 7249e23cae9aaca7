package contact

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form is the raw contact form as submitted, one slice entry per rendered
// input. Values are untrimmed and may be empty.
type Form struct {
	FirstName    string   `json:"firstName" validate:"required"`
	LastName     string   `json:"lastName" validate:"required"`
	Emails       []string `json:"emails" validate:"min=1,dive,email"`
	Phones       []string `json:"phones" validate:"min=1,dive,phone"`
	Websites     []string `json:"websites" validate:"dive,website"`
	Organization string   `json:"organization"`
	JobTitle     string   `json:"jobTitle"`
	Address      Address  `json:"address"`
}

var (
	phonePattern   = regexp.MustCompile(`^[+\d\s()-]+$`)
	websitePattern = regexp.MustCompile(`(?i)^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by the names used in the query string.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "website", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || websitePattern.MatchString(s)
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("contact: register %s validation: %v", tag, err))
	}
}

// ParseForm reads a submitted HTML form. Repeated inputs keep document order.
func ParseForm(values url.Values) Form {
	return Form{
		FirstName:    values.Get("firstName"),
		LastName:     values.Get("lastName"),
		Emails:       values["email"],
		Phones:       values["phone"],
		Websites:     values["website"],
		Organization: values.Get("organization"),
		JobTitle:     values.Get("jobTitle"),
		Address: Address{
			Street:     values.Get("street"),
			City:       values.Get("city"),
			State:      values.Get("state"),
			PostalCode: values.Get("postalCode"),
			Country:    values.Get("country"),
		},
	}
}

// Clean trims the form, drops blank list entries, validates what remains and
// builds the record. Failures are reported as *ValidationError.
func (f Form) Clean() (Record, error) {
	trimmed := f.Trimmed()

	if err := validate.Struct(trimmed); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return Record{}, toValidationError(fieldErrs)
		}
		return Record{}, fmt.Errorf("contact: validate form: %w", err)
	}

	rec := Record{
		FirstName:    trimmed.FirstName,
		LastName:     trimmed.LastName,
		Emails:       trimmed.Emails,
		Phones:       trimmed.Phones,
		Organization: trimmed.Organization,
		JobTitle:     trimmed.JobTitle,
	}
	for _, w := range trimmed.Websites {
		rec.Websites = append(rec.Websites, NormalizeWebsite(w))
	}
	if addr := trimmed.Address; !addr.IsZero() {
		rec.Address = &addr
	}
	return rec, nil
}

// Trimmed returns the form with every value trimmed and blank list entries
// removed. Field error indexes refer to positions in the trimmed lists.
func (f Form) Trimmed() Form {
	return Form{
		FirstName:    strings.TrimSpace(f.FirstName),
		LastName:     strings.TrimSpace(f.LastName),
		Emails:       compact(f.Emails),
		Phones:       compact(f.Phones),
		Websites:     compact(f.Websites),
		Organization: strings.TrimSpace(f.Organization),
		JobTitle:     strings.TrimSpace(f.JobTitle),
		Address: Address{
			Street:     strings.TrimSpace(f.Address.Street),
			City:       strings.TrimSpace(f.Address.City),
			State:      strings.TrimSpace(f.Address.State),
			PostalCode: strings.TrimSpace(f.Address.PostalCode),
			Country:    strings.TrimSpace(f.Address.Country),
		},
	}
}

// compact trims each value and drops blanks. It returns nil when nothing is left.
func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func toValidationError(errs validator.ValidationErrors) *ValidationError {
	verr := &ValidationError{Fields: make([]FieldError, 0, len(errs))}
	for _, fe := range errs {
		verr.Fields = append(verr.Fields, FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return verr
}

var fieldLabels = map[string]string{
	"firstName": "First name",
	"lastName":  "Last name",
	"Emails":    "email",
	"Phones":    "phone",
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fieldLabels[fe.Field()] + " is required"
	case "min":
		return "At least one " + fieldLabels[fe.StructField()] + " is required"
	case "email":
		return "Invalid email address"
	case "phone":
		return "Invalid phone number format"
	case "website":
		return "Invalid URL format"
	default:
		return "Invalid value"
	}
}
