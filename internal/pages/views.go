package pages

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/wolfman30/qr-contact-links/internal/contact"
)

// listField describes one repeatable form input.
type listField struct {
	Name  string // input name, e.g. "email"
	Field string // field name used in validation errors, e.g. "emails"
	Title string
	Noun  string
	Type  string
}

var (
	emailField   = listField{Name: "email", Field: "emails", Title: "Email Addresses", Noun: "Email", Type: "email"}
	phoneField   = listField{Name: "phone", Field: "phones", Title: "Phone Numbers", Noun: "Phone", Type: "tel"}
	websiteField = listField{Name: "website", Field: "websites", Title: "Websites", Noun: "Website", Type: "text"}
)

var listFields = map[string]listField{
	emailField.Name:   emailField,
	phoneField.Name:   phoneField,
	websiteField.Name: websiteField,
}

type inputView struct {
	Type        string
	Name        string
	Value       string
	Error       string
	Removable   bool
	RemoveValue string
}

type listView struct {
	Title     string
	Noun      string
	AddAction string
	Error     string
	Inputs    []inputView
}

// formErrorKey holds a message about the form as a whole.
const formErrorKey = "form"

type formView struct {
	FirstName    string
	LastName     string
	Organization string
	JobTitle     string
	Address      contact.Address
	Lists        []listView
	Websites     listView
	Errors       map[string]string
}

// FieldError returns the message for a top-level field, or "".
func (v formView) FieldError(field string) string {
	return v.Errors[field]
}

func newFormView(f contact.Form, errs map[string]string) formView {
	return formView{
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		Organization: f.Organization,
		JobTitle:     f.JobTitle,
		Address:      f.Address,
		Lists: []listView{
			newListView(emailField, f.Emails, errs),
			newListView(phoneField, f.Phones, errs),
		},
		Websites: newListView(websiteField, f.Websites, errs),
		Errors:   errs,
	}
}

// newListView renders at least one input. Only lists with more than one
// input offer a remove button.
func newListView(lf listField, values []string, errs map[string]string) listView {
	if len(values) == 0 {
		values = []string{""}
	}
	lv := listView{
		Title:     lf.Title,
		Noun:      lf.Noun,
		AddAction: "add-" + lf.Name,
		Error:     errs[lf.Field],
		Inputs:    make([]inputView, len(values)),
	}
	for i, v := range values {
		lv.Inputs[i] = inputView{
			Type:        lf.Type,
			Name:        lf.Name,
			Value:       v,
			Error:       errs[fmt.Sprintf("%s[%d]", lf.Field, i)],
			Removable:   len(values) > 1,
			RemoveValue: fmt.Sprintf("%s:%d", lf.Name, i),
		}
	}
	return lv
}

type qrView struct {
	Contact      contact.Record
	QRImage      template.URL
	Size         int
	PNGPath      string
	VCardPath    string
	ShareURL     string
	AddressLines []string
}

type errorView struct {
	Title   string
	Message string
}

// addressLines formats an address the way it is printed on an envelope,
// skipping empty lines.
func addressLines(a *contact.Address) []string {
	if a.IsZero() {
		return nil
	}
	var lines []string
	if a.Street != "" {
		lines = append(lines, a.Street)
	}
	locality := a.City
	if a.State != "" {
		if locality != "" {
			locality += ", "
		}
		locality += a.State
	}
	if a.PostalCode != "" {
		locality = strings.TrimSpace(locality + " " + a.PostalCode)
	}
	if locality != "" {
		lines = append(lines, locality)
	}
	if a.Country != "" {
		lines = append(lines, a.Country)
	}
	return lines
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
