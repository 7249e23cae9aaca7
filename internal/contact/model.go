// Package contact defines the contact record shared by the form, the URL
// codec and the vCard encoder, and turns raw form input into a clean record.
package contact

import (
	"regexp"
	"strings"
)

// Record is one contact's details as carried between the form and the QR page.
// Optional strings are empty when absent and optional slices are nil.
type Record struct {
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Emails       []string `json:"emails"`
	Phones       []string `json:"phones"`
	Organization string   `json:"organization,omitempty"`
	JobTitle     string   `json:"jobTitle,omitempty"`
	Websites     []string `json:"websites,omitempty"`
	Address      *Address `json:"address,omitempty"`
}

// Address is the optional postal address of a contact.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// IsZero reports whether every subfield is empty. A nil address is zero.
func (a *Address) IsZero() bool {
	if a == nil {
		return true
	}
	return a.Street == "" && a.City == "" && a.State == "" && a.PostalCode == "" && a.Country == ""
}

// FullName joins first and last name with a single space.
func (r Record) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

var schemePattern = regexp.MustCompile(`(?i)^https?://`)

// NormalizeWebsite prepends https:// to values that carry no http(s) scheme.
// Empty input stays empty.
func NormalizeWebsite(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || schemePattern.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}
