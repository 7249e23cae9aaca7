// Package urlcodec flattens a contact record into URL query parameters and
// rebuilds it on the other side of a page navigation.
//
// Keys are flat: firstName, lastName, email0.., phone0.., website0..,
// organization, jobTitle, street, city, state, postalCode, country.
package urlcodec

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/wolfman30/qr-contact-links/internal/contact"
)

const (
	keyFirstName    = "firstName"
	keyLastName     = "lastName"
	keyOrganization = "organization"
	keyJobTitle     = "jobTitle"

	prefixEmail   = "email"
	prefixPhone   = "phone"
	prefixWebsite = "website"

	keyStreet     = "street"
	keyCity       = "city"
	keyState      = "state"
	keyPostalCode = "postalCode"
	keyCountry    = "country"
)

// Serialize flattens rec into query parameters. Empty optionals are left out.
func Serialize(rec contact.Record) *Query {
	q := &Query{}
	q.Set(keyFirstName, rec.FirstName)
	q.Set(keyLastName, rec.LastName)

	setIndexed(q, prefixEmail, rec.Emails)
	setIndexed(q, prefixPhone, rec.Phones)

	setIfPresent(q, keyOrganization, rec.Organization)
	setIfPresent(q, keyJobTitle, rec.JobTitle)

	setIndexed(q, prefixWebsite, rec.Websites)

	if addr := rec.Address; addr != nil {
		setIfPresent(q, keyStreet, addr.Street)
		setIfPresent(q, keyCity, addr.City)
		setIfPresent(q, keyState, addr.State)
		setIfPresent(q, keyPostalCode, addr.PostalCode)
		setIfPresent(q, keyCountry, addr.Country)
	}
	return q
}

// Deserialize rebuilds a record from query parameters. It returns
// contact.ErrMissingData when a name is missing or no email or phone survives.
//
// Indexed keys are read from 0 upward and the sequence ends at the first
// missing index, so email0 and email2 without email1 yield one email.
func Deserialize(values url.Values) (contact.Record, error) {
	rec := contact.Record{
		FirstName: values.Get(keyFirstName),
		LastName:  values.Get(keyLastName),
		Emails:    readIndexed(values, prefixEmail),
		Phones:    readIndexed(values, prefixPhone),
	}
	if rec.FirstName == "" || rec.LastName == "" || len(rec.Emails) == 0 || len(rec.Phones) == 0 {
		return contact.Record{}, contact.ErrMissingData
	}

	rec.Organization = values.Get(keyOrganization)
	rec.JobTitle = values.Get(keyJobTitle)
	rec.Websites = readIndexed(values, prefixWebsite)

	addr := &contact.Address{
		Street:     values.Get(keyStreet),
		City:       values.Get(keyCity),
		State:      values.Get(keyState),
		PostalCode: values.Get(keyPostalCode),
		Country:    values.Get(keyCountry),
	}
	if !addr.IsZero() {
		rec.Address = addr
	}
	return rec, nil
}

// ParseQuery accepts a raw query string, optionally prefixed with "?", or a
// full URL, and returns its parameters.
func ParseQuery(raw string) (url.Values, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	return url.ParseQuery(raw)
}

// Path appends the serialized record to base, e.g. "/generate?firstName=...".
func Path(base string, rec contact.Record) string {
	return base + "?" + Serialize(rec).Encode()
}

func setIfPresent(q *Query, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setIndexed(q *Query, prefix string, values []string) {
	for i, v := range values {
		q.Set(prefix+strconv.Itoa(i), v)
	}
}

// readIndexed collects prefix0, prefix1, ... until an index is missing.
// Present but empty values are skipped without ending the sequence.
func readIndexed(values url.Values, prefix string) []string {
	var out []string
	for i := 0; ; i++ {
		key := prefix + strconv.Itoa(i)
		if !values.Has(key) {
			return out
		}
		if v := values.Get(key); v != "" {
			out = append(out, v)
		}
	}
}
