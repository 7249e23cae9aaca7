// Package vcard renders a contact record as a vCard 3.0 payload.
package vcard

import (
	"strings"

	"github.com/wolfman30/qr-contact-links/internal/contact"
)

const crlf = "\r\n"

// Positional property slots. Index 0 is the primary value; entries past the
// last slot are not emitted.
var (
	emailSlots = []string{
		"EMAIL;TYPE=INTERNET,PREF",
		"EMAIL;TYPE=INTERNET,WORK",
		"EMAIL;TYPE=INTERNET,HOME",
	}
	phoneSlots = []string{
		"TEL;TYPE=CELL",
		"TEL;TYPE=WORK,VOICE",
		"TEL;TYPE=HOME,VOICE",
	}
)

// Encode renders rec as vCard 3.0 text with CRLF line endings. The output
// depends only on rec. Encode does not validate: a record without emails
// simply has no EMAIL line.
func Encode(rec contact.Record) string {
	var b strings.Builder

	writeLine(&b, "BEGIN", "VCARD")
	writeLine(&b, "VERSION", "3.0")
	writeLine(&b, "FN", escape(rec.FullName()))
	writeLine(&b, "N", structured(rec.LastName, rec.FirstName, "", "", ""))

	if rec.Organization != "" {
		writeLine(&b, "ORG", escape(rec.Organization))
	}
	if rec.JobTitle != "" {
		writeLine(&b, "TITLE", escape(rec.JobTitle))
	}

	writeSlots(&b, emailSlots, rec.Emails)
	writeSlots(&b, phoneSlots, rec.Phones)

	if addr := rec.Address; !addr.IsZero() {
		// Post office box and extended address are always blank.
		writeLine(&b, "ADR;TYPE=HOME", structured("", "", addr.Street, addr.City, addr.State, addr.PostalCode, addr.Country))
	}

	if len(rec.Websites) > 0 {
		writeLine(&b, "URL;TYPE=WORK", uri(rec.Websites[0]))

		// Additional websites have no structured slot; they go in as plain
		// URL lines right before END:VCARD, in order.
		for _, site := range rec.Websites[1:] {
			writeLine(&b, "URL", uri(site))
		}
	}

	writeLine(&b, "END", "VCARD")
	return b.String()
}

func writeSlots(b *strings.Builder, slots, values []string) {
	for i, v := range values {
		if i >= len(slots) {
			return
		}
		writeLine(b, slots[i], escape(v))
	}
}

func writeLine(b *strings.Builder, property, value string) {
	b.WriteString(property)
	b.WriteByte(':')
	b.WriteString(value)
	b.WriteString(crlf)
}

// structured joins escaped components with ';'. Empty components keep their slot.
func structured(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = escape(p)
	}
	return strings.Join(escaped, ";")
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", `\,`,
	";", `\;`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
)

// escape applies vCard 3.0 TEXT escaping.
func escape(s string) string {
	return textEscaper.Replace(s)
}

var lineBreaks = strings.NewReplacer("\r", "", "\n", "")

// uri normalizes a website for a URI-typed value. URIs are not TEXT-escaped,
// but line breaks would end the property line.
func uri(s string) string {
	return lineBreaks.Replace(contact.NormalizeWebsite(s))
}
