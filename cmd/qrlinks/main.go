package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/wolfman30/qr-contact-links/internal/contact"
	"github.com/wolfman30/qr-contact-links/internal/pages"
	"github.com/wolfman30/qr-contact-links/internal/qrcode"
	"github.com/wolfman30/qr-contact-links/internal/urlcodec"
	"github.com/wolfman30/qr-contact-links/internal/vcard"
	"github.com/wolfman30/qr-contact-links/pkg/logging"
)

var version = "dev"

// CLI is the top-level command structure for qrlinks.
type CLI struct {
	Version  kong.VersionFlag `help:"Show version." short:"V"`
	LogLevel string           `help:"Log level for diagnostics on stderr." default:"warn" env:"LOG_LEVEL"`

	Encode EncodeCmd `cmd:"" help:"Clean contact details and print the QR page link."`
	Decode DecodeCmd `cmd:"" help:"Print a contact query string as JSON."`
	VCard  VCardCmd  `cmd:"" name:"vcard" help:"Print the vCard for a contact query string."`
	PNG    PNGCmd    `cmd:"" name:"png" help:"Render the QR code for a contact query string."`
}

// EncodeCmd builds a /generate link from contact details given as flags.
type EncodeCmd struct {
	FirstName    string   `help:"First name."`
	LastName     string   `help:"Last name."`
	Email        []string `help:"Email address (repeatable)." sep:"none"`
	Phone        []string `help:"Phone number (repeatable)." sep:"none"`
	Organization string   `help:"Organization."`
	JobTitle     string   `help:"Job title."`
	Website      []string `help:"Website (repeatable)." sep:"none"`
	Street       string   `help:"Street address."`
	City         string   `help:"City."`
	State        string   `help:"State or region."`
	PostalCode   string   `help:"Postal code."`
	Country      string   `help:"Country."`
	BaseURL      string   `help:"Public base URL to prefix the link with." env:"PUBLIC_BASE_URL"`
}

// Run validates the details the same way the web form does.
func (c *EncodeCmd) Run(w io.Writer) error {
	form := contact.Form{
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Emails:       c.Email,
		Phones:       c.Phone,
		Websites:     c.Website,
		Organization: c.Organization,
		JobTitle:     c.JobTitle,
		Address: contact.Address{
			Street:     c.Street,
			City:       c.City,
			State:      c.State,
			PostalCode: c.PostalCode,
			Country:    c.Country,
		},
	}
	rec, err := form.Clean()
	if err != nil {
		return err
	}

	link := urlcodec.Path(pages.GeneratePath, rec)
	if base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"); base != "" {
		link = base + link
	}
	_, err = fmt.Fprintln(w, link)
	return err
}

// DecodeCmd prints the record behind a query string or link as JSON.
type DecodeCmd struct {
	Query string `arg:"" help:"Query string or full /generate link."`
}

func (c *DecodeCmd) Run(w io.Writer) error {
	rec, err := decodeQuery(c.Query)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(rec)
}

// VCardCmd prints the vCard for a query string or link.
type VCardCmd struct {
	Query string `arg:"" help:"Query string or full /generate link."`
}

func (c *VCardCmd) Run(w io.Writer) error {
	rec, err := decodeQuery(c.Query)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, vcard.Encode(rec))
	return err
}

// PNGCmd writes the QR image for a query string or link.
type PNGCmd struct {
	Query string `arg:"" help:"Query string or full /generate link."`
	Out   string `help:"Output file." short:"o" default:"qr-code-contact.png" type:"path"`
	Size  int    `help:"Image edge length in pixels." default:"300"`
}

func (c *PNGCmd) Run(w io.Writer, logger *logging.Logger) error {
	rec, err := decodeQuery(c.Query)
	if err != nil {
		return err
	}

	renderer := qrcode.NewRenderer(qrcode.Options{Size: c.Size, Logger: logger})
	png, err := renderer.PNG(context.Background(), vcard.Encode(rec), c.Size)
	if err != nil {
		return fmt.Errorf("png: %w", err)
	}
	if err := os.WriteFile(c.Out, png, 0o644); err != nil {
		return fmt.Errorf("png: write %s: %w", c.Out, err)
	}
	_, err = fmt.Fprintf(w, "wrote %s (%d bytes)\n", c.Out, len(png))
	return err
}

func decodeQuery(raw string) (contact.Record, error) {
	values, err := urlcodec.ParseQuery(raw)
	if err != nil {
		return contact.Record{}, err
	}
	return urlcodec.Deserialize(values)
}

// reportError prints err to w, one line per rejected field for form errors.
func reportError(w io.Writer, err error) {
	var verr *contact.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			fmt.Fprintf(w, "%s: %s\n", f.Field, f.Message)
		}
		return
	}
	if errors.Is(err, contact.ErrMissingData) {
		fmt.Fprintf(w, "error: %s\n", pages.MissingDataMessage)
		return
	}
	fmt.Fprintf(w, "error: %s\n", err)
}

func main() {
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("qrlinks"),
		kong.Description("Contact QR links from the command line."),
		kong.Vars{"version": version},
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)
	logger := logging.NewWithWriter(cli.LogLevel, os.Stderr)
	if err := ctx.Run(logger); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}
