package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/qr-contact-links/internal/contact"
	"github.com/wolfman30/qr-contact-links/pkg/logging"
)

const johnQuery = "firstName=John&lastName=Doe&email0=j%40x.com&phone0=%2B1+555-0100"

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	k, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	kctx, err := k.Parse(args)
	require.NoError(t, err)
	return &cli, kctx
}

func TestEncodeCommandParsesRepeatedFlags(t *testing.T) {
	cli, kctx := parse(t, "encode",
		"--first-name", "John", "--last-name", "Doe",
		"--email", "j@x.com", "--phone", "+1 555-0100",
		"--street", "1 Main St, Apt 2",
	)

	assert.Equal(t, "encode", kctx.Command())
	assert.Equal(t, []string{"j@x.com"}, cli.Encode.Email)
	assert.Equal(t, "1 Main St, Apt 2", cli.Encode.Street)
}

func TestEncodeCommandPrintsLink(t *testing.T) {
	t.Setenv("PUBLIC_BASE_URL", "")
	cli, _ := parse(t, "encode",
		"--first-name", "John", "--last-name", "Doe",
		"--email", "j@x.com", "--phone", "+1 555-0100",
	)

	var out bytes.Buffer
	require.NoError(t, cli.Encode.Run(&out))
	assert.Equal(t, "/generate?"+johnQuery+"\n", out.String())
}

func TestEncodeCommandWithBaseURL(t *testing.T) {
	cli, _ := parse(t, "encode",
		"--first-name", "John", "--last-name", "Doe",
		"--email", "j@x.com", "--phone", "+1 555-0100",
		"--base-url", "https://qr.example.com/",
	)

	var out bytes.Buffer
	require.NoError(t, cli.Encode.Run(&out))
	assert.Equal(t, "https://qr.example.com/generate?"+johnQuery+"\n", out.String())
}

func TestEncodeCommandReportsFieldErrors(t *testing.T) {
	cli, _ := parse(t, "encode", "--first-name", "John", "--email", "nope", "--phone", "555")

	err := cli.Encode.Run(&bytes.Buffer{})
	var verr *contact.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)

	var report bytes.Buffer
	reportError(&report, err)
	assert.Contains(t, report.String(), "lastName: Last name is required\n")
	assert.Contains(t, report.String(), "emails[0]: Invalid email address\n")
}

func TestVCardCommand(t *testing.T) {
	cli, kctx := parse(t, "vcard", "https://qr.example.com/generate?"+johnQuery)
	assert.Equal(t, "vcard <query>", kctx.Command())

	var out bytes.Buffer
	require.NoError(t, cli.VCard.Run(&out))
	assert.True(t, strings.HasPrefix(out.String(), "BEGIN:VCARD\r\n"))
	assert.Contains(t, out.String(), "FN:John Doe\r\n")
}

func TestDecodeCommandPrintsJSON(t *testing.T) {
	cli, kctx := parse(t, "decode", "?"+johnQuery+"&organization=Acme&website0=https%3A%2F%2Facme.example.com")
	assert.Equal(t, "decode <query>", kctx.Command())

	var out bytes.Buffer
	require.NoError(t, cli.Decode.Run(&out))

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "John", got["firstName"])
	assert.Equal(t, "Doe", got["lastName"])
	assert.Equal(t, []any{"j@x.com"}, got["emails"])
	assert.Equal(t, []any{"+1 555-0100"}, got["phones"])
	assert.Equal(t, "Acme", got["organization"])
	assert.Equal(t, []any{"https://acme.example.com"}, got["websites"])
	assert.NotContains(t, got, "address")
	assert.NotContains(t, got, "jobTitle")
}

func TestDecodeCommandIncludesAddress(t *testing.T) {
	cli, _ := parse(t, "decode", johnQuery+"&city=Springfield&postalCode=12345")

	var out bytes.Buffer
	require.NoError(t, cli.Decode.Run(&out))
	assert.Contains(t, out.String(), `"address":{"city":"Springfield","postalCode":"12345"}`)
	assert.NotContains(t, out.String(), `"websites"`)
}

func TestDecodeCommandMissingData(t *testing.T) {
	cli, _ := parse(t, "decode", "lastName=Doe")
	require.ErrorIs(t, cli.Decode.Run(&bytes.Buffer{}), contact.ErrMissingData)
}

func TestVCardCommandMissingData(t *testing.T) {
	cli, _ := parse(t, "vcard", "?firstName=John")

	err := cli.VCard.Run(&bytes.Buffer{})
	require.ErrorIs(t, err, contact.ErrMissingData)

	var report bytes.Buffer
	reportError(&report, err)
	assert.Equal(t, "error: Invalid or missing contact data in URL\n", report.String())
}

func TestPNGCommandWritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "contact.png")
	cli, _ := parse(t, "png", johnQuery, "--out", out, "--size", "256")

	var stdout bytes.Buffer
	require.NoError(t, cli.PNG.Run(&stdout, logging.NewWithWriter("error", &bytes.Buffer{})))
	assert.Contains(t, stdout.String(), "wrote ")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestNoCommandIsAnError(t *testing.T) {
	var cli CLI
	k, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)

	_, err = k.Parse([]string{})
	assert.Error(t, err)
}
