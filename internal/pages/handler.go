// Package pages serves the contact form, the QR page and the downloads built
// from a contact query string.
package pages

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/wolfman30/qr-contact-links/internal/contact"
	"github.com/wolfman30/qr-contact-links/internal/observability/metrics"
	"github.com/wolfman30/qr-contact-links/internal/qrcode"
	"github.com/wolfman30/qr-contact-links/internal/urlcodec"
	"github.com/wolfman30/qr-contact-links/internal/vcard"
	"github.com/wolfman30/qr-contact-links/pkg/logging"
)

const (
	GeneratePath = "/generate"
	PNGPath      = GeneratePath + "/qr.png"
	VCardPath    = GeneratePath + "/contact.vcf"

	// MissingDataMessage is shown whenever a query cannot be decoded.
	MissingDataMessage = "Invalid or missing contact data in URL"
	// TooLargeMessage is shown when a contact does not fit in one QR code.
	TooLargeMessage = "This contact has too much data to fit in a QR code. Shorten some fields and try again."
)

//go:embed templates/*.html
var rawTemplates embed.FS

var pageTemplates = mustParsePages(rawTemplates, "form.html", "qr.html", "error.html")

func mustParsePages(fsys fs.FS, pages ...string) map[string]*template.Template {
	funcs := template.FuncMap{"plural": plural}
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t := template.New(page).Funcs(funcs).Option("missingkey=error")
		out[page] = template.Must(t.ParseFS(fsys, "templates/layout.html", "templates/"+page))
	}
	return out
}

// Handler renders the HTML pages and the QR/vCard downloads.
type Handler struct {
	renderer      *qrcode.Renderer
	metrics       *metrics.ContactMetrics
	publicBaseURL string
	logger        *logging.Logger
}

func NewHandler(renderer *qrcode.Renderer, m *metrics.ContactMetrics, publicBaseURL string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if renderer == nil {
		renderer = qrcode.NewRenderer(qrcode.Options{Metrics: m, Logger: logger})
	}
	return &Handler{
		renderer:      renderer,
		metrics:       m,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		logger:        logger,
	}
}

// FormPage renders an empty contact form.
func (h *Handler) FormPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "form.html", newFormView(contact.Form{}, nil))
}

// SubmitForm handles add/remove input actions and final submission.
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "Invalid Form", "The form could not be read. Please try again.")
		return
	}
	form := contact.ParseForm(r.PostForm)

	if action := r.PostForm.Get("action"); action != "" {
		form, ok := addInput(form, action)
		if !ok {
			h.renderError(w, http.StatusBadRequest, "Invalid Form", "Unknown form action.")
			return
		}
		h.render(w, http.StatusOK, "form.html", newFormView(form, nil))
		return
	}
	if target := r.PostForm.Get("remove"); target != "" {
		h.render(w, http.StatusOK, "form.html", newFormView(removeInput(form, target), nil))
		return
	}

	rec, err := form.Clean()
	var verr *contact.ValidationError
	switch {
	case errors.As(err, &verr):
		h.metrics.ObserveSubmission("invalid")
		h.render(w, http.StatusUnprocessableEntity, "form.html", newFormView(form.Trimmed(), verr.ByField()))
		return
	case err != nil:
		h.logger.Error("contact form cleaning failed", "error", err)
		h.renderError(w, http.StatusInternalServerError, "Something Went Wrong", "Please try again.")
		return
	}

	// Rendering here also warms the cache for the QR page.
	if _, err := h.renderer.PNG(r.Context(), h.encodeVCard(rec), 0); errors.Is(err, qrcode.ErrPayloadTooLarge) {
		h.metrics.ObserveSubmission("too_large")
		h.render(w, http.StatusUnprocessableEntity, "form.html", newFormView(form.Trimmed(), map[string]string{formErrorKey: TooLargeMessage}))
		return
	}

	h.metrics.ObserveSubmission("accepted")
	http.Redirect(w, r, urlcodec.Path(GeneratePath, rec), http.StatusSeeOther)
}

// GeneratePage renders the QR code and contact preview for the query.
func (h *Handler) GeneratePage(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decode(w, r)
	if !ok {
		return
	}

	png, err := h.renderer.PNG(r.Context(), h.encodeVCard(rec), 0)
	if err != nil {
		h.renderFailed(w, err)
		return
	}

	query := urlcodec.Serialize(rec).Encode()
	h.render(w, http.StatusOK, "qr.html", qrView{
		Contact: rec,
		// DataURI output is base64 and never carries script.
		QRImage:      template.URL(qrcode.DataURI(png)),
		Size:         h.renderer.Size(),
		PNGPath:      PNGPath + "?" + query,
		VCardPath:    VCardPath + "?" + query,
		ShareURL:     h.publicBaseURL + GeneratePath + "?" + query,
		AddressLines: addressLines(rec.Address),
	})
}

// DownloadPNG serves the QR image as an attachment. An optional size query
// parameter is clamped to the supported range.
func (h *Handler) DownloadPNG(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decode(w, r)
	if !ok {
		return
	}

	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil {
		size = 0
	}
	png, err := h.renderer.PNG(r.Context(), h.encodeVCard(rec), size)
	if err != nil {
		h.renderFailed(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="qr-code-contact.png"`)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	_, _ = w.Write(png)
}

// DownloadVCard serves the vCard payload as contact.vcf.
func (h *Handler) DownloadVCard(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decode(w, r)
	if !ok {
		return
	}
	card := h.encodeVCard(rec)

	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="contact.vcf"`)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write([]byte(card))
}

// NotFound renders the not-found page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, http.StatusNotFound, "Page Not Found", "The page you are looking for does not exist.")
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (contact.Record, bool) {
	rec, err := urlcodec.Deserialize(r.URL.Query())
	h.metrics.ObserveDecode(err == nil)
	if err != nil {
		h.renderError(w, http.StatusBadRequest, "Invalid Contact Link", MissingDataMessage)
		return contact.Record{}, false
	}
	return rec, true
}

func (h *Handler) encodeVCard(rec contact.Record) string {
	h.metrics.ObserveVCard()
	return vcard.Encode(rec)
}

// renderFailed answers a QR render error. Contacts too large for a QR code
// are a client problem and get 413; anything else is a server error.
func (h *Handler) renderFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, qrcode.ErrPayloadTooLarge) {
		h.logger.Warn("qr payload too large", "error", err)
		h.renderError(w, http.StatusRequestEntityTooLarge, "QR Code Unavailable", TooLargeMessage)
		return
	}
	h.logger.Error("qr render failed", "error", err)
	h.renderError(w, http.StatusInternalServerError, "QR Code Unavailable", "The QR code could not be generated for this contact.")
}

func (h *Handler) renderError(w http.ResponseWriter, status int, title, message string) {
	h.render(w, status, "error.html", errorView{Title: title, Message: message})
}

func (h *Handler) render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := pageTemplates[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("page render failed", "page", page, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// addInput appends an empty input for action "add-<name>".
func addInput(f contact.Form, action string) (contact.Form, bool) {
	name, ok := strings.CutPrefix(action, "add-")
	if !ok {
		return f, false
	}
	switch name {
	case emailField.Name:
		f.Emails = append(f.Emails, "")
	case phoneField.Name:
		f.Phones = append(f.Phones, "")
	case websiteField.Name:
		f.Websites = append(f.Websites, "")
	default:
		return f, false
	}
	return f, true
}

// removeInput drops input i for target "<name>:<i>". The last remaining
// input of a list is never removed; malformed targets leave the form as is.
func removeInput(f contact.Form, target string) contact.Form {
	name, idx, ok := strings.Cut(target, ":")
	if !ok {
		return f
	}
	if _, known := listFields[name]; !known {
		return f
	}
	i, err := strconv.Atoi(idx)
	if err != nil {
		return f
	}

	drop := func(values []string) []string {
		if len(values) <= 1 || i < 0 || i >= len(values) {
			return values
		}
		out := make([]string, 0, len(values)-1)
		out = append(out, values[:i]...)
		return append(out, values[i+1:]...)
	}
	switch name {
	case emailField.Name:
		f.Emails = drop(f.Emails)
	case phoneField.Name:
		f.Phones = drop(f.Phones)
	case websiteField.Name:
		f.Websites = drop(f.Websites)
	}
	return f
}
