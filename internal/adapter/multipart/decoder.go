package multipart

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/taskforge/attachment-service/internal/domain/apperrors"
	"go.uber.org/zap"
)

// maxTextValueBytes caps individual text parts. Text fields are incidental
// form data, not payload; anything larger is a malformed request.
const maxTextValueBytes = 64 * 1024

// FilePart describes one file part spooled to scratch storage. Size is the
// byte count actually written, independent of any client-declared length.
type FilePart struct {
	FieldName           string
	Filename            string
	DeclaredContentType string
	ScratchPath         string
	Size                int64
}

// Form is the decoded request: text fields plus the spooled file parts, in
// stream order. The Form owns the scratch files until Cleanup is called.
type Form struct {
	Values map[string]string
	Files  []*FilePart
}

// File returns the first file part submitted under the given field name.
func (f *Form) File(field string) (*FilePart, bool) {
	for _, p := range f.Files {
		if p.FieldName == field {
			return p, true
		}
	}
	return nil, false
}

// Cleanup removes all scratch files. It is safe to call more than once and
// after a successful commit; missing files are ignored.
func (f *Form) Cleanup() {
	for _, p := range f.Files {
		if p.ScratchPath != "" {
			_ = os.Remove(p.ScratchPath)
			p.ScratchPath = ""
		}
	}
}

// Decoder streams multipart request bodies into scratch storage. File parts
// are never buffered in memory regardless of size, and the total request
// byte count is checked incrementally against a hard ceiling so an oversized
// request is aborted before it can exhaust the disk.
type Decoder struct {
	scratchDir      string
	maxRequestBytes int64
	logger          *zap.Logger
}

// NewDecoder creates a decoder spooling into scratchDir (the OS temp
// directory when empty) with the given per-request byte ceiling.
func NewDecoder(scratchDir string, maxRequestBytes int64, logger *zap.Logger) *Decoder {
	return &Decoder{
		scratchDir:      scratchDir,
		maxRequestBytes: maxRequestBytes,
		logger:          logger,
	}
}

var errRequestTooLarge = errors.New("request body exceeds the configured ceiling")

// ceilingReader counts bytes as they are consumed and fails once the ceiling
// is crossed. Counting the raw body covers part headers and boundaries too,
// so the bound holds for adversarial many-part requests. It reads one byte
// past the ceiling so a body of exactly the ceiling still decodes.
type ceilingReader struct {
	r         io.Reader
	remaining int64
	err       error
}

func (c *ceilingReader) Read(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	if int64(n) <= c.remaining {
		c.remaining -= int64(n)
		return n, err
	}
	n = int(c.remaining)
	c.remaining = 0
	c.err = errRequestTooLarge
	return n, c.err
}

// Decode consumes the request body and returns the decoded form. On any
// error all scratch files written so far are removed before returning, so a
// failed or disconnected upload leaves nothing behind.
func (d *Decoder) Decode(r *http.Request) (*Form, error) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return nil, apperrors.NewAppError(apperrors.ErrDecode, "request is not multipart/form-data", err)
	}
	boundary, ok := params["boundary"]
	if !ok || boundary == "" {
		return nil, apperrors.NewAppError(apperrors.ErrDecode, "multipart boundary is missing", nil)
	}

	body := &ceilingReader{r: r.Body, remaining: d.maxRequestBytes}
	mr := multipart.NewReader(body, boundary)

	form := &Form{Values: make(map[string]string)}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			form.Cleanup()
			return nil, d.decodeError("malformed multipart stream", err)
		}

		if part.FileName() == "" {
			value, err := readTextPart(part)
			part.Close()
			if err != nil {
				form.Cleanup()
				return nil, d.decodeError("malformed form field", err)
			}
			form.Values[part.FormName()] = value
			continue
		}

		spooled, err := d.spoolFilePart(part)
		part.Close()
		if err != nil {
			form.Cleanup()
			return nil, err
		}
		form.Files = append(form.Files, spooled)
	}

	return form, nil
}

// spoolFilePart streams one file part into a fresh scratch file.
func (d *Decoder) spoolFilePart(part *multipart.Part) (*FilePart, error) {
	scratch, err := os.CreateTemp(d.scratchDir, "upload-*.part")
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrStore, "failed to create scratch file", err)
	}

	written, err := io.Copy(scratch, part)
	closeErr := scratch.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		// Client disconnects land here as well: drop the partial spool so no
		// later step can ever reference it.
		_ = os.Remove(scratch.Name())
		return nil, d.decodeError(fmt.Sprintf("failed reading file part %q", part.FormName()), err)
	}

	return &FilePart{
		FieldName:           part.FormName(),
		Filename:            part.FileName(),
		DeclaredContentType: part.Header.Get("Content-Type"),
		ScratchPath:         scratch.Name(),
		Size:                written,
	}, nil
}

func readTextPart(part *multipart.Part) (string, error) {
	var sb strings.Builder
	n, err := io.Copy(&sb, io.LimitReader(part, maxTextValueBytes+1))
	if err != nil {
		return "", err
	}
	if n > maxTextValueBytes {
		return "", fmt.Errorf("text field %q exceeds %d bytes", part.FormName(), maxTextValueBytes)
	}
	return sb.String(), nil
}

// decodeError classifies stream failures, distinguishing ceiling breaches so
// the HTTP layer can answer 413 rather than a generic 400.
func (d *Decoder) decodeError(message string, err error) error {
	if errors.Is(err, errRequestTooLarge) {
		d.logger.Warn("Upload rejected: request ceiling exceeded",
			zap.Int64("max_request_bytes", d.maxRequestBytes))
		return apperrors.NewAppError(apperrors.ErrRequestTooLarge,
			fmt.Sprintf("Request body is too large: the total upload limit is %d bytes", d.maxRequestBytes), err)
	}
	return apperrors.NewAppError(apperrors.ErrDecode, message, err)
}
