package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path"
	"strings"
	"sync/atomic"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/resumeranker/resume-uploader/internal/models"
	"github.com/resumeranker/resume-uploader/internal/transfer"
)

// formField is a plain multipart text field.
type formField struct {
	name  string
	value string
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// extensionTypes covers the accepted resume types whose content mimetype
// cannot tell apart (docx sniffs as zip, old doc as OLE storage).
var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".rtf":  "application/rtf",
	".txt":  "text/plain",
}

// multipartBody is a fully assembled form-data request body.
type multipartBody struct {
	data        []byte
	contentType string
}

// buildMultipart writes every payload under fileField, then the text fields.
// Payload bytes are read here, once per request.
func buildMultipart(fileField string, payloads []models.Payload, fields []formField) (*multipartBody, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range payloads {
		if err := writeFilePart(w, fileField, p); err != nil {
			return nil, err
		}
	}

	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", f.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return &multipartBody{data: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}

func writeFilePart(w *multipart.Writer, field string, p models.Payload) error {
	rc, err := p.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", p.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", p.Name(), err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(field), quoteEscaper.Replace(p.Name())))
	h.Set("Content-Type", detectContentType(p.Name(), data))

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create part for %s: %w", p.Name(), err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", p.Name(), err)
	}
	return nil
}

// detectContentType prefers the declared extension for accepted resume types
// and sniffs content otherwise.
func detectContentType(name string, data []byte) string {
	if ct, ok := extensionTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return mimetype.Detect(data).String()
}

// readerFunc returns a retryablehttp.ReaderFunc that yields a fresh
// progress-reporting reader for every attempt.
func (b *multipartBody) readerFunc(onProgress transfer.ProgressFunc) retryablehttp.ReaderFunc {
	return func() (io.Reader, error) {
		return &progressReader{r: bytes.NewReader(b.data), total: int64(len(b.data)), onProgress: onProgress}, nil
	}
}

// progressReader reports bytes consumed by the transport.
// Len lets retryablehttp set Content-Length.
type progressReader struct {
	r          *bytes.Reader
	total      int64
	sent       atomic.Int64
	onProgress transfer.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.onProgress != nil {
		p.onProgress(p.sent.Add(int64(n)), p.total)
	}
	return n, err
}

func (p *progressReader) Len() int {
	return p.r.Len()
}
