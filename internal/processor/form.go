package processor

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"tracker-studio/internal/model"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeForm streams the multipart body through a pipe so the video is
// never held in memory. length is -1 when the payload size is unknown.
func encodeForm(sel model.FileSelection, params model.RenderParameters, progress ProgressFunc) (io.ReadCloser, string, int64) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	boundary := mw.Boundary()

	length := int64(-1)
	if sel.Size > 0 {
		if env := envelopeLength(boundary, sel, params); env > 0 {
			length = env + sel.Size
		}
	}

	go func() {
		err := writeForm(mw, sel, params, func(w io.Writer) error {
			src, err := sel.Open()
			if err != nil {
				return err
			}
			defer src.Close()
			if progress != nil {
				w = &progressWriter{w: w, total: sel.Size, report: progress}
			}
			if _, err := io.Copy(w, src); err != nil {
				return fmt.Errorf("stream %s: %w", sel.Name, err)
			}
			return nil
		})
		_ = pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType(), length
}

// writeForm emits the parts in wire order: the video first, then every
// parameter field.
func writeForm(mw *multipart.Writer, sel model.FileSelection, params model.RenderParameters, payload func(io.Writer) error) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, model.FieldVideo, quoteEscaper.Replace(sel.Name)))
	mediaType := sel.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	h.Set("Content-Type", mediaType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create video part: %w", err)
	}
	if err := payload(part); err != nil {
		return err
	}
	for _, f := range params.FormFields() {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}
	return nil
}

// envelopeLength measures everything except the video bytes themselves.
func envelopeLength(boundary string, sel model.FileSelection, params model.RenderParameters) int64 {
	var cw countingWriter
	mw := multipart.NewWriter(&cw)
	if err := mw.SetBoundary(boundary); err != nil {
		return -1
	}
	if err := writeForm(mw, sel, params, func(io.Writer) error { return nil }); err != nil {
		return -1
	}
	return cw.n
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

type progressWriter struct {
	w      io.Writer
	sent   int64
	total  int64
	report ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.sent += int64(n)
	p.report(p.sent, p.total)
	return n, err
}
