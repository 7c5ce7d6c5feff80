package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/lifecycle"
)

// imagesField is the multipart field carrying photos.
const imagesField = "images"

// submission is a request body that may carry photos. It is read either from
// multipart/form-data (fields plus files under "images") or from a JSON
// object of string fields without photos.
type submission struct {
	fields map[string]string
	photos []lifecycle.Upload
}

func (s *submission) get(key string) string {
	return strings.TrimSpace(s.fields[key])
}

var errUnsupportedImage = errors.New("images must be JPEG, PNG, or WebP")

// readSubmission parses r, limiting the whole body to maxBytes.
func readSubmission(w http.ResponseWriter, r *http.Request, maxBytes int64) (*submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		fields := map[string]string{}
		if err := decodeJSON(r, &fields); err != nil {
			return nil, fmt.Errorf("invalid request body: %w", err)
		}
		return &submission{fields: fields}, nil
	}

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, fmt.Errorf("file too large or invalid multipart form: %w", err)
	}

	s := &submission{fields: map[string]string{}}
	for key, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			s.fields[key] = values[0]
		}
	}

	for _, header := range r.MultipartForm.File[imagesField] {
		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", header.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", header.Filename, err)
		}

		// Sniff the bytes rather than trusting the part header.
		if _, err := imaging.Sniff(data); err != nil {
			return nil, errUnsupportedImage
		}
		s.photos = append(s.photos, lifecycle.Upload{Name: header.Filename, Data: data})
	}
	return s, nil
}
