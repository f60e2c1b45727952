// Package uploads handles the wizard's supporting-document intake: the
// multipart endpoint behind the drop zone and file picker, and the entries
// that end up in the submission payload.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gabrielmiguelok/formwizard/pkg/security"
)

// Common errors.
var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrNoFiles         = errors.New("no files uploaded")

	// ErrTargetBusy is returned by a Receiver whose target cannot take the
	// files right now. The handler answers 503.
	ErrTargetBusy = errors.New("upload target busy")
)

// FeedbackLimit is how many files a selection notice describes.
const FeedbackLimit = 8

// Config configures upload behavior.
type Config struct {
	// Accept is a list of allowed MIME types; "*/*" and "image/*" style
	// wildcards are honoured.
	Accept []string

	// MaxFileSize is the maximum size of a single file in bytes.
	MaxFileSize int64

	// Dir is where received files are written.
	Dir string

	// FormField is the multipart field carrying the files.
	FormField string
}

// DefaultConfig returns default upload configuration.
func DefaultConfig() *Config {
	return &Config{
		Accept:      []string{"*/*"},
		MaxFileSize: 10 * 1024 * 1024,
		Dir:         filepath.Join(os.TempDir(), "formwizard-uploads"),
		FormField:   "files[]",
	}
}

// Entry is one accepted file.
type Entry struct {
	UUID        string    `json:"uuid" msgpack:"uuid"`
	FileName    string    `json:"filename" msgpack:"filename"`
	Size        int64     `json:"size" msgpack:"size"`
	ContentType string    `json:"content_type" msgpack:"content_type"`
	Path        string    `json:"-" msgpack:"-"`
	CreatedAt   time.Time `json:"created_at" msgpack:"created_at"`
}

// NewEntry describes a file that already exists at path (terminal frontend).
func NewEntry(path string) (Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, err
	}
	if info.IsDir() {
		return Entry{}, fmt.Errorf("%s is a directory", path)
	}
	return Entry{
		UUID:        uuid.NewString(),
		FileName:    security.SanitizeFilename(info.Name()),
		Size:        info.Size(),
		ContentType: contentTypeByExt(path),
		Path:        path,
		CreatedAt:   time.Now(),
	}, nil
}

// Feedback returns the short notice shown after a selection: the file name
// for one file, "N files selected" otherwise, describing at most
// FeedbackLimit files. An empty selection has no notice.
func Feedback(entries []Entry) string {
	shown := entries
	if len(shown) > FeedbackLimit {
		shown = shown[:FeedbackLimit]
	}
	switch len(shown) {
	case 0:
		return ""
	case 1:
		return shown[0].FileName
	default:
		return fmt.Sprintf("%d files selected", len(shown))
	}
}

// Receiver is told about the files of one successful upload request.
// target is the opaque routing value the client sent (its socket id).
type Receiver func(ctx context.Context, target string, entries []Entry) error

// Handler accepts multipart uploads from the drop zone and file picker.
type Handler struct {
	config    *Config
	onReceive Receiver
}

// NewHandler creates an upload handler. It creates the destination directory.
func NewHandler(config *Config, onReceive Receiver) (*Handler, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if onReceive == nil {
		return nil, errors.New("uploads: receiver is required")
	}
	if err := os.MkdirAll(config.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Handler{config: config, onReceive: onReceive}, nil
}

// ServeHTTP handles POST requests; the target comes from the "socket" query
// parameter.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target := r.URL.Query().Get("socket")
	if target == "" {
		http.Error(w, "Missing socket", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(h.config.MaxFileSize); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[h.config.FormField]
	if len(headers) == 0 {
		http.Error(w, ErrNoFiles.Error(), http.StatusBadRequest)
		return
	}

	entries := make([]Entry, 0, len(headers))
	for _, header := range headers {
		entry, err := h.store(header)
		if err != nil {
			http.Error(w, fmt.Sprintf("%s: %v", security.SanitizeFilename(header.Filename), err), statusFor(err))
			removeAll(entries)
			return
		}
		entries = append(entries, entry)
	}

	if err := h.onReceive(r.Context(), target, entries); err != nil {
		removeAll(entries)
		status := http.StatusNotFound
		if errors.Is(err, ErrTargetBusy) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) store(header *multipart.FileHeader) (Entry, error) {
	entry := Entry{
		UUID:        uuid.NewString(),
		FileName:    security.SanitizeFilename(header.Filename),
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		CreatedAt:   time.Now(),
	}

	if entry.Size > h.config.MaxFileSize {
		return entry, ErrFileTooLarge
	}
	if !isAllowedType(h.config.Accept, entry.ContentType) {
		return entry, ErrInvalidFileType
	}

	src, err := header.Open()
	if err != nil {
		return entry, err
	}
	defer src.Close()

	dest := filepath.Join(h.config.Dir, entry.UUID+filepath.Ext(entry.FileName))
	dst, err := os.Create(dest)
	if err != nil {
		return entry, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dest)
		return entry, err
	}

	entry.Path = dest
	return entry, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidFileType):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

func removeAll(entries []Entry) {
	for _, e := range entries {
		if e.Path != "" {
			os.Remove(e.Path)
		}
	}
}

func isAllowedType(accept []string, contentType string) bool {
	if len(accept) == 0 {
		return true
	}
	for _, allowed := range accept {
		if allowed == "*/*" || allowed == contentType {
			return true
		}
		if prefix, ok := strings.CutSuffix(allowed, "/*"); ok && strings.HasPrefix(contentType, prefix+"/") {
			return true
		}
	}
	return false
}

func contentTypeByExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
