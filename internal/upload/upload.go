package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"quickbidz-storefront/internal/backend"
	"quickbidz-storefront/internal/storefronterrors"
	"quickbidz-storefront/utils"

	"github.com/gabriel-vasile/mimetype"
)

// Defaults applied when an option is left zero.
const (
	DefaultEndpoint  = "/upload"
	DefaultMaxSize   = 5 * 1024 * 1024
	DefaultMaxFiles  = 5
	DefaultFieldName = "files"
)

// DefaultAllowedTypes are the image formats the backend stores.
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Presets for the storefront's two upload targets.
var (
	AuctionImages = Options{Endpoint: "/auctions", FieldName: "images", MaxFiles: DefaultMaxFiles}
	ProfileImage  = Options{Endpoint: "/users/profile-image", FieldName: "image", MaxFiles: 1}
)

// Options configures one upload. Zero fields take the uploader's defaults.
type Options struct {
	Endpoint     string
	MaxSize      int64
	AllowedTypes []string
	MaxFiles     int
	FieldName    string
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		Endpoint:     DefaultEndpoint,
		MaxSize:      DefaultMaxSize,
		AllowedTypes: append([]string(nil), DefaultAllowedTypes...),
		MaxFiles:     DefaultMaxFiles,
		FieldName:    DefaultFieldName,
	}
}

// Merge overlays the non-zero fields of override onto o.
func (o Options) Merge(override Options) Options {
	if override.Endpoint != "" {
		o.Endpoint = override.Endpoint
	}
	if override.MaxSize > 0 {
		o.MaxSize = override.MaxSize
	}
	if len(override.AllowedTypes) > 0 {
		o.AllowedTypes = override.AllowedTypes
	}
	if override.MaxFiles > 0 {
		o.MaxFiles = override.MaxFiles
	}
	if override.FieldName != "" {
		o.FieldName = override.FieldName
	}
	return o
}

// File is one file held in memory. Size is the size the client declared,
// Content may be shorter when the reader stopped past the size limit.
type File struct {
	Name    string
	Size    int64
	Content []byte
}

// UploadedFile describes a stored file as the backend reports it.
type UploadedFile struct {
	FieldName    string `json:"fieldname"`
	OriginalName string `json:"originalname"`
	Encoding     string `json:"encoding"`
	MimeType     string `json:"mimetype"`
	Destination  string `json:"destination"`
	FileName     string `json:"filename"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	URL          string `json:"url,omitempty"`
}

// Response is the backend's upload reply.
type Response struct {
	Files     []UploadedFile `json:"files,omitempty"`
	ImageURLs []string       `json:"imageUrls,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// Result is a completed upload with the raw backend body for pass-through.
type Result struct {
	Status   int
	Response Response
	Raw      []byte
}

// RejectedError carries the user-facing reason a file set was refused.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

func (e *RejectedError) Unwrap() error { return storefronterrors.ErrUploadRejected }

func rejected(format string, args ...any) error {
	return &RejectedError{Message: fmt.Sprintf(format, args...)}
}

// Uploader posts validated files to the backend
type Uploader struct {
	api      backend.API
	defaults Options
}

// NewUploader creates an uploader. defaults are merged over DefaultOptions.
func NewUploader(api backend.API, defaults Options) *Uploader {
	return &Uploader{
		api:      api,
		defaults: DefaultOptions().Merge(defaults),
	}
}

// Validate checks count, content type and size. The type is sniffed from
// the bytes, never taken from the client.
func (u *Uploader) Validate(files []File, opts Options) error {
	opts = u.defaults.Merge(opts)
	if len(files) > opts.MaxFiles {
		return rejected("Maximum %d files allowed", opts.MaxFiles)
	}
	for _, f := range files {
		detected := Detect(f.Content)
		if !allowed(detected, opts.AllowedTypes) {
			return rejected("File type %s is not allowed", detected.String())
		}
		if f.Size > opts.MaxSize || int64(len(f.Content)) > opts.MaxSize {
			return rejected("File %s exceeds maximum size of %sMB", f.Name, megabytes(opts.MaxSize))
		}
	}
	return nil
}

// Detect sniffs the content type of a file.
func Detect(content []byte) *mimetype.MIME {
	return mimetype.Detect(content)
}

func allowed(detected *mimetype.MIME, types []string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if detected.Is(t) {
			return true
		}
	}
	return false
}

func megabytes(size int64) string {
	return strconv.FormatFloat(float64(size)/(1024*1024), 'f', -1, 64)
}

// Upload validates files and posts them, with any extra form fields, as one
// multipart request. Nothing is sent when validation fails.
func (u *Uploader) Upload(ctx context.Context, token string, files []File, fields url.Values, opts Options) (Result, error) {
	if err := u.Validate(files, opts); err != nil {
		return Result{}, err
	}
	opts = u.defaults.Merge(opts)

	body, contentType, err := encode(files, fields, opts.FieldName)
	if err != nil {
		return Result{}, fmt.Errorf("upload: encode multipart body: %w", err)
	}

	resp, err := u.api.Do(ctx, backend.Request{
		Method:      http.MethodPost,
		Path:        opts.Endpoint,
		RawBody:     body,
		ContentType: contentType,
		Token:       token,
	})
	if err != nil {
		return Result{}, fmt.Errorf("upload: post %d files to %s: %w", len(files), opts.Endpoint, err)
	}

	decoded, err := backend.DecodeJSON[Response](resp)
	if err != nil {
		utils.Warn("Upload response was not an upload envelope", map[string]any{"endpoint": opts.Endpoint, "error": err.Error()})
		decoded = Response{}
	}
	if len(decoded.ImageURLs) > 0 {
		decoded.Files = Synthesize(decoded.ImageURLs, files, opts.FieldName)
	}

	return Result{Status: resp.Status, Response: decoded, Raw: resp.Body}, nil
}

// Synthesize builds file descriptors for hosted image URLs, pairing each URL
// with the file at the same position.
func Synthesize(urls []string, files []File, fieldName string) []UploadedFile {
	out := make([]UploadedFile, 0, len(urls))
	for i, u := range urls {
		entry := UploadedFile{
			FieldName:    fieldName,
			OriginalName: fmt.Sprintf("file-%d", i),
			Encoding:     "utf-8",
			MimeType:     "image/jpeg",
			FileName:     u,
			Path:         u,
			URL:          u,
		}
		if i < len(files) {
			entry.OriginalName = files[i].Name
			entry.MimeType = Detect(files[i].Content).String()
			entry.Size = files[i].Size
		}
		out = append(out, entry)
	}
	return out
}

func encode(files []File, fields url.Values, fieldName string) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, values := range fields {
		for _, v := range values {
			if err := writer.WriteField(key, v); err != nil {
				return nil, "", err
			}
		}
	}

	for _, f := range files {
		name := f.Name
		if name == "" {
			name = "upload-" + utils.GenerateID()
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quote(fieldName), quote(name)))
		header.Set("Content-Type", Detect(f.Content).String())

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func quote(s string) string {
	return quoteEscaper.Replace(s)
}

// FromMultipart reads uploaded form files into memory, stopping one byte past
// limit so oversized files are caught without buffering them whole.
func FromMultipart(headers []*multipart.FileHeader, limit int64) ([]File, error) {
	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("upload: open %s: %w", fh.Filename, err)
		}
		content, err := io.ReadAll(io.LimitReader(f, limit+1))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("upload: read %s: %w", fh.Filename, err)
		}
		files = append(files, File{Name: fh.Filename, Size: fh.Size, Content: content})
	}
	return files, nil
}
