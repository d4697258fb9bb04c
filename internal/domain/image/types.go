package image

import (
	"encoding/base64"
	"strings"
)

// ValidationResult captures the outcome of security validation.
type ValidationResult struct {
	IsValid      bool
	Format       string
	Width        int
	Height       int
	FileSize     int64
	Error        error
	SecurityRisk string
}

// Photo is a validated upload ready to hand to the vision capability.
type Photo struct {
	Bytes      []byte
	Format     string
	Validation ValidationResult
}

var mimeTypes = map[string]string{
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// MIMEType maps the detected format onto a content type.
func (p *Photo) MIMEType() string {
	if mt, ok := mimeTypes[strings.ToLower(p.Format)]; ok {
		return mt
	}
	return "application/octet-stream"
}

// DataURI renders the photo as a base64 data URI.
func (p *Photo) DataURI() string {
	var b strings.Builder
	b.Grow(len(p.Bytes)*4/3 + 32)
	b.WriteString("data:")
	b.WriteString(p.MIMEType())
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(p.Bytes))
	return b.String()
}

// Metrics aggregates pipeline statistics for observability.
type Metrics struct {
	TotalProcessed    int64 `json:"total_processed"`
	FailedValidations int64 `json:"failed_validations"`
	SecurityIncidents int64 `json:"security_incidents"`
}
