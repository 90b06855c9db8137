package model

import "strings"

// Format is a supported document file format. Its value doubles as the file extension.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatTXT  Format = "txt"
	FormatJSON Format = "json"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// Formats lists every supported format.
var Formats = []Format{FormatPDF, FormatDOCX, FormatTXT, FormatJSON, FormatJPEG, FormatPNG}

var mimeFormats = map[string]Format{
	"application/pdf": FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
	"text/plain":       FormatTXT,
	"application/json": FormatJSON,
	"image/jpeg":       FormatJPEG,
	"image/png":        FormatPNG,
}

// FormatFromMIME resolves a content type (parameters such as charset are ignored).
func FormatFromMIME(contentType string) (Format, bool) {
	mt := contentType
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	f, ok := mimeFormats[strings.ToLower(strings.TrimSpace(mt))]
	return f, ok
}
