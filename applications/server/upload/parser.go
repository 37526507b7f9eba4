// Package upload extracts a single file from a buffered multipart/form-data body.
//
// Only the first part of the body is read. A request carrying several files or
// extra form fields yields the first part and ignores the rest.
package upload

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/donmikel/lanshare/applications/server/domain"
)

const boundaryParam = "boundary="

var (
	headerSeparator = []byte("\r\n\r\n")
	lineBreak       = []byte("\r\n")
	filenamePattern = regexp.MustCompile(`filename="(.+?)"`)
)

// Boundary returns the boundary token of a multipart Content-Type header value.
func Boundary(contentType string) (string, error) {
	i := strings.Index(contentType, boundaryParam)
	if i == -1 {
		return "", domain.ErrMissingBoundary
	}

	boundary := contentType[i+len(boundaryParam):]
	if j := strings.IndexByte(boundary, ';'); j != -1 {
		boundary = boundary[:j]
	}
	boundary = strings.Trim(strings.TrimSpace(boundary), `"`)

	if boundary == "" {
		return "", domain.ErrMissingBoundary
	}

	return boundary, nil
}

// Parse returns the name and content of the first file part in body.
// The returned content shares memory with body.
func Parse(body []byte, boundary string) (domain.Upload, error) {
	if boundary == "" {
		return domain.Upload{}, domain.ErrMissingBoundary
	}
	delimiter := []byte("--" + boundary)

	headersEnd := bytes.Index(body, headerSeparator)
	if headersEnd == -1 {
		return domain.Upload{}, fmt.Errorf("%w: no header/body separator", domain.ErrMalformedBody)
	}

	match := filenamePattern.FindSubmatch(body[:headersEnd])
	if match == nil {
		return domain.Upload{}, domain.ErrMissingFilename
	}

	name := Basename(string(match[1]))
	if name == "" {
		return domain.Upload{}, fmt.Errorf("%w: %q has no final path component", domain.ErrMissingFilename, match[1])
	}

	fileStart := headersEnd + len(headerSeparator)
	n := bytes.Index(body[fileStart:], delimiter)
	if n == -1 {
		return domain.Upload{}, fmt.Errorf("%w: closing boundary not found", domain.ErrMalformedBody)
	}

	// every delimiter is preceded by CRLF, which belongs to the delimiter and not to the content
	fileEnd := fileStart + n
	if n < len(lineBreak) || !bytes.Equal(body[fileEnd-len(lineBreak):fileEnd], lineBreak) {
		return domain.Upload{}, fmt.Errorf("%w: boundary not preceded by CRLF", domain.ErrMalformedBody)
	}

	return domain.Upload{
		Name:    name,
		Content: body[fileStart : fileEnd-len(lineBreak)],
	}, nil
}

// Basename strips every directory component from name, treating both '/' and '\'
// as separators. It returns "" when nothing usable remains.
func Basename(name string) string {
	name = strings.TrimRight(name, `/\`)
	if i := strings.LastIndexAny(name, `/\`); i != -1 {
		name = name[i+1:]
	}

	if name == "." || name == ".." {
		return ""
	}

	return name
}
