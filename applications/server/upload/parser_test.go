package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donmikel/lanshare/applications/server/domain"
)

const testBoundary = "----WebKitFormBoundary7MA4YWxkTrZu0gW"

func multipartBody(filename string, content string) []byte {
	return []byte("--" + testBoundary + "\r\n" +
		`Content-Disposition: form-data; name="file"; filename="` + filename + `"` + "\r\n" +
		"Content-Type: application/octet-stream\r\n" +
		"\r\n" +
		content + "\r\n" +
		"--" + testBoundary + "--\r\n")
}

func TestBoundary(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        string
		wantErr     error
	}{
		{
			name:        "browser form",
			contentType: "multipart/form-data; boundary=" + testBoundary,
			want:        testBoundary,
		},
		{
			name:        "quoted with trailing param",
			contentType: `multipart/form-data; boundary="abc123"; charset=utf-8`,
			want:        "abc123",
		},
		{
			name:        "no boundary",
			contentType: "multipart/form-data",
			wantErr:     domain.ErrMissingBoundary,
		},
		{
			name:        "empty boundary",
			contentType: "multipart/form-data; boundary=",
			wantErr:     domain.ErrMissingBoundary,
		},
		{
			name:        "empty header",
			contentType: "",
			wantErr:     domain.ErrMissingBoundary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Boundary(tt.contentType)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		content     string
		wantName    string
		wantContent string
	}{
		{
			name:        "text file",
			filename:    "report.txt",
			content:     "hello",
			wantName:    "report.txt",
			wantContent: "hello",
		},
		{
			name:        "empty file",
			filename:    "empty.bin",
			content:     "",
			wantName:    "empty.bin",
			wantContent: "",
		},
		{
			name:        "content with line breaks",
			filename:    "notes.txt",
			content:     "line one\r\n\r\nline two\r\n",
			wantName:    "notes.txt",
			wantContent: "line one\r\n\r\nline two\r\n",
		},
		{
			name:        "binary content",
			filename:    "blob.bin",
			content:     "\x00\x01\xff\r\x00--",
			wantName:    "blob.bin",
			wantContent: "\x00\x01\xff\r\x00--",
		},
		{
			name:        "relative traversal",
			filename:    "../../etc/passwd",
			content:     "root",
			wantName:    "passwd",
			wantContent: "root",
		},
		{
			name:        "windows path",
			filename:    `C:\fakepath\photo.jpg`,
			content:     "jpeg",
			wantName:    "photo.jpg",
			wantContent: "jpeg",
		},
		{
			name:        "unicode name",
			filename:    "отчёт.pdf",
			content:     "%PDF",
			wantName:    "отчёт.pdf",
			wantContent: "%PDF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(multipartBody(tt.filename, tt.content), testBoundary)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, []byte(tt.wantContent), []byte(got.Content))
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    []byte
		wantErr error
		wantMsg string
	}{
		{
			name:    "no header separator",
			body:    []byte("--" + testBoundary + "\r\nContent-Disposition: form-data; filename=\"a.txt\"\r\nhello"),
			wantErr: domain.ErrMalformedBody,
			wantMsg: "no header/body separator",
		},
		{
			name:    "no filename",
			body:    []byte("--" + testBoundary + "\r\nContent-Disposition: form-data; name=\"field\"\r\n\r\nvalue\r\n--" + testBoundary + "--\r\n"),
			wantErr: domain.ErrMissingFilename,
		},
		{
			name:    "empty filename",
			body:    multipartBody("", "x"),
			wantErr: domain.ErrMissingFilename,
		},
		{
			name:    "filename reduces to nothing",
			body:    multipartBody("../", "x"),
			wantErr: domain.ErrMissingFilename,
		},
		{
			name:    "no closing boundary",
			body:    []byte("--" + testBoundary + "\r\nContent-Disposition: form-data; filename=\"a.txt\"\r\n\r\nhello"),
			wantErr: domain.ErrMalformedBody,
			wantMsg: "closing boundary not found",
		},
		{
			name:    "boundary right after separator",
			body:    []byte("--" + testBoundary + "\r\nContent-Disposition: form-data; filename=\"a.txt\"\r\n\r\n--" + testBoundary + "--"),
			wantErr: domain.ErrMalformedBody,
		},
		{
			name:    "one byte before boundary",
			body:    []byte("--" + testBoundary + "\r\nContent-Disposition: form-data; filename=\"a.txt\"\r\n\r\nx--" + testBoundary + "--"),
			wantErr: domain.ErrMalformedBody,
		},
		{
			name:    "empty body",
			body:    nil,
			wantErr: domain.ErrMalformedBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.body, testBoundary)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParseEmptyBoundary(t *testing.T) {
	_, err := Parse(multipartBody("a.txt", "hello"), "")
	assert.ErrorIs(t, err, domain.ErrMissingBoundary)
}

// Only the first part is extracted; later parts are ignored.
func TestParseFirstPartOnly(t *testing.T) {
	body := []byte("--" + testBoundary + "\r\n" +
		"Content-Disposition: form-data; name=\"file\"; filename=\"first.txt\"\r\n\r\n" +
		"one\r\n" +
		"--" + testBoundary + "\r\n" +
		"Content-Disposition: form-data; name=\"file\"; filename=\"second.txt\"\r\n\r\n" +
		"two\r\n" +
		"--" + testBoundary + "--\r\n")

	got, err := Parse(body, testBoundary)
	require.NoError(t, err)
	assert.Equal(t, "first.txt", got.Name)
	assert.Equal(t, "one", string(got.Content))
}

// A leading non-file field is not skipped: its header block is the one searched for a filename.
func TestParseLeadingFieldIsNotSkipped(t *testing.T) {
	body := []byte("--" + testBoundary + "\r\n" +
		"Content-Disposition: form-data; name=\"comment\"\r\n\r\n" +
		"hi\r\n" +
		"--" + testBoundary + "\r\n" +
		"Content-Disposition: form-data; name=\"file\"; filename=\"a.txt\"\r\n\r\n" +
		"data\r\n" +
		"--" + testBoundary + "--\r\n")

	_, err := Parse(body, testBoundary)
	assert.ErrorIs(t, err, domain.ErrMissingFilename)
}

func TestParseContentSharesBuffer(t *testing.T) {
	body := multipartBody("a.txt", "hello")
	got, err := Parse(body, testBoundary)
	require.NoError(t, err)

	got.Content[0] = 'j'
	assert.Contains(t, string(body), "jello")
}

func TestBasename(t *testing.T) {
	tests := map[string]string{
		"report.txt":          "report.txt",
		"/abs/path/file.go":   "file.go",
		"../../etc/passwd":    "passwd",
		`..\..\windows\x.ini`: "x.ini",
		"dir/":                "dir",
		"..":                  "",
		".":                   "",
		"/":                   "",
		"":                    "",
	}

	for in, want := range tests {
		assert.Equal(t, want, Basename(in), "input %q", in)
	}
}
