package cvtext

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// FetchTimeout bounds a single URL download.
const FetchTimeout = 30 * time.Second

// Source is a CV document as fetched, before text extraction.
type Source struct {
	// Name carries the extension used to pick the text extractor.
	Name string
	Data []byte
}

// Fetch retrieves a CV from a file path or an HTTP(S) URL.
func Fetch(ctx context.Context, input string) (src Source, err error) {
	// Check if input is a URL
	parsedURL, urlErr := url.Parse(input)
	if urlErr == nil && (parsedURL.Scheme == "http" || parsedURL.Scheme == "https") {
		src, err = fetchFromURL(ctx, parsedURL)
		if err != nil {
			err = errors.Wrapf(err, "failed to fetch CV from URL: %s", input)
			return src, err
		}
		return src, err
	}

	src, err = fetchFromFile(input)
	if err != nil {
		err = errors.Wrapf(err, "failed to fetch CV from file: %s", input)
		return src, err
	}

	return src, err
}

// fetchFromFile reads a CV from disk.
func fetchFromFile(filePath string) (src Source, err error) {
	var data []byte
	data, err = os.ReadFile(filePath)
	if err != nil {
		err = errors.Wrapf(err, "failed to read file: %s", filePath)
		return src, err
	}

	if len(data) == 0 {
		err = errors.New("file is empty")
		return src, err
	}

	src = Source{Name: filepath.Base(filePath), Data: data}
	return src, err
}

// fetchFromURL downloads a CV. The name comes from the URL path, or from the content type when the
// path has no extension.
func fetchFromURL(ctx context.Context, u *url.URL) (src Source, err error) {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return src, err
	}

	// Set a reasonable user agent
	req.Header.Set("User-Agent", "cv-convert/1.0")

	client := &http.Client{
		Timeout: FetchTimeout,
	}

	var resp *http.Response
	resp, err = client.Do(req)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return src, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("HTTP request failed with status: %d", resp.StatusCode)
		return src, err
	}

	// Read response body
	var bodyBytes []byte
	bodyBytes, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return src, err
	}

	if len(bodyBytes) == 0 {
		err = errors.New("fetched content is empty")
		return src, err
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || path.Ext(name) == "" {
		name = "download" + extensionFor(resp.Header.Get("Content-Type"))
	}

	src = Source{Name: name, Data: bodyBytes}
	return src, err
}

func extensionFor(contentType string) (ext string) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ext
	}

	switch strings.ToLower(mediaType) {
	case "application/pdf":
		ext = ".pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		ext = ".docx"
	case "text/html":
		ext = ".html"
	case "text/plain", "text/markdown":
		ext = ".txt"
	}
	return ext
}
