// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source loads deck content from a local file or an allowlisted
// URL and returns it as plain text for extraction.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// FetchError reports a source that could not be loaded.
type FetchError struct {
	Source string
	// Status is the HTTP status, or 0 when no response was received.
	Status int
	Reason string
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d", e.Source, e.Status)
	}
	return fmt.Sprintf("fetching %s: %s", e.Source, e.Reason)
}

// Loader resolves deck sources.
type Loader struct {
	Client       *http.Client
	Guard        Guard
	UserAgent    string
	MaxRedirects int
	MaxBytes     int64

	// SenderEmail is sent as a cookie to DocSend, which gates views on an
	// email address.
	SenderEmail string

	// PDF converts PDF sources; nil rejects them.
	PDF PDFConverter
	Log io.Writer
}

// NewLoader builds a loader whose HTTP client never follows redirects on
// its own and refuses to dial non-public addresses.
func NewLoader(cfg types.SourceConfig, pdf PDFConverter, log io.Writer) *Loader {
	dialer := &net.Dialer{Timeout: 10 * time.Second, Control: dialControl}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Loader{
		Client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		Guard:        Guard{Allowed: cfg.AllowedDomains},
		UserAgent:    cfg.UserAgent,
		MaxRedirects: cfg.MaxRedirects,
		MaxBytes:     cfg.MaxBytes,
		PDF:          pdf,
		Log:          log,
	}
}

// IsURL reports whether src names a remote source.
func IsURL(src string) bool {
	s := strings.ToLower(src)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Load returns the text content of src.
func (l *Loader) Load(ctx context.Context, src string) (string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", &FetchError{Source: src, Reason: "empty source"}
	}
	var (
		text string
		err  error
	)
	if IsURL(src) {
		text, err = l.fetch(ctx, src)
	} else {
		text, err = l.readFile(ctx, src)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", &FetchError{Source: src, Reason: "no content"}
	}
	return text, nil
}

func (l *Loader) readFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &FetchError{Source: path, Reason: err.Error()}
	}
	defer f.Close()

	data, err := l.readCapped(f, path)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return l.convertPDF(ctx, path, data)
	case ".html", ".htm":
		return l.html(path, data)
	}
	return string(data), nil
}

func (l *Loader) fetch(ctx context.Context, raw string) (string, error) {
	current := raw
	for hop := 0; ; hop++ {
		u, err := l.Guard.Check(ctx, current)
		if err != nil {
			l.logf("source: blocked %s: %v\n", current, err)
			return "", &FetchError{Source: raw, Reason: err.Error()}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return "", &FetchError{Source: raw, Reason: err.Error()}
		}
		if l.UserAgent != "" {
			req.Header.Set("User-Agent", l.UserAgent)
		}
		if l.SenderEmail != "" && (Guard{Allowed: []string{"docsend.com"}}).AllowedHost(u.Hostname()) {
			req.AddCookie(&http.Cookie{Name: "email", Value: l.SenderEmail})
		}

		resp, err := l.Client.Do(req)
		if err != nil {
			return "", &FetchError{Source: raw, Reason: err.Error()}
		}

		if isRedirect(resp.StatusCode) {
			loc := resp.Header.Get("Location")
			resp.Body.Close()
			if loc == "" {
				return "", &FetchError{Source: raw, Status: resp.StatusCode}
			}
			if hop >= l.MaxRedirects {
				l.logf("source: too many redirects for %s\n", raw)
				return "", &FetchError{Source: raw, Reason: "too many redirects"}
			}
			next, err := u.Parse(loc)
			if err != nil {
				return "", &FetchError{Source: raw, Reason: fmt.Sprintf("bad redirect %q", loc)}
			}
			current = next.String()
			continue
		}

		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			l.logf("source: HTTP %d for %s\n", resp.StatusCode, raw)
			return "", &FetchError{Source: raw, Status: resp.StatusCode}
		}
		data, err := l.readCapped(resp.Body, raw)
		if err != nil {
			return "", err
		}
		return l.decode(ctx, raw, resp.Header.Get("Content-Type"), data)
	}
}

func (l *Loader) decode(ctx context.Context, src, contentType string, data []byte) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case mediaType == "application/pdf" || bytes.HasPrefix(data, []byte("%PDF-")):
		return l.convertPDF(ctx, src, data)
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return l.html(src, data)
	}
	return string(data), nil
}

func (l *Loader) html(src string, data []byte) (string, error) {
	text, err := HTMLToText(bytes.NewReader(data))
	if err != nil {
		return "", &FetchError{Source: src, Reason: err.Error()}
	}
	return text, nil
}

func (l *Loader) convertPDF(ctx context.Context, src string, data []byte) (string, error) {
	if l.PDF == nil {
		return "", &FetchError{Source: src, Reason: ErrNoPDFConverter.Error()}
	}
	text, err := l.PDF.Convert(ctx, bytes.NewReader(data))
	if err != nil {
		return "", &FetchError{Source: src, Reason: err.Error()}
	}
	return text, nil
}

func (l *Loader) readCapped(r io.Reader, src string) ([]byte, error) {
	limit := l.MaxBytes
	if limit <= 0 {
		limit = 20 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, &FetchError{Source: src, Reason: err.Error()}
	}
	if int64(len(data)) > limit {
		return nil, &FetchError{Source: src, Reason: fmt.Sprintf("content exceeds %d bytes", limit)}
	}
	return data, nil
}

func (l *Loader) logf(format string, args ...any) {
	if l.Log != nil {
		fmt.Fprintf(l.Log, format, args...)
	}
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
