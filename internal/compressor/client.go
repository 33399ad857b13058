// Package compressor talks to the remote PDF compression service.
package compressor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/Pavankumarbhedam/Pdf-compressior/internal/domain"
)

const (
	compressPath = "/api/pdf/compress"
	// RequestIDHeader correlates client and service logs.
	RequestIDHeader = "X-Request-ID"

	defaultMaxResponseBytes = 4 * domain.MaxUploadBytes
)

// ErrResponseTooLarge is returned when the service sends more than the
// client is willing to buffer.
var ErrResponseTooLarge = errors.New("response body exceeds limit")

// Response is the raw answer of the service.
type Response struct {
	StatusCode int
	Body       []byte
}

// Service is the port the workflow submits requests through.
type Service interface {
	Compress(ctx context.Context, req domain.CompressionRequest) (Response, error)
}

type Client struct {
	endpoint         *url.URL
	httpClient       *http.Client
	logger           log.Logger
	maxResponseBytes int64
}

// NewClient builds a client for the service rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger log.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse service url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported service url scheme %q", u.Scheme)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	u.Path = strings.TrimRight(u.Path, "/") + compressPath
	u.RawPath = ""
	return &Client{
		endpoint:         u,
		httpClient:       &http.Client{Timeout: timeout},
		logger:           logger,
		maxResponseBytes: defaultMaxResponseBytes,
	}, nil
}

// Compress posts the selected file as multipart field "file" and returns the
// status code and body. A non-nil error means no response was received.
func (c *Client) Compress(ctx context.Context, req domain.CompressionRequest) (Response, error) {
	f, err := os.Open(req.File.Path)
	if err != nil {
		return Response{}, fmt.Errorf("open %s: %w", req.File.Name, err)
	}
	defer f.Close()

	u := *c.endpoint
	q := u.Query()
	q.Set("targetKb", strconv.Itoa(req.TargetKb))
	u.RawQuery = q.Encode()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		// send only the bytes that were validated at selection time
		pw.CloseWithError(writePayload(mw, req.File, io.LimitReader(f, req.File.SizeBytes)))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), pr)
	if err != nil {
		_ = pr.Close()
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", domain.PDFMIMEType)
	if req.ID != "" {
		httpReq.Header.Set(RequestIDHeader, req.ID)
	}

	level.Info(c.logger).Log("msg", "submitting compression",
		"request_id", req.ID,
		"file", req.File.Name,
		"size", humanize.Bytes(uint64(req.File.SizeBytes)),
		"target_kb", req.TargetKb,
	)

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		_ = pr.Close()
		return Response{}, fmt.Errorf("post %s: %w", c.endpoint.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes+1))
	if err != nil {
		return Response{StatusCode: resp.StatusCode}, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > c.maxResponseBytes {
		return Response{StatusCode: resp.StatusCode}, ErrResponseTooLarge
	}

	level.Info(c.logger).Log("msg", "compression response",
		"request_id", req.ID,
		"status", resp.StatusCode,
		"size", humanize.Bytes(uint64(len(body))),
		"took", time.Since(started).Round(time.Millisecond),
	)

	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func writePayload(mw *multipart.Writer, file domain.SelectedFile, r io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	h.Set("Content-Type", domain.PDFMIMEType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err = io.Copy(part, r); err != nil {
		return err
	}
	return mw.Close()
}
