// Package pesto fetches database dumps from a Pesto server.
package pesto

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pesto/internal/domain/value"
)

// DefaultServerURL is the public Pesto server.
const DefaultServerURL = "https://db.pesto.garden/"

// ContentField holds the JSON-encoded body of a document in raw dumps.
const ContentField = "content"

// Client downloads documents over the sync API.
type Client struct {
	baseURL   string
	accessKey string
	http      *http.Client
	logger    *zap.Logger
}

// NewClient creates a client. baseURL gets a trailing slash if it lacks one.
func NewClient(baseURL, accessKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   baseURL,
		accessKey: accessKey,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// DocumentsURL returns the dump endpoint for database.
func (c *Client) DocumentsURL(database string) string {
	return c.baseURL + "sync/db/" + database + "/documents"
}

// Download fetches the full dump of database. With parseContent, each
// document's content field is decoded as a JSON object, merged into the
// document, and removed.
func (c *Client) Download(ctx context.Context, database string, parseContent bool) ([]*value.Object, error) {
	url := c.DocumentsURL(database)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	docs, err := value.DecodeDump(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode dump: %w", err)
	}
	c.logger.Debug("Downloaded dump",
		zap.String("database", database),
		zap.Int("documents", len(docs)),
		zap.Duration("duration", time.Since(start)),
	)

	if parseContent {
		for i, doc := range docs {
			if err := mergeContent(doc); err != nil {
				return nil, fmt.Errorf("document %d: %w", i, err)
			}
		}
	}
	return docs, nil
}

// Ping checks that the server answers. Any reply below 500 counts as
// reachable; authentication is not checked.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", c.baseURL, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

func mergeContent(doc *value.Object) error {
	raw, ok := doc.Get(ContentField)
	if !ok || raw.Kind() != value.KindString {
		return nil
	}
	parsed, err := value.Parse([]byte(raw.Str()))
	if err != nil {
		return fmt.Errorf("parse %s: %w", ContentField, err)
	}
	if parsed.Kind() != value.KindObject {
		return fmt.Errorf("parse %s: expected an object, got %s", ContentField, parsed.Kind())
	}
	parsed.Object().Range(func(k string, v value.Value) bool {
		doc.Set(k, v)
		return true
	})
	doc.Delete(ContentField)
	return nil
}

// StatusError is a non-200 reply from the server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("pesto server: status %d", e.Code)
	}
	return fmt.Sprintf("pesto server: status %d: %s", e.Code, e.Body)
}
