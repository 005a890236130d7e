// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotator is a client for an external linguistic annotation
// server that speaks the CoreNLP HTTP protocol: raw text is POSTed with a
// "properties" query parameter and the server answers with JSON sentences,
// tokens, dependency graphs, and open relation triples.
package annotator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/billgraph/internal/httputil"
	"github.com/pdiddy/billgraph/pkg/types"
)

// ErrUnavailable is returned when the server cannot be reached or no chunk
// could be annotated.
var ErrUnavailable = errors.New("annotator unavailable")

// ErrMalformedResponse is returned when the server answers 200 with a body
// that is not an annotation document.
var ErrMalformedResponse = errors.New("malformed annotator response")

// probeText is the trivial sentence sent by Probe.
const probeText = "Hello world."

// Client annotates text through an annotation server. A Client is safe for
// sequential use; the extraction path never calls it concurrently.
type Client struct {
	cfg  types.AnnotatorConfig
	http *http.Client
	log  *zap.Logger
}

// NewClient returns a client for cfg. A nil httpClient uses a fresh
// http.Client without its own timeout; per-request deadlines come from
// cfg.Timeout through the request context. A nil logger disables logging.
func NewClient(cfg types.AnnotatorConfig, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.URL == "" {
		cfg.URL = types.DefaultAnnotatorConfig().URL
	}
	if cfg.Annotators == "" {
		cfg.Annotators = types.DefaultAnnotatorConfig().Annotators
	}
	return &Client{cfg: cfg, http: httpClient, log: log}
}

// properties is the per-request pipeline configuration sent to the server.
type properties struct {
	Annotators   string `json:"annotators"`
	OutputFormat string `json:"outputFormat"`
	Timeout      string `json:"timeout,omitempty"`
}

func (c *Client) requestURL() (string, error) {
	props := properties{
		Annotators:   c.cfg.Annotators,
		OutputFormat: "json",
	}
	if c.cfg.ServerTimeout > 0 {
		props.Timeout = strconv.FormatInt(c.cfg.ServerTimeout.Milliseconds(), 10)
	}
	b, err := json.Marshal(props)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(strings.TrimRight(c.cfg.URL, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("parsing annotator URL: %w", err)
	}
	q := u.Query()
	q.Set("properties", string(b))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Annotate sends text to the server and returns its annotation with token
// offsets converted to byte offsets into text. The request is bounded by
// cfg.Timeout and retried on 429/503.
func (c *Client) Annotate(ctx context.Context, text string) (*Document, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	endpoint, err := c.requestURL()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.Username != "" && c.cfg.Password != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries, c.log)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("annotator returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	doc.toByteOffsets(text)
	return &doc, nil
}

// Probe checks that the server is up by annotating a trivial sentence and
// expecting at least one sentence back.
func (c *Client) Probe(ctx context.Context) error {
	start := time.Now()
	doc, err := c.Annotate(ctx, probeText)
	if err != nil {
		return fmt.Errorf("probing %s: %w", c.cfg.URL, err)
	}
	if len(doc.Sentences) == 0 {
		return fmt.Errorf("probing %s: %w: no sentences", c.cfg.URL, ErrMalformedResponse)
	}
	c.log.Debug("annotator probe ok", zap.String("url", c.cfg.URL), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// ChunkStats counts chunk outcomes of AnnotateChunks.
type ChunkStats struct {
	Annotated int
	Failed    int
}

// AnnotateChunks annotates chunks one after another and merges the results.
// offsets[i] is the byte offset of chunks[i] in the combined text. A failed
// chunk is logged and dropped. Work stops when ctx is done. The error is
// non-nil only when no chunk succeeded.
func (c *Client) AnnotateChunks(ctx context.Context, chunks []string, offsets []int) (*Document, ChunkStats, error) {
	if len(chunks) != len(offsets) {
		return nil, ChunkStats{}, fmt.Errorf("annotating chunks: %d chunks but %d offsets", len(chunks), len(offsets))
	}

	var stats ChunkStats
	var parts []Part
	var lastErr error
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			lastErr = err
			stats.Failed += len(chunks) - i
			c.log.Warn("annotation aborted", zap.Int("remaining_chunks", len(chunks)-i), zap.Error(err))
			break
		}
		doc, err := c.Annotate(ctx, chunk)
		if err != nil {
			lastErr = err
			stats.Failed++
			c.log.Warn("chunk annotation failed",
				zap.Int("chunk", i+1), zap.Int("chunks", len(chunks)), zap.Error(err))
			continue
		}
		stats.Annotated++
		parts = append(parts, Part{Doc: doc, Offset: offsets[i]})
		c.log.Debug("chunk annotated",
			zap.Int("chunk", i+1), zap.Int("chunks", len(chunks)), zap.Int("sentences", len(doc.Sentences)))
	}

	if stats.Annotated == 0 {
		if lastErr == nil {
			lastErr = errors.New("no chunks")
		}
		return nil, stats, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	}
	return Merge(parts), stats, nil
}
