// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/billgraph/internal/httputil"
	"github.com/pdiddy/billgraph/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

// fakeServer answers every request with one sentence whose tokens are the
// whitespace-separated words of the request body.
func fakeServer(t *testing.T, fail func(body string) bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body := string(b)
		if fail != nil && fail(body) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var doc Document
		s := Sentence{}
		off := 0
		for i, word := range strings.Fields(body) {
			begin := strings.Index(body[off:], word) + off
			s.Tokens = append(s.Tokens, Token{
				Index: i + 1, Word: word, NER: "O",
				CharacterOffsetBegin: begin, CharacterOffsetEnd: begin + len(word),
			})
			off = begin + len(word)
		}
		s.OpenIE = []Triple{{Subject: "s", Relation: "r", Object: body}}
		doc.Sentences = []Sentence{s}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(doc)
	}))
}

func testConfig(url string) types.AnnotatorConfig {
	cfg := types.DefaultAnnotatorConfig()
	cfg.URL = url
	cfg.Timeout = 2 * time.Second
	cfg.MaxRetries = 1
	return cfg
}

func TestAnnotateSendsProtocol(t *testing.T) {
	var gotProps properties
	var gotType, gotBody, gotUser string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("properties")), &gotProps))
		gotType = r.Header.Get("Content-Type")
		gotUser, _, _ = r.BasicAuth()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		io.WriteString(w, `{"sentences":[{"index":0,"tokens":[{"index":1,"word":"Hello","characterOffsetBegin":0,"characterOffsetEnd":5}]}]}`)
	}))
	defer ts.Close()

	cfg := testConfig(ts.URL)
	cfg.Username, cfg.Password = "user", "secret"
	c := NewClient(cfg, ts.Client(), nil)

	doc, err := c.Annotate(context.Background(), "Hello world.")
	require.NoError(t, err)
	require.Len(t, doc.Sentences, 1)

	assert.Equal(t, "tokenize,ssplit,pos,lemma,ner,depparse,openie", gotProps.Annotators)
	assert.Equal(t, "json", gotProps.OutputFormat)
	assert.Equal(t, "30000", gotProps.Timeout)
	assert.Equal(t, "text/plain; charset=utf-8", gotType)
	assert.Equal(t, "Hello world.", gotBody)
	assert.Equal(t, "user", gotUser)
}

func TestAnnotateConvertsUTF16Offsets(t *testing.T) {
	// "§1 😀 farm": § is 2 bytes / 1 unit, 😀 is 4 bytes / 2 units.
	text := "§1 😀 farm"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"sentences":[{"tokens":[
			{"index":1,"word":"§1","characterOffsetBegin":0,"characterOffsetEnd":2},
			{"index":2,"word":"😀","characterOffsetBegin":3,"characterOffsetEnd":5},
			{"index":3,"word":"farm","characterOffsetBegin":6,"characterOffsetEnd":10}]}]}`)
	}))
	defer ts.Close()

	doc, err := NewClient(testConfig(ts.URL), ts.Client(), nil).Annotate(context.Background(), text)
	require.NoError(t, err)

	for _, tok := range doc.Sentences[0].Tokens {
		assert.Equal(t, tok.Word, text[tok.CharacterOffsetBegin:tok.CharacterOffsetEnd])
	}
}

func TestAnnotateErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		is      error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				io.WriteString(w, "boom")
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				io.WriteString(w, "<html>not json</html>")
			},
			is: ErrMalformedResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			_, err := NewClient(testConfig(ts.URL), ts.Client(), nil).Annotate(context.Background(), "text")
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestAnnotateTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	cfg := testConfig(ts.URL)
	cfg.Timeout = 50 * time.Millisecond
	_, err := NewClient(cfg, ts.Client(), nil).Annotate(context.Background(), "text")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestProbe(t *testing.T) {
	ts := fakeServer(t, nil)
	defer ts.Close()
	assert.NoError(t, NewClient(testConfig(ts.URL), ts.Client(), nil).Probe(context.Background()))

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"sentences":[]}`)
	}))
	defer empty.Close()
	err := NewClient(testConfig(empty.URL), empty.Client(), nil).Probe(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestProbeUnreachable(t *testing.T) {
	ts := fakeServer(t, nil)
	url := ts.URL
	ts.Close()

	err := NewClient(testConfig(url), nil, nil).Probe(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAnnotateChunksDropsFailures(t *testing.T) {
	ts := fakeServer(t, func(body string) bool { return strings.Contains(body, "bad") })
	defer ts.Close()

	c := NewClient(testConfig(ts.URL), ts.Client(), nil)
	chunks := []string{"one two.", "bad chunk.", "three four."}
	offsets := []int{0, 9, 20}

	doc, stats, err := c.AnnotateChunks(context.Background(), chunks, offsets)
	require.NoError(t, err)
	assert.Equal(t, ChunkStats{Annotated: 2, Failed: 1}, stats)
	require.Len(t, doc.Sentences, 2)

	assert.Equal(t, 0, doc.Sentences[0].Index)
	assert.Equal(t, 1, doc.Sentences[1].Index)
	assert.Equal(t, 20, doc.Sentences[1].Tokens[0].CharacterOffsetBegin)
	assert.Equal(t, 26, doc.Sentences[1].Tokens[1].CharacterOffsetBegin)
	assert.Len(t, doc.Triples(), 2)
}

func TestAnnotateChunksAllFail(t *testing.T) {
	var calls int32
	ts := fakeServer(t, func(string) bool { atomic.AddInt32(&calls, 1); return true })
	defer ts.Close()

	_, stats, err := NewClient(testConfig(ts.URL), ts.Client(), nil).
		AnnotateChunks(context.Background(), []string{"a.", "b."}, []int{0, 3})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAnnotateChunksStopsOnCancel(t *testing.T) {
	ts := fakeServer(t, nil)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, stats, err := NewClient(testConfig(ts.URL), ts.Client(), nil).
		AnnotateChunks(ctx, []string{"a.", "b."}, []int{0, 3})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, ChunkStats{Failed: 2}, stats)
}

func TestAnnotateChunksLengthMismatch(t *testing.T) {
	c := NewClient(testConfig("http://localhost:1"), nil, nil)
	_, _, err := c.AnnotateChunks(context.Background(), []string{"a"}, nil)
	assert.Error(t, err)
}
