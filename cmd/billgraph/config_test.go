// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/billgraph/pkg/types"
)

func TestExtractionConfigFromViper(t *testing.T) {
	t.Cleanup(viper.Reset)

	cfg := extractionConfig()
	assert.Equal(t, types.DefaultExtractionConfig(), cfg)

	viper.Set("extraction.profile", "school-gardens")
	viper.Set("extraction.deadline", "90s")
	viper.Set("extraction.tie_break", "confidence")
	viper.Set("extraction.chunk_size", 800)

	cfg = extractionConfig()
	assert.Equal(t, "school-gardens", cfg.Profile)
	assert.Equal(t, 90*time.Second, cfg.Deadline)
	assert.Equal(t, types.TieBreakConfidence, cfg.TieBreak)
	assert.Equal(t, 800, cfg.ChunkSize)
	assert.Equal(t, "extractions", cfg.OutputDir)
}

func TestAnnotatorConfigSecrets(t *testing.T) {
	t.Cleanup(viper.Reset)
	saved := loadedSecrets
	t.Cleanup(func() { loadedSecrets = saved })

	loadedSecrets = map[string]string{
		"corenlp-username": "nlp",
		"corenlp-password": "secret",
	}
	viper.Set("annotator.username", "configured")

	cfg := annotatorConfig(annotatorProbeCmd, "url")
	assert.Equal(t, "configured", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "http://localhost:9000", cfg.URL)
}

func TestServerPort(t *testing.T) {
	tests := []struct {
		url  string
		want int
	}{
		{"http://localhost:9000", 9000},
		{"http://annotator.internal", 80},
		{"https://annotator.internal/", 443},
	}
	for _, tt := range tests {
		got, err := serverPort(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}

	_, err := serverPort("http://localhost:port")
	assert.Error(t, err)
}

func TestDefaultOntologyName(t *testing.T) {
	assert.Equal(t, "hb767_ontology", defaultOntologyName("HB767", 1))
	assert.Equal(t, "combined_3_bills_ontology", defaultOntologyName("HB767", 3))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "farm to...", truncate("farm to school program", 10))
}
