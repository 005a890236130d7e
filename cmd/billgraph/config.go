// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/billgraph/internal/secrets"
	"github.com/pdiddy/billgraph/pkg/types"
)

// bindFlag ties a config key to a flag. Flags win over the config file and
// BILLGRAPH_* environment variables only when set on the command line.
// Keys are unique per stage so that bindings do not replace each other.
func bindFlag(key string, f *pflag.Flag) {
	cobra.CheckErr(viper.BindPFlag(key, f))
}

func setString(key string, dst *string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func setInt(key string, dst *int) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func setBool(key string, dst *bool) {
	if viper.IsSet(key) {
		*dst = viper.GetBool(key)
	}
}

func setFloat(key string, dst *float64) {
	if viper.IsSet(key) {
		*dst = viper.GetFloat64(key)
	}
}

func setDuration(key string, dst *time.Duration) {
	if viper.IsSet(key) {
		*dst = viper.GetDuration(key)
	}
}

func loggingConfig() types.LoggingConfig {
	cfg := types.DefaultLoggingConfig()
	setString("logging.level", &cfg.Level)
	setString("logging.format", &cfg.Format)
	setString("logging.file", &cfg.File)
	setInt("logging.max_size_mb", &cfg.MaxSizeMB)
	setInt("logging.max_backups", &cfg.MaxBackups)
	setInt("logging.max_age_days", &cfg.MaxAgeDays)
	return cfg
}

func acquisitionConfig() types.AcquisitionConfig {
	cfg := types.DefaultAcquisitionConfig()
	setDuration("acquisition.timeout", &cfg.Timeout)
	setString("acquisition.user_agent", &cfg.UserAgent)
	setDuration("acquisition.download_delay", &cfg.DownloadDelay)
	setInt("acquisition.session", &cfg.Session)
	setString("acquisition.bills_dir", &cfg.BillsDir)
	return cfg
}

func conversionConfig() types.ConversionConfig {
	cfg := types.ConversionConfig{BillsDir: "bills"}
	setString("conversion.bills_dir", &cfg.BillsDir)
	setBool("conversion.force", &cfg.Force)
	return cfg
}

// annotatorConfig applies credentials from .secrets/ to fields the config
// leaves empty. Several commands take a server URL flag, so urlFlag is
// applied here instead of through a shared binding.
func annotatorConfig(cmd *cobra.Command, urlFlag string) types.AnnotatorConfig {
	cfg := types.DefaultAnnotatorConfig()
	setDuration("annotator.timeout", &cfg.Timeout)
	setString("annotator.user_agent", &cfg.UserAgent)
	setString("annotator.url", &cfg.URL)
	setString("annotator.annotators", &cfg.Annotators)
	setDuration("annotator.server_timeout", &cfg.ServerTimeout)
	setInt("annotator.max_retries", &cfg.MaxRetries)
	setString("annotator.username", &cfg.Username)
	setString("annotator.password", &cfg.Password)
	setString("annotator.image", &cfg.Image)
	if f := cmd.Flags().Lookup(urlFlag); f != nil && f.Changed {
		cfg.URL = f.Value.String()
	}
	secrets.ApplyAnnotator(&cfg, loadedSecrets)
	return cfg
}

func extractionConfig() types.ExtractionConfig {
	cfg := types.DefaultExtractionConfig()
	setString("extraction.bills_dir", &cfg.BillsDir)
	setString("extraction.output_dir", &cfg.OutputDir)
	setString("extraction.profile", &cfg.Profile)
	setString("extraction.patterns_file", &cfg.PatternsFile)
	setBool("extraction.patterns_only", &cfg.PatternsOnly)
	setBool("extraction.skip_probe", &cfg.SkipProbe)
	setInt("extraction.chunk_size", &cfg.ChunkSize)
	setInt("extraction.chunk_threshold", &cfg.ChunkThreshold)
	setDuration("extraction.deadline", &cfg.Deadline)
	setBool("extraction.force", &cfg.Force)

	var tieBreak string
	setString("extraction.tie_break", &tieBreak)
	if tieBreak != "" {
		cfg.TieBreak = types.RelationTieBreak(tieBreak)
	}
	return cfg
}

func knowledgeBaseConfig() types.KnowledgeBaseConfig {
	cfg := types.DefaultKnowledgeBaseConfig()
	setString("knowledge_base.extractions_dir", &cfg.ExtractionsDir)
	setString("knowledge_base.index_dir", &cfg.IndexDir)
	setInt("knowledge_base.max_results", &cfg.MaxResults)
	return cfg
}

// knowledgeBillsDir is where the knowledge stage finds bill metadata and
// text for trace.
func knowledgeBillsDir() string {
	dir := "bills"
	setString("knowledge_base.bills_dir", &dir)
	return dir
}

func ontologyConfig() types.OntologyConfig {
	cfg := types.DefaultOntologyConfig()
	setString("ontology.base_iri", &cfg.BaseIRI)
	setString("ontology.output_dir", &cfg.OutputDir)
	setFloat("ontology.min_confidence", &cfg.MinConfidence)
	return cfg
}
