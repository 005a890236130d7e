// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/billgraph/internal/annotator"
	"github.com/pdiddy/billgraph/internal/container"
)

// annotatorContainer is the container name used by start and stop.
const annotatorContainer = "billgraph-corenlp"

var annotatorCmd = &cobra.Command{
	Use:   "annotator",
	Short: "Run and check the local annotator server",
	Long: `Annotator starts or stops a local CoreNLP-compatible server container
with docker or podman, or probes the configured server for liveness.`,
}

var annotatorStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the annotator server container",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := annotatorConfig(cmd, "url")
		port, err := serverPort(cfg.URL)
		if err != nil {
			return err
		}
		rt, err := container.DetectRuntime(logger)
		if err != nil {
			return err
		}
		up, err := rt.Running(annotatorContainer)
		if err != nil {
			return err
		}
		if up {
			fmt.Printf("%s is already running\n", annotatorContainer)
			return nil
		}

		env := map[string]string{"PORT": strconv.Itoa(port)}
		if mem, _ := cmd.Flags().GetString("memory"); mem != "" {
			env["JAVA_XMX"] = mem
		}
		err = rt.Start(container.Server{
			Name:  annotatorContainer,
			Image: cfg.Image,
			Port:  port,
			Env:   env,
		})
		if err != nil {
			return err
		}
		fmt.Printf("started %s (%s) on port %d with %s\n", annotatorContainer, cfg.Image, port, rt.Name())
		return nil
	},
}

var annotatorStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the annotator server container",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := container.DetectRuntime(logger)
		if err != nil {
			return err
		}
		if err := rt.Stop(annotatorContainer); err != nil {
			return err
		}
		fmt.Printf("stopped %s\n", annotatorContainer)
		return nil
	},
}

var annotatorProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the annotator server answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := annotatorConfig(cmd, "url")
		if err := annotator.NewClient(cfg, nil, logger).Probe(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("annotator at %s is up\n", cfg.URL)
		return nil
	},
}

// serverPort returns the port of the annotator URL, defaulting by scheme.
func serverPort(rawURL string) (int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("parsing annotator URL: %w", err)
	}
	if p := u.Port(); p != "" {
		return strconv.Atoi(p)
	}
	if u.Scheme == "https" {
		return 443, nil
	}
	return 80, nil
}

func init() {
	pf := annotatorCmd.PersistentFlags()
	pf.String("url", "", "annotator server URL (default http://localhost:9000)")
	pf.String("image", "", "annotator container image (default nlpbox/corenlp:latest)")
	bindFlag("annotator.image", pf.Lookup("image"))
	annotatorStartCmd.Flags().String("memory", "", "JVM heap for the server, e.g. 4g (image default when empty)")

	annotatorCmd.AddCommand(annotatorStartCmd)
	annotatorCmd.AddCommand(annotatorStopCmd)
	annotatorCmd.AddCommand(annotatorProbeCmd)

	rootCmd.AddCommand(annotatorCmd)
}
