// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chicohaager/lectoria/internal/config"
)

// ProbeStatus holds the result of one health probe.
type ProbeStatus struct {
	Probe   string `json:"probe"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	addr       string
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand with all flags configured.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health of a running Lectoria server",
		Long: `Query the liveness and readiness probes of a running server's
observability endpoint and report the results.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	// Register flags
	cmd.Flags().StringVar(&cfg.addr, "addr", "", "observability address to probe (default from config)")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	addr := cfg.addr
	if addr == "" {
		fileCfg, err := config.Load(resolveConfigFile(), nil)
		if err != nil {
			return err
		}
		addr = fileCfg.MetricsListen
	}
	if addr == "" {
		return fmt.Errorf("no observability address: metrics are disabled, pass --addr")
	}

	client := &http.Client{Timeout: 2 * time.Second}
	statuses := []ProbeStatus{
		queryProbe(client, addr, "liveness"),
		queryProbe(client, addr, "readiness"),
	}

	var output string
	var err error

	if cfg.jsonOutput {
		output, err = formatStatusJSON(statuses)
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
	} else {
		output = formatStatusTable(statuses)
	}

	cmd.Println(output)

	for _, status := range statuses {
		if !status.Healthy {
			return fmt.Errorf("probe %s is unhealthy", status.Probe)
		}
	}
	return nil
}

// queryProbe hits one /healthz endpoint and records the outcome.
func queryProbe(client *http.Client, addr, probe string) ProbeStatus {
	status := ProbeStatus{Probe: probe}

	resp, err := client.Get(fmt.Sprintf("http://%s/healthz/%s", addr, probe))
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		status.Error = fmt.Sprintf("failed to read response: %v", err)
		return status
	}

	status.Healthy = resp.StatusCode == http.StatusOK
	status.Detail = strings.TrimSpace(string(body))
	return status
}

// formatStatusTable formats the probe results as a human-readable table.
func formatStatusTable(statuses []ProbeStatus) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	// Header
	_, _ = fmt.Fprintln(w, "PROBE\tRESULT\tDETAIL")
	_, _ = fmt.Fprintln(w, "-----\t------\t------")

	for _, status := range statuses {
		result := "healthy"
		detail := status.Detail
		if !status.Healthy {
			result = "unhealthy"
			if status.Error != "" {
				detail = status.Error
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", status.Probe, result, detail)
	}

	_ = w.Flush()
	return string(buf)
}

// formatStatusJSON formats the probe results as JSON.
func formatStatusJSON(statuses []ProbeStatus) (string, error) {
	data, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal status: %w", err)
	}
	return string(data), nil
}

// byteWriter is a simple writer that appends to a byte slice.
type byteWriter []byte

func (w *byteWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
