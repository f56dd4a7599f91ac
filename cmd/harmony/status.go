// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/bandmate/harmony/internal/config"
)

// ProbeStatus holds the result of a single health probe.
type ProbeStatus struct {
	Probe  string `json:"probe"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// statusConfig holds configuration for the status subcommand.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health of a running Harmony server",
		Long:  `Query the liveness and readiness probes of a running Harmony server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, scfg *statusConfig) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 2 * time.Second}
	base := "http://" + cfg.Server.MetricsAddr

	statuses := []ProbeStatus{
		queryProbe(client, base, "liveness"),
		queryProbe(client, base, "readiness"),
	}

	if scfg.jsonOutput {
		data, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	for _, s := range statuses {
		state := "ok"
		if !s.OK {
			state = "failed"
			if s.Detail != "" {
				state = s.Detail
			}
		}
		cmd.Printf("%-10s %s\n", s.Probe, state)
	}
	return nil
}

// queryProbe hits a /healthz endpoint and reports the outcome.
func queryProbe(client *http.Client, base, probe string) ProbeStatus {
	status := ProbeStatus{Probe: probe}

	resp, err := client.Get(base + "/healthz/" + probe)
	if err != nil {
		status.Detail = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		status.Detail = fmt.Sprintf("status %d", resp.StatusCode)
		return status
	}

	status.OK = true
	return status
}
