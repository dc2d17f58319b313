// Package main implements the designctl CLI for manual operations against
// the designd HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the designd HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "designctl",
	Short: "CLI for designd HTTP server operations",
	Long: `designctl is a command-line interface for interacting with the designd HTTP server.
It provides commands for running the design pipeline, listing roles and fetching session logs.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "designd server URL")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(healthCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check designd server health",
	Long: `Check the health status of the designd HTTP server.

Examples:
  # Check health
  designctl health

  # Check health on a different server
  designctl health --server http://localhost:9000`,
	RunE: runHealth,
}

// HealthResponse matches internal/http/types.go HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	var resp HealthResponse
	if err := getJSON(serverURL+"/health", &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to reach %s: %v\n", serverURL, err)
		return err
	}

	fmt.Printf("Server Status: %s\n", resp.Status)
	fmt.Printf("Server URL: %s\n", serverURL)

	return nil
}
