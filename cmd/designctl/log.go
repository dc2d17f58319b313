package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var logJSONOutput bool

// logCmd fetches a session's chat log
var logCmd = &cobra.Command{
	Use:   "log <session-id>",
	Short: "Fetch a session's chat log",
	Long: `Fetch the chat log for a session: the live window plus any entries
already archived to disk.

Examples:
  # Fetch a session log
  designctl log 6f1c9b1e-8a44-4c2e-9a31-b5a0c3d2e1f0

  # Raw JSON
  designctl log --json 6f1c9b1e-8a44-4c2e-9a31-b5a0c3d2e1f0`,
	Args: cobra.ExactArgs(1),
	RunE: runLog,
}

func init() {
	logCmd.Flags().BoolVar(&logJSONOutput, "json", false, "print the raw JSON response")
}

// SessionLogResponse matches internal/http/types.go SessionLogResponse
type SessionLogResponse struct {
	SessionID string `json:"session_id"`
	Entries   []struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	} `json:"entries"`
	Archived string `json:"archived,omitempty"`
}

// runLog handles the log command
func runLog(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/api/v1/sessions/%s/log", serverURL, args[0])

	var resp SessionLogResponse
	if err := getJSON(url, &resp); err != nil {
		return err
	}

	if logJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if resp.Archived != "" {
		fmt.Print(resp.Archived)
	}
	for _, entry := range resp.Entries {
		fmt.Printf("%s: %s\n", entry.Sender, entry.Text)
	}

	return nil
}
