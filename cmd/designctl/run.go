package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	runMaxIterations int
	runJSONOutput    bool
)

// runCmd executes one design pipeline run
var runCmd = &cobra.Command{
	Use:   "run [input]",
	Short: "Run the design pipeline for a business idea",
	Long: `Run the full design pipeline for the given input and print each
role's contribution.

Examples:
  # Run with the input as an argument
  designctl run "build a todo app"

  # Run with the input from stdin
  echo "build a todo app" | designctl run -

  # Allow up to three improvement cycles
  designctl run --max-iterations 3 "build a todo app"

  # Print the raw JSON response
  designctl run --json "build a todo app"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", -1, "improvement cycle budget (server default when unset)")
	runCmd.Flags().BoolVar(&runJSONOutput, "json", false, "print the raw JSON response")
}

// RunRequest matches internal/http/types.go RunRequest
type RunRequest struct {
	Input         string `json:"input"`
	MaxIterations *int   `json:"max_iterations,omitempty"`
}

// RunResponse matches internal/http/types.go RunResponse
type RunResponse struct {
	SessionID string            `json:"session_id"`
	State     map[string]string `json:"state"`
	Verdict   struct {
		Approved  bool   `json:"approved"`
		Feedback  string `json:"feedback"`
		Raw       string `json:"raw"`
		Ambiguous bool   `json:"ambiguous"`
	} `json:"verdict"`
	Iterations int `json:"iterations"`
}

// RolesResponse matches internal/http/types.go RolesResponse
type RolesResponse struct {
	Pipeline        []string `json:"pipeline"`
	ImprovementFlow []string `json:"improvement_flow"`
	Evaluator       string   `json:"evaluator"`
	Roles           []struct {
		Name        string `json:"name"`
		Instruction string `json:"instruction"`
	} `json:"roles"`
}

// runRun handles the run command
func runRun(cmd *cobra.Command, args []string) error {
	var input string
	if len(args) == 0 || args[0] == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		input = strings.TrimSpace(string(content))
	} else {
		input = args[0]
	}

	if input == "" {
		return fmt.Errorf("no input to run")
	}

	req := RunRequest{Input: input}
	if runMaxIterations >= 0 {
		req.MaxIterations = &runMaxIterations
	}

	var resp RunResponse
	if err := postJSON(serverURL+"/api/v1/runs", req, &resp); err != nil {
		return err
	}

	if runJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	// Print stage outputs in pipeline order, then the verdict.
	var roles RolesResponse
	if err := getJSON(serverURL+"/api/v1/roles", &roles); err != nil {
		return err
	}

	for _, name := range roles.Pipeline {
		output, ok := resp.State[name]
		if !ok {
			continue
		}
		fmt.Printf("=== %s ===\n%s\n\n", name, output)
	}

	if resp.Verdict.Approved {
		fmt.Printf("Verdict: approved after %d improvement cycle(s)\n", resp.Iterations)
		if resp.Verdict.Ambiguous {
			fmt.Println("Note: the evaluator's answer carried no explicit verdict")
		}
	} else {
		fmt.Printf("Verdict: needs improvement, budget of %d cycle(s) exhausted\n", resp.Iterations)
		fmt.Printf("Feedback: %s\n", resp.Verdict.Feedback)
	}
	fmt.Fprintf(os.Stderr, "[designctl] session %s\n", resp.SessionID)

	return nil
}
