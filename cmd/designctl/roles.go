package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rolesJSONOutput bool

// rolesCmd lists the configured roles and pipeline layout
var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the configured roles and pipeline order",
	Long: `List every configured role, the main pipeline order, the improvement
flow and the evaluator.

Examples:
  # Human-readable listing
  designctl roles

  # Raw JSON
  designctl roles --json`,
	RunE: runRoles,
}

func init() {
	rolesCmd.Flags().BoolVar(&rolesJSONOutput, "json", false, "print the raw JSON response")
}

// runRoles handles the roles command
func runRoles(cmd *cobra.Command, args []string) error {
	var resp RolesResponse
	if err := getJSON(serverURL+"/api/v1/roles", &resp); err != nil {
		return err
	}

	if rolesJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Println("Pipeline:")
	for i, name := range resp.Pipeline {
		fmt.Printf("  %2d. %s\n", i+1, name)
	}

	fmt.Println("\nImprovement flow:")
	for _, name := range resp.ImprovementFlow {
		fmt.Printf("  - %s\n", name)
	}

	fmt.Printf("\nEvaluator: %s\n", resp.Evaluator)

	fmt.Println("\nInstructions:")
	for _, role := range resp.Roles {
		fmt.Printf("  %s: %s\n", role.Name, role.Instruction)
	}

	return nil
}
