package registry

import "github.com/fyrsmithlabs/designd/internal/agent"

// Role names for the built-in design pipeline.
const (
	RoleMarketResearch     = "market_research"
	RoleDemandAnalysis     = "demand_analysis"
	RoleRequirementDef     = "requirement_def"
	RoleSystemDesign       = "system_design"
	RoleServerDesign       = "server_design"
	RoleInfrastructure     = "infrastructure"
	RoleDBTuning           = "db_tuning"
	RoleCodeGeneration     = "code_generation"
	RoleCodeReview         = "code_review"
	RoleTestGeneration     = "test_generation"
	RoleSecurityAudit      = "security_audit"
	RoleDeployment         = "deployment"
	RoleProjectManager     = "project_manager"
	RoleSolutionEvaluation = "solution_evaluation"
)

// defaultInstructions holds the built-in system instruction per role.
var defaultInstructions = map[string]string{
	RoleMarketResearch: "You are the market research agent. Analyse trends, " +
		"competitors and customer demand for the given business idea and report " +
		"your findings.",
	RoleDemandAnalysis: "Using the market research, define the main problem to " +
		"solve and describe user pain points.",
	RoleRequirementDef: "List key features and outline a high level solution " +
		"addressing the identified problem.",
	RoleSystemDesign: "Design the overall architecture including major " +
		"components and their interactions.",
	RoleServerDesign: "Choose frameworks, define API structure and sketch the " +
		"database schema.",
	RoleInfrastructure: "Provide Docker and Kubernetes configuration snippets " +
		"for the target environment.",
	RoleDBTuning: "Refine the database schema and suggest indexing or " +
		"optimisation.",
	RoleCodeGeneration: "Generate or update application source code based on " +
		"the design. Use available tools for quick execution when helpful.",
	RoleCodeReview: "Review the current code and suggest fixes or improvements.",
	RoleTestGeneration: "Write unit tests and report the results of running " +
		"them.",
	RoleSecurityAudit: "Identify potential security vulnerabilities in code " +
		"and configuration.",
	RoleDeployment: "Describe the steps required to deploy the application.",
	RoleProjectManager: "Summarise progress so far and coordinate next steps.",
	RoleSolutionEvaluation: "Evaluate whether the solution satisfies the " +
		"original request. Respond with 'APPROVED' or 'IMPROVE:' followed by " +
		"feedback.",
}

// defaultPipeline is the main pipeline order: research through project
// management, each stage building on its predecessors.
var defaultPipeline = []string{
	RoleMarketResearch,
	RoleDemandAnalysis,
	RoleRequirementDef,
	RoleSystemDesign,
	RoleServerDesign,
	RoleInfrastructure,
	RoleDBTuning,
	RoleCodeGeneration,
	RoleCodeReview,
	RoleTestGeneration,
	RoleSecurityAudit,
	RoleDeployment,
	RoleProjectManager,
}

// defaultImprovementFlow is the subset re-run on each disapproval cycle.
var defaultImprovementFlow = []string{
	RoleCodeGeneration,
	RoleCodeReview,
	RoleTestGeneration,
}

// Default returns the built-in design pipeline registry.
func Default() *Registry {
	roles := make([]agent.Role, 0, len(defaultInstructions))
	for name, instruction := range defaultInstructions {
		roles = append(roles, agent.Role{Name: name, Instruction: instruction})
	}
	r, err := New(roles, defaultPipeline, defaultImprovementFlow, RoleSolutionEvaluation)
	if err != nil {
		// Defaults are covered by tests; a failure here is a programming error.
		panic("registry: invalid default configuration: " + err.Error())
	}
	return r
}
