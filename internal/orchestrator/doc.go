// Package orchestrator runs the multi-stage design pipeline and its
// approve/improve convergence loop.
//
// # Overview
//
// A run turns one user request into a set of per-role outputs (market
// research through deployment notes). The engine executes the main pipeline
// once, asks the evaluator role for a verdict, and, while the verdict asks
// for improvement and iteration budget remains, re-runs the improvement
// subset with the evaluator's feedback injected into the conversation.
//
// # Context propagation
//
// Two policies are supported:
//
//   - PolicySequential (default): each stage sees the full conversation
//     accumulated so far and its output is appended before the next stage
//     runs. Later stages build on earlier decisions.
//   - PolicyFanOut: main-pipeline stages see only the original user input
//     and run concurrently; outputs are aggregated in declaration order
//     after all complete. Improvement cycles are always sequential.
//
// # Failure model
//
// Stage failures never abort a run. The agent invoker converts backend
// errors into attributable sentinel text that flows through the pipeline
// like any other output, so the evaluator (and the end user) can see
// exactly which stage failed. The only errors Run returns are caller
// mistakes (negative iteration budget), registry inconsistencies, and
// context cancellation.
package orchestrator
