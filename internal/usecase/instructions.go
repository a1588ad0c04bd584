package usecase

import "strings"

// Execution instruction labels understood by the derivatives protocol.
const (
	instPostOnly   = "ParticipateDoNotInitiate"
	instReduceOnly = "ReduceOnly"
)

// ExecInstructions composes the ordered execution-instruction list from
// the boolean intents. Post-only always precedes reduce-only.
func ExecInstructions(postOnly, reduceOnly bool) []string {
	var inst []string
	if postOnly {
		inst = append(inst, instPostOnly)
	}
	if reduceOnly {
		inst = append(inst, instReduceOnly)
	}
	return inst
}

// JoinExecInstructions renders the instruction list in the comma-joined
// wire form; empty string when no instruction is set.
func JoinExecInstructions(postOnly, reduceOnly bool) string {
	return strings.Join(ExecInstructions(postOnly, reduceOnly), ",")
}
