package pipeline

// retryBudget encodes, as data, which stages may retry after a failure and
// how many extra attempts each gets. Only the transient-I/O-prone stages
// appear here; extraction is deliberately absent so a flaky model call never
// compounds quota costs.
var retryBudget = map[State]int{
	StatePublishing: 1,
	StateWriting:    1,
}

// maxAttempts returns the total attempts permitted for a stage.
func maxAttempts(s State) int {
	return retryBudget[s] + 1
}
