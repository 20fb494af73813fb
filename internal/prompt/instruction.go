package prompt

import "strings"

// Output budgets in tokens. Asking for a long answer doubles the budget.
const (
	ConciseMaxTokens  = 150
	DetailedMaxTokens = 300
)

const baseInstruction = "Answer clearly and completely within the given space."

// ComposeInstruction builds the generation instruction and output budget for
// a set of directives. Clauses are appended in a fixed order.
func ComposeInstruction(f Flags) (string, int) {
	clauses := []string{baseInstruction}

	maxTokens := ConciseMaxTokens
	if f.Detailed {
		clauses = append(clauses, "Give a detailed explanation.")
		maxTokens = DetailedMaxTokens
	} else {
		clauses = append(clauses, "Keep it concise but complete.")
	}

	optional := []struct {
		on     bool
		clause string
	}{
		{f.BulletPoints, "Use bullet points."},
		{f.StepByStep, "Use numbered steps."},
		{f.TableFormat, "Respond strictly in table format."},
		{f.Technical, "Use technical terminology."},
		{f.BeginnerFriendly, "Use simple beginner-friendly language."},
		{f.WithExample, "Include a simple example."},
		{f.RealWorldExample, "Include a real world example."},
		{f.ForInterview, "Structure the answer professionally."},
	}
	for _, o := range optional {
		if o.on {
			clauses = append(clauses, o.clause)
		}
	}

	return strings.Join(clauses, " "), maxTokens
}
