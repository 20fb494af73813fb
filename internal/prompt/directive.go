// Package prompt turns a spoken question into a generation request and
// cleans up what the model sends back.
//
// Users steer the answer with phrases embedded in the question itself
// ("give me a long answer", "in table format"). ParseDirectives finds and
// strips them, ComposeInstruction maps them to an instruction and a token
// budget, and Sanitize trims the length-capped output to its last complete
// sentence or table row. Engine wires the three around an llm.Generator.
package prompt

import "strings"

// Flags records which answer-style directives a question carried.
type Flags struct {
	Detailed         bool `json:"detailed"`
	WithExample      bool `json:"with_example"`
	BulletPoints     bool `json:"bullet_points"`
	StepByStep       bool `json:"step_by_step"`
	Technical        bool `json:"technical"`
	BeginnerFriendly bool `json:"beginner_friendly"`
	TableFormat      bool `json:"table_format"`
	RealWorldExample bool `json:"real_world_example"`
	ForInterview     bool `json:"for_interview"`
}

type directive struct {
	phrase string
	name   string
	field  func(*Flags) *bool
}

// directives is matched and stripped in this order. The phrases do not
// contain one another.
var directives = []directive{
	{"long answer", "detailed", func(f *Flags) *bool { return &f.Detailed }},
	{"with example", "with_example", func(f *Flags) *bool { return &f.WithExample }},
	{"bullet points", "bullet_points", func(f *Flags) *bool { return &f.BulletPoints }},
	{"step by step", "step_by_step", func(f *Flags) *bool { return &f.StepByStep }},
	{"technical explanation", "technical", func(f *Flags) *bool { return &f.Technical }},
	{"explain like beginner", "beginner_friendly", func(f *Flags) *bool { return &f.BeginnerFriendly }},
	{"table format", "table_format", func(f *Flags) *bool { return &f.TableFormat }},
	{"real world example", "real_world_example", func(f *Flags) *bool { return &f.RealWorldExample }},
	{"for interview", "for_interview", func(f *Flags) *bool { return &f.ForInterview }},
}

// Phrases returns the recognized directive phrases in matching order.
func Phrases() []string {
	out := make([]string, len(directives))
	for i, d := range directives {
		out[i] = d.phrase
	}
	return out
}

// ParseDirectives lowercases the question, removes every occurrence of each
// recognized directive phrase and reports which ones were present.
// A flag is set only for phrases in the lowercased input. Removal repeats
// until no matched phrase is left in the text.
func ParseDirectives(question string) (string, Flags) {
	var flags Flags
	text := strings.ToLower(question)
	var matched []string
	for _, d := range directives {
		if strings.Contains(text, d.phrase) {
			*d.field(&flags) = true
			matched = append(matched, d.phrase)
		}
	}
	for changed := true; changed; {
		changed = false
		for _, phrase := range matched {
			for strings.Contains(text, phrase) {
				text = strings.ReplaceAll(text, phrase, "")
				changed = true
			}
		}
	}
	return strings.TrimSpace(text), flags
}

// Names lists the set directives by name, in matching order.
func (f Flags) Names() []string {
	var names []string
	for _, d := range directives {
		if *d.field(&f) {
			names = append(names, d.name)
		}
	}
	return names
}

// Any reports whether at least one directive is set.
func (f Flags) Any() bool {
	return f != Flags{}
}
