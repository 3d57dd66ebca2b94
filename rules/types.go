package rules

import "time"

// Wildcard is the condition tag that matches every object.
const Wildcard = "*"

// ActionKind identifies what a matching condition does
type ActionKind int

const (
	// ActionGoto transfers evaluation to another rule
	ActionGoto ActionKind = iota + 1
	// ActionResult ends evaluation with a classification label
	ActionResult
)

func (k ActionKind) String() string {
	switch k {
	case ActionGoto:
		return "goto"
	case ActionResult:
		return "result"
	default:
		return "unknown"
	}
}

// Action is either Goto(Target) or Result(Label), selected by Kind
type Action struct {
	Kind   ActionKind
	Target int    // 1-based rule number, set for ActionGoto
	Label  string // classification, set for ActionResult
}

// Goto returns an action that jumps to rule n
func Goto(n int) Action {
	return Action{Kind: ActionGoto, Target: n}
}

// Result returns a terminal action yielding label
func Result(label string) Action {
	return Action{Kind: ActionResult, Label: label}
}

// Condition is a single tag test within a rule
type Condition struct {
	Tag     string
	Negated bool
	Action  Action
}

// Matches reports whether the condition fires for obj.
func (c Condition) Matches(obj Object) bool {
	if c.Tag == Wildcard && !c.Negated {
		return true
	}
	_, has := obj.Conditions[c.Tag]
	return has != c.Negated
}

// Rule is an ordered list of conditions; the first match wins
type Rule struct {
	Conditions []Condition
}

// Key is the rule table. Rule 1 (index 0) is the entry point for every object.
type Key struct {
	Rules []Rule
}

// Rule returns the rule with 1-based number n
func (k Key) Rule(n int) (Rule, bool) {
	if n < 1 || n > len(k.Rules) {
		return Rule{}, false
	}
	return k.Rules[n-1], true
}

// Object is an entity to classify: a name and the tags it possesses
type Object struct {
	Name       string
	Conditions map[string]struct{}
}

// NewObject builds an object from a name and a list of tags
func NewObject(name string, tags ...string) Object {
	obj := Object{Name: name, Conditions: make(map[string]struct{}, len(tags))}
	for _, tag := range tags {
		obj.Conditions[tag] = struct{}{}
	}
	return obj
}

// Has reports whether the object possesses tag
func (o Object) Has(tag string) bool {
	_, ok := o.Conditions[tag]
	return ok
}

// Classification is the outcome of evaluating one object
type Classification struct {
	Object        string `json:"object" yaml:"object"`
	Label         string `json:"label,omitempty" yaml:"label,omitempty"`
	Indeterminate bool   `json:"indeterminate" yaml:"indeterminate"`
	Path          []int  `json:"path" yaml:"path"` // rule numbers visited, in order
}

// StoredKey is a named key source kept by a KeyStore
type StoredKey struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
