package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role labels what a Document holds.
type Role string

// Document roles. The first two are run inputs, the rest are step outputs.
const (
	RoleJobPosting      Role = "job posting"
	RoleResume          Role = "resume"
	RoleJobAnalysis     Role = "job analysis"
	RoleEnhancedProfile Role = "enhanced profile"
	RoleRefinedResume   Role = "refined resume"
	RoleInterviewGuide  Role = "interview guide"
)

// Document is a piece of text with a role. It cannot be changed once created.
type Document struct {
	role Role
	text string
}

// NewDocument creates a Document.
func NewDocument(role Role, text string) Document {
	return Document{role: role, text: text}
}

// Role returns the document's role.
func (d Document) Role() Role { return d.role }

// Text returns the document's text exactly as it was produced.
func (d Document) Text() string { return d.text }

// IsZero reports whether the document was never set.
func (d Document) IsZero() bool { return d.role == "" && d.text == "" }

// MarshalJSON encodes the document as {"role": ..., "text": ...}.
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Role Role   `json:"role"`
		Text string `json:"text"`
	}{d.role, d.text})
}

// StepKind identifies one of the four pipeline steps.
type StepKind int

// Pipeline steps in execution order.
const (
	StepAnalyzeRequirements StepKind = iota + 1
	StepEnhanceProfile
	StepPolishResume
	StepPrepareInterview
)

// Steps lists every step in execution order.
var Steps = []StepKind{
	StepAnalyzeRequirements,
	StepEnhanceProfile,
	StepPolishResume,
	StepPrepareInterview,
}

var stepNames = map[StepKind]string{
	StepAnalyzeRequirements: "analyzeRequirements",
	StepEnhanceProfile:      "enhanceProfile",
	StepPolishResume:        "polishResume",
	StepPrepareInterview:    "prepareInterview",
}

func (k StepKind) String() string {
	if name, ok := stepNames[k]; ok {
		return name
	}
	if k == 0 {
		return ""
	}
	return fmt.Sprintf("StepKind(%d)", int(k))
}

// Index returns the 1-based position of the step in the run.
func (k StepKind) Index() int {
	return int(k)
}

// Valid reports whether k names a real step.
func (k StepKind) Valid() bool {
	_, ok := stepNames[k]
	return ok
}

// OutputRole returns the role of the document the step produces.
func (k StepKind) OutputRole() Role {
	if def, ok := stepTable[k]; ok {
		return def.output
	}
	return ""
}

// MarshalText implements encoding.TextMarshaler.
func (k StepKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *StepKind) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = 0
		return nil
	}
	parsed, err := ParseStepKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseStepKind accepts a step name ("polishResume"), a snake_case alias
// ("polish_resume") or the name of the step's output ("refined_resume").
func ParseStepKind(s string) (StepKind, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
	for _, k := range Steps {
		if norm == strings.ToLower(k.String()) {
			return k, nil
		}
		if norm == strings.ReplaceAll(string(k.OutputRole()), " ", "") {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", s)
}

// StepResult records one completed step.
type StepResult struct {
	Step      StepKind
	Document  Document
	Prompt    string
	StartedAt time.Time
	Duration  time.Duration
}
