package pipeline

import (
	"errors"

	"github.com/jonathan/resume-genie/internal/schemas"
)

// binding maps a state document to a template placeholder.
type binding struct {
	role        Role
	placeholder string
}

// stepDef describes one step: which template it formats, what it produces and
// how its template variables are gathered from the state.
type stepDef struct {
	promptKey string
	output    Role
	schema    schemas.Kind
	inputs    []binding
	build     func(*State) (map[string]string, error)
}

var stepTable = map[StepKind]stepDef{
	StepAnalyzeRequirements: newStepDef("analyze-requirements", RoleJobAnalysis, schemas.KindJobAnalysis,
		binding{RoleJobPosting, "JobPosting"},
	),
	StepEnhanceProfile: newStepDef("enhance-profile", RoleEnhancedProfile, schemas.KindEnhancedProfile,
		binding{RoleJobAnalysis, "JobAnalysis"},
		binding{RoleResume, "Resume"},
	),
	StepPolishResume: newStepDef("polish-resume", RoleRefinedResume, schemas.KindRefinedResume,
		binding{RoleJobAnalysis, "JobAnalysis"},
		binding{RoleEnhancedProfile, "EnhancedProfile"},
		binding{RoleResume, "Resume"},
	),
	StepPrepareInterview: newStepDef("prepare-interview", RoleInterviewGuide, schemas.KindInterviewGuide,
		binding{RoleRefinedResume, "RefinedResume"},
		binding{RoleJobPosting, "JobPosting"},
	),
}

func newStepDef(promptKey string, output Role, schema schemas.Kind, inputs ...binding) stepDef {
	return stepDef{
		promptKey: promptKey,
		output:    output,
		schema:    schema,
		inputs:    inputs,
		build: func(s *State) (map[string]string, error) {
			vars := make(map[string]string, len(inputs))
			for _, in := range inputs {
				doc, err := s.Document(in.role)
				if err != nil {
					return nil, err
				}
				vars[in.placeholder] = doc.Text()
			}
			return vars, nil
		},
	}
}

// buildInputs gathers the template variables for step, tagging any ordering
// violation with the step that caused it.
func buildInputs(step StepKind, s *State) (map[string]string, error) {
	def, ok := stepTable[step]
	if !ok {
		return nil, &StepOrderError{Step: step}
	}
	vars, err := def.build(s)
	var orderErr *StepOrderError
	if errors.As(err, &orderErr) {
		orderErr.Step = step
	}
	return vars, err
}

// Inputs returns the roles a step reads, in template order.
func (k StepKind) Inputs() []Role {
	def, ok := stepTable[k]
	if !ok {
		return nil
	}
	roles := make([]Role, len(def.inputs))
	for i, in := range def.inputs {
		roles[i] = in.role
	}
	return roles
}

// PromptKey returns the template key the step formats.
func (k StepKind) PromptKey() string {
	return stepTable[k].promptKey
}

// SchemaKind returns the document schema the step's output is checked against.
func (k StepKind) SchemaKind() schemas.Kind {
	return stepTable[k].schema
}
