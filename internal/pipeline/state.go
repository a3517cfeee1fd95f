package pipeline

// State holds the documents a run has produced so far. Step output fields
// stay zero until their step completes.
type State struct {
	JobPosting      Document
	Resume          Document
	JobAnalysis     Document
	EnhancedProfile Document
	RefinedResume   Document
	InterviewGuide  Document

	// History has one entry per completed step, in completion order.
	History []StepResult
}

func newState(jobPosting, resume string) *State {
	return &State{
		JobPosting: NewDocument(RoleJobPosting, jobPosting),
		Resume:     NewDocument(RoleResume, resume),
	}
}

// Document returns the document with the given role, or a *StepOrderError if
// it has not been produced.
func (s *State) Document(role Role) (Document, error) {
	var d Document
	switch role {
	case RoleJobPosting:
		d = s.JobPosting
	case RoleResume:
		d = s.Resume
	case RoleJobAnalysis:
		d = s.JobAnalysis
	case RoleEnhancedProfile:
		d = s.EnhancedProfile
	case RoleRefinedResume:
		d = s.RefinedResume
	case RoleInterviewGuide:
		d = s.InterviewGuide
	}
	if d.IsZero() {
		return Document{}, &StepOrderError{Requested: role}
	}
	return d, nil
}

func (s *State) record(r StepResult) {
	switch r.Document.Role() {
	case RoleJobAnalysis:
		s.JobAnalysis = r.Document
	case RoleEnhancedProfile:
		s.EnhancedProfile = r.Document
	case RoleRefinedResume:
		s.RefinedResume = r.Document
	case RoleInterviewGuide:
		s.InterviewGuide = r.Document
	}
	s.History = append(s.History, r)
}
