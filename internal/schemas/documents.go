package schemas

// Kind names a structured document the pipeline asks the model to produce.
type Kind string

// Document kinds, one per pipeline step.
const (
	KindJobAnalysis     Kind = "job_analysis"
	KindEnhancedProfile Kind = "enhanced_profile"
	KindRefinedResume   Kind = "refined_resume"
	KindInterviewGuide  Kind = "interview_guide"
)

// Kinds lists all document kinds in pipeline order.
var Kinds = []Kind{KindJobAnalysis, KindEnhancedProfile, KindRefinedResume, KindInterviewGuide}

// JobAnalysis is the breakdown of a job posting's requirements.
type JobAnalysis struct {
	CoreSkills                    []string `json:"core_skills" jsonschema:"description=Technical and soft skills the role depends on"`
	ExperienceRequirements        []string `json:"experience_requirements"`
	EducationalRequirements       []string `json:"educational_requirements"`
	TechnicalKnowledgeOrTools     []string `json:"technical_knowledge_or_tools"`
	KeyResponsibilities           []string `json:"key_responsibilities"`
	DesiredTraits                 []string `json:"desired_traits"`
	CompanyCultureFit             []string `json:"company_culture_fit"`
	CommunicationAndCollaboration []string `json:"communication_and_collaboration"`
}

// AlignedExperience is one role rephrased against the job analysis.
type AlignedExperience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

// EnhancedProfile is the resume re-weighted toward the job analysis.
type EnhancedProfile struct {
	HighlightRelevantSkills                []string            `json:"highlight_relevant_skills"`
	AlignExperienceDetails                 []AlignedExperience `json:"align_experience_details"`
	EmphasizeEducationalBackground         string              `json:"emphasize_educational_background"`
	TechnicalKnowledgeAndTools             []string            `json:"technical_knowledge_and_tools"`
	KeyResponsibilities                    []string            `json:"key_responsibilities"`
	IncorporateDesiredTraitsAndCulturalFit []string            `json:"incorporate_desired_traits_and_cultural_fit"`
	CommunicationAndCollaboration          []string            `json:"communication_and_collaboration"`
}

// ExperienceEntry is one role in the refined resume.
type ExperienceEntry struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Dates        string   `json:"dates"`
	BulletPoints []string `json:"bullet_points" jsonschema:"minItems=1"`
}

// RefinedResume is the finished, tailored resume.
type RefinedResume struct {
	Summary    string            `json:"summary" jsonschema:"minLength=1"`
	Skills     []string          `json:"skills"`
	Experience []ExperienceEntry `json:"experience"`
	Education  string            `json:"education"`
}

// InterviewQuestion pairs a likely question with a suggested answer.
type InterviewQuestion struct {
	Question        string `json:"question" jsonschema:"minLength=1"`
	SuggestedAnswer string `json:"suggested_answer"`
}

// InterviewGuide is the interview preparation material.
type InterviewGuide struct {
	InterviewQuestions []InterviewQuestion `json:"interview_questions" jsonschema:"minItems=1"`
	KeyTalkingPoints   []string            `json:"key_talking_points"`
}

// prototypes maps each kind to the Go type its schema is reflected from.
var prototypes = map[Kind]any{
	KindJobAnalysis:     &JobAnalysis{},
	KindEnhancedProfile: &EnhancedProfile{},
	KindRefinedResume:   &RefinedResume{},
	KindInterviewGuide:  &InterviewGuide{},
}
