package models

// Relationship edge types extracted during content analysis
const (
	EdgeDependsOn  = "depends_on"
	EdgeRequires   = "requires"
	EdgeValidates  = "validates"
	EdgeThresholds = "thresholds"
)

// Entity is a noteworthy item extracted from the input content
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// SuggestedQuestion is a question the analyzer thinks the form should ask
type SuggestedQuestion struct {
	Question  string `json:"question"`
	FieldType string `json:"fieldType,omitempty"`
}

// RelationshipEdge is a declared dependency between two content positions.
// Indices reference positions in the pre-merge field candidate list.
type RelationshipEdge struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Type string `json:"type"`
}

// ContentAnalysis is the stage-1 classification of the input content.
// List fields are always non-nil after normalization; scalar fields carry
// named defaults when the model omitted them.
type ContentAnalysis struct {
	DocumentType       string              `json:"documentType"`
	Domain             string              `json:"domain"`
	FormType           string              `json:"formType"`
	IsQuiz             bool                `json:"isQuiz"`
	IsSurvey           bool                `json:"isSurvey"`
	Tone               string              `json:"tone"`
	Complexity         string              `json:"complexity"`
	Entities           []Entity            `json:"entities"`
	SuggestedQuestions []SuggestedQuestion `json:"suggestedQuestions"`
	Relationships      []RelationshipEdge  `json:"relationships"`
	Confidence         float64             `json:"confidence"`
}

// Analyzer defaults applied when the model response is missing or unusable
const (
	DefaultDocumentType = "prompt"
	DefaultDomain       = "general"
	DefaultFormType     = "form"
	DefaultTone         = "professional"
	DefaultComplexity   = "moderate"
)

// DefaultAnalysis returns the all-default analysis used when stage 1
// degrades instead of failing.
func DefaultAnalysis() *ContentAnalysis {
	return &ContentAnalysis{
		DocumentType:       DefaultDocumentType,
		Domain:             DefaultDomain,
		FormType:           DefaultFormType,
		Tone:               DefaultTone,
		Complexity:         DefaultComplexity,
		Entities:           []Entity{},
		SuggestedQuestions: []SuggestedQuestion{},
		Relationships:      []RelationshipEdge{},
		Confidence:         0,
	}
}
