// Package model defines the learner memory record types.
package model

import "time"

// BlockKind labels one of the memory blocks produced by the memory agent.
type BlockKind string

const (
	KindProfile       BlockKind = "profile"
	KindUnderstanding BlockKind = "understanding"
	KindLearning      BlockKind = "learning"
)

// BlockKinds lists the block kinds in the order they are synchronized.
var BlockKinds = []BlockKind{KindProfile, KindUnderstanding, KindLearning}

// ValidKinds are the allowed block kinds.
var ValidKinds = map[BlockKind]bool{
	KindProfile:       true,
	KindUnderstanding: true,
	KindLearning:      true,
}

// Context carries the ambient parameters of a sync call. Entries that omit
// a topic fall back to TopicID.
type Context struct {
	SubjectID string `json:"subject_id" yaml:"subject_id"`
	TopicID   string `json:"topic_id,omitempty" yaml:"topic_id,omitempty"`
	DialogID  string `json:"dialog_id,omitempty" yaml:"dialog_id,omitempty"`
}

// Turn is one conversational exchange between the learner and the tutor.
type Turn struct {
	UserText  string `json:"user_text" yaml:"user_text"`
	AgentText string `json:"agent_text" yaml:"agent_text"`
}

// Profile is the singleton profile record of a subject.
type Profile struct {
	SubjectID string            `json:"subject_id" yaml:"subject_id"`
	Skills    map[string]int    `json:"skills" yaml:"skills"`
	Text      map[string]string `json:"text,omitempty" yaml:"text,omitempty"`
	ExamDate  *time.Time        `json:"exam_date,omitempty" yaml:"exam_date,omitempty"`
	CreatedAt time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" yaml:"updated_at"`
}

// Concept is the understanding record for one concept within one topic.
type Concept struct {
	SubjectID      string    `json:"subject_id" yaml:"subject_id"`
	TopicID        string    `json:"topic_id" yaml:"topic_id"`
	Name           string    `json:"concept_name" yaml:"concept_name"`
	Score          int       `json:"understanding_score" yaml:"understanding_score"`
	Summary        string    `json:"understanding_summary,omitempty" yaml:"understanding_summary,omitempty"`
	Misconceptions string    `json:"misconceptions,omitempty" yaml:"misconceptions,omitempty"`
	Description    string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"updated_at"`
}

// Trajectory is the per-dialog learning record. It is created when a turn
// is recorded; LearningSummary is filled in later by enrichment, if at all.
type Trajectory struct {
	ID              string    `json:"id" yaml:"id"`
	DialogID        string    `json:"dialog_id,omitempty" yaml:"dialog_id,omitempty"`
	SubjectID       string    `json:"subject_id" yaml:"subject_id"`
	TopicID         string    `json:"topic_id,omitempty" yaml:"topic_id,omitempty"`
	QuerySummary    string    `json:"query_summary" yaml:"query_summary"`
	ResponseSummary string    `json:"response_summary" yaml:"response_summary"`
	LearningSummary string    `json:"learning_summary,omitempty" yaml:"learning_summary,omitempty"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" yaml:"updated_at"`
}
