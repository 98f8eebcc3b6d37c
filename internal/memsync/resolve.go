package memsync

import (
	"strings"

	"github.com/rcliao/tutor-memory/internal/block"
	"github.com/rcliao/tutor-memory/internal/model"
	"github.com/rcliao/tutor-memory/internal/store"
)

// DropReason says why an entry was not turned into a record.
type DropReason string

const (
	DropMissingTopic           DropReason = "missing_topic"
	DropMissingConcept         DropReason = "missing_concept"
	DropCommentedOut           DropReason = "commented_out"
	DropMissingDialogID        DropReason = "missing_dialog_id"
	DropMissingLearningSummary DropReason = "missing_learning_summary"
)

// Entry fields read by the resolvers besides the headers.
const (
	fieldBookID          = "book_id"
	fieldScore           = "understanding_score"
	fieldSummary         = "understanding_summary"
	fieldMisconceptions  = "misconceptions"
	fieldDescription     = "description"
	fieldLearningSummary = "learning_summary"
)

// ResolveProfile maps a profile entry onto profile fields. It never drops:
// an entry with no usable fields yields an empty merge.
//
// A present skill field always writes, falling back to the skill default when
// unparsable. Empty text and unparsable dates are left out so they never
// blank a stored value.
func ResolveProfile(e block.Entry, c model.Context) ProfileRecord {
	r := ProfileRecord{MergeProfileParams: store.MergeProfileParams{SubjectID: c.SubjectID}}
	for _, name := range e.Keys {
		raw := e.Fields[name]
		f, ok := model.LookupProfileField(name)
		if !ok {
			r.Unknown = append(r.Unknown, name)
			continue
		}
		switch f.Type {
		case model.FieldText:
			if v, ok := block.String(raw); ok {
				if r.Text == nil {
					r.Text = make(map[string]string)
				}
				r.Text[f.Name] = v
			}
		case model.FieldSkill:
			if r.Skills == nil {
				r.Skills = make(map[string]int)
			}
			r.Skills[f.Name] = block.Int(raw, model.SkillDefault, model.SkillMin, model.SkillMax)
		case model.FieldDate:
			if d := block.Date(raw); d != nil {
				r.ExamDate = d
			}
		}
	}
	return r
}

// ResolveConcept maps an understanding entry onto a concept record. The
// entry's book_id wins over the context topic; without either the composite
// key is unusable and the entry is dropped.
func ResolveConcept(e block.Entry, c model.Context) (ConceptRecord, DropReason) {
	name := strings.TrimSpace(e.Header)
	switch {
	case name == "":
		return ConceptRecord{}, DropMissingConcept
	case strings.HasPrefix(name, "#"):
		return ConceptRecord{}, DropCommentedOut
	}

	topic, ok := block.String(e.Fields[fieldBookID])
	if !ok {
		topic = strings.TrimSpace(c.TopicID)
	}
	if topic == "" {
		return ConceptRecord{}, DropMissingTopic
	}

	return ConceptRecord{store.UpsertConceptParams{
		SubjectID:      c.SubjectID,
		TopicID:        topic,
		Name:           name,
		Score:          score(e),
		Summary:        optional(e, fieldSummary),
		Misconceptions: optional(e, fieldMisconceptions),
		Description:    optional(e, fieldDescription),
	}}, ""
}

// ResolveLearning maps a learning entry onto a trajectory enrichment. Only
// learning_summary is used; the turn summaries were written at record time.
func ResolveLearning(e block.Entry) (TrajectoryRecord, DropReason) {
	id := strings.TrimSpace(e.Header)
	switch {
	case id == "":
		return TrajectoryRecord{}, DropMissingDialogID
	case strings.HasPrefix(id, "#"):
		return TrajectoryRecord{}, DropCommentedOut
	}

	summary, ok := block.String(e.Fields[fieldLearningSummary])
	if !ok {
		return TrajectoryRecord{}, DropMissingLearningSummary
	}
	return TrajectoryRecord{store.EnrichTrajectoryParams{DialogID: id, LearningSummary: summary}}, ""
}

// score returns nil when the entry has no score so the stored one is kept.
// A present but unparsable score falls back to model.ScoreDefault.
func score(e block.Entry) *int {
	raw, ok := e.Get(fieldScore)
	if !ok {
		return nil
	}
	n := block.Int(raw, model.ScoreDefault, model.ScoreMin, model.ScoreMax)
	return &n
}

func optional(e block.Entry, name string) *string {
	v, ok := block.String(e.Fields[name])
	if !ok {
		return nil
	}
	return &v
}
