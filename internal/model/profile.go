package model

// FieldType is the storage type of a profile field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldSkill
	FieldDate
)

// Skill ratings are bounded to [SkillMin, SkillMax]; an absent or unreadable
// rating means "unrated" and is stored as SkillDefault.
const (
	SkillMin     = 0
	SkillMax     = 10
	SkillDefault = 0
)

// Understanding scores are bounded to [ScoreMin, ScoreMax] and default to the
// lowest meaningful level.
const (
	ScoreMin     = 1
	ScoreMax     = 5
	ScoreDefault = 1
)

// ProfileField describes one profile attribute. Name is both the block
// field name and the column name.
type ProfileField struct {
	Name string
	Type FieldType
}

// ProfileFields lists every known profile attribute in column order.
var ProfileFields = []ProfileField{
	{"name", FieldText},
	{"age", FieldText},
	{"grade_level", FieldText},
	{"school", FieldText},
	{"major", FieldText},
	{"learning_goal", FieldText},
	{"learning_style", FieldText},
	{"preferred_language", FieldText},
	{"explanation_preference", FieldText},
	{"interests", FieldText},
	{"strengths", FieldText},
	{"weaknesses", FieldText},
	{"study_schedule", FieldText},
	{"motivation", FieldText},
	{"personality", FieldText},
	{"communication_style", FieldText},
	{"prior_knowledge", FieldText},
	{"exam_target", FieldText},
	{"notes", FieldText},
	{"exam_date", FieldDate},
	{"math_skill", FieldSkill},
	{"reading_skill", FieldSkill},
	{"writing_skill", FieldSkill},
	{"logic_skill", FieldSkill},
	{"memory_skill", FieldSkill},
	{"focus_skill", FieldSkill},
	{"problem_solving_skill", FieldSkill},
	{"self_learning_skill", FieldSkill},
	{"collaboration_skill", FieldSkill},
	{"language_skill", FieldSkill},
}

var profileFieldIndex = func() map[string]ProfileField {
	m := make(map[string]ProfileField, len(ProfileFields))
	for _, f := range ProfileFields {
		m[f.Name] = f
	}
	return m
}()

// LookupProfileField returns the field definition for name.
func LookupProfileField(name string) (ProfileField, bool) {
	f, ok := profileFieldIndex[name]
	return f, ok
}
