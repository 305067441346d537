// Package model defines the tagged-union entity model shared by every
// component of the core, and the Model Factory that assembles fresh
// records for it.
package model

// Tag is the upper-case entity discriminator carried in every record's
// metadata, and the first segment of every canonical key.
type Tag string

// The full entity variant inventory from the data model.
const (
	TagFlashcard       Tag = "FLASHCARD"
	TagNote            Tag = "NOTE"
	TagQuestion        Tag = "QUESTION"
	TagAnswer          Tag = "ANSWER"
	TagStack           Tag = "STACK"
	TagDifficulty      Tag = "DIFFICULTY"
	TagPriority        Tag = "PRIORITY"
	TagSubject         Tag = "SUBJECT"
	TagTag             Tag = "TAG"
	TagTeacher         Tag = "TEACHER"
	TagUser            Tag = "USER"
	TagCustomField     Tag = "CUSTOMFIELD"
	TagOption          Tag = "OPTION"
	TagAssociation     Tag = "ASSOCIATION"
	TagImage           Tag = "IMAGE"
	TagRehearsalRun    Tag = "REHEARSAL_RUN"
	TagRehearsalRunItem Tag = "REHEARSAL_RUN_ITEM"
)

// AllTags lists every known entity variant, in the order storage uses to
// provision empty tables at bootstrap.
func AllTags() []Tag {
	return []Tag{
		TagFlashcard, TagNote, TagQuestion, TagAnswer, TagStack,
		TagDifficulty, TagPriority, TagSubject, TagTag, TagTeacher,
		TagUser, TagCustomField, TagOption, TagAssociation, TagImage,
		TagRehearsalRun, TagRehearsalRunItem,
	}
}

// IsKnown reports whether tag is one of the model's variants.
func IsKnown(tag Tag) bool {
	for _, t := range AllTags() {
		if t == tag {
			return true
		}
	}
	return false
}

// listFields names the fields a tag always carries as an ordered list,
// even when the caller omits them — the Model Factory normalizes these to
// an empty list rather than leaving them nil.
var listFields = map[Tag][]string{
	TagFlashcard:   {"tags", "customfields"},
	TagNote:        {"tags", "customfields"},
	TagAnswer:      {"tags"},
	TagSubject:     {"tags"},
	TagTag:         {"tags"},
	TagTeacher:     {"tags"},
	TagStack:       {"tags", "items", "children"},
	TagCustomField: {"options"},
}

// ListFieldsFor returns the list-typed fields a tag is required to carry.
func ListFieldsFor(tag Tag) []string {
	return listFields[tag]
}
