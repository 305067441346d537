package rehearsal

// Event names the engine subscribes to (driven by the UI) and emits (for
// the UI, and anything bridged off the dispatcher) — the fixed set from
// the external-interfaces event list, plus the grade/cursor events the
// cursor state machine names directly.
const (
	// Subscribed: drive the engine.
	EventStart        = "start-rehearsal-run"
	EventNext         = "clicked-next-button"
	EventPrevious     = "clicked-previous-button"
	EventGradeEasy    = "grade-easy"
	EventGradeMedium  = "grade-medium"
	EventGradeHard    = "grade-hard"
	EventEdit         = "edit-rehearsal-item"
	EventCancel       = "cancel-rehearsal-run"
	EventFinish       = "finish-rehearsal-run"

	// Emitted: notify the UI (and any bridge) of engine state changes.
	EventLoadItem          = "load-rehearsal-view-form"
	EventIndexIncremented  = "rehearsal-run-index-incremented"
	EventIndexDecremented  = "rehearsal-run-index-decremented"
	EventIndexMaxReached   = "rehearsal-run-index-max-reached"
	EventIndexMinReached   = "rehearsal-run-index-min-reached"
	EventClickedEasyButton   = "clicked-easy-button"
	EventClickedMediumButton = "clicked-medium-button"
	EventClickedHardButton   = "clicked-hard-button"
	EventClickedEditButton   = "clicked-edit-button"
	EventGetResultView     = "get-rehearsal-run-result-view"
	EventValidationError   = "validation-error"
)

var gradeEventNames = map[string]string{
	"easy":   EventClickedEasyButton,
	"medium": EventClickedMediumButton,
	"hard":   EventClickedHardButton,
}
