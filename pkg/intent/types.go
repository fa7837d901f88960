package intent

// Label is the classifier's output, selecting which prompt template
// downstream code uses.
type Label string

// Topic labels, in decision priority order.
const (
	// LabelPrayer is a request to compose a prayer.
	LabelPrayer Label = "prayer"

	// LabelInformational is a teaching or explanation request.
	LabelInformational Label = "informational"

	// LabelConversational is a greeting or casual message.
	LabelConversational Label = "conversational"

	// LabelPractical is guidance-seeking text; the default for anything
	// the other labels do not claim.
	LabelPractical Label = "practical"
)

// Result is the outcome of classifying one message.
type Result struct {
	// Label is the selected topic label.
	Label Label

	// FallbackUsed is true when an internal fault was recovered and the
	// conversational fallback was substituted. Tests assert on this so the
	// safety net cannot silently mask classifier defects.
	FallbackUsed bool
}
