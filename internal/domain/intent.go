package domain

// Intent is a recognized user goal driving response selection.
type Intent string

const (
	IntentBook          Intent = "book"
	IntentPayment       Intent = "payment"
	IntentGreeting      Intent = "greeting"
	IntentShowOptions   Intent = "show_options"
	IntentHelp          Intent = "help"
	IntentCancelBooking Intent = "cancel_booking"
	IntentMuseumInfo    Intent = "museum_info"
	IntentUnknown       Intent = "unknown"
)

// ClassifiableIntents is the label set offered to the classifier. Unknown is
// never a candidate; it is what unrecognized labels collapse to.
var ClassifiableIntents = []Intent{
	IntentBook,
	IntentPayment,
	IntentGreeting,
	IntentShowOptions,
	IntentHelp,
	IntentCancelBooking,
	IntentMuseumInfo,
}

var responses = map[Intent]string{
	IntentGreeting:      "Hello! How can I help you today?",
	IntentBook:          "You want to book something. Could you please provide more details?",
	IntentPayment:       "Let's proceed with the payment. Please provide your payment details.",
	IntentShowOptions:   "Here are the options available: ...",
	IntentHelp:          "How can I assist you?",
	IntentCancelBooking: "Your booking has been cancelled.",
	IntentMuseumInfo:    "The museum is open from 9 AM to 5 PM daily.",
	IntentUnknown:       "I'm not sure how to help with that.",
}

// ParseIntent maps a classifier label onto the closed intent set.
// Labels outside the set map to IntentUnknown with ok=false.
func ParseIntent(label string) (Intent, bool) {
	i := Intent(label)
	if _, ok := responses[i]; ok && i != IntentUnknown {
		return i, true
	}
	return IntentUnknown, false
}

// Response returns the base-language response template for the intent.
// Intents without a template get the unknown template.
func (i Intent) Response() string {
	if text, ok := responses[i]; ok {
		return text
	}
	return responses[IntentUnknown]
}

func (i Intent) String() string {
	return string(i)
}

// Strings returns the labels of the given intents.
func Strings(intents []Intent) []string {
	out := make([]string, len(intents))
	for idx, i := range intents {
		out[idx] = string(i)
	}
	return out
}

// Prediction is one classifier output label with its confidence.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// RankedIntent is a prediction resolved against the intent set.
type RankedIntent struct {
	Intent     Intent  `json:"intent"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}
