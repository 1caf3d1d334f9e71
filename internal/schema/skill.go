package schema

const (
	// ResponseVersion is the skill response envelope version.
	ResponseVersion = "1.0"

	// SpeechPlainText is the only output speech type the relay produces.
	SpeechPlainText = "PlainText"
)

// Request types sent by the voice platform.
const (
	RequestTypeLaunch = "LaunchRequest"
	RequestTypeIntent = "IntentRequest"
)

// Event is the inbound voice-platform request envelope.
type Event struct {
	Version string       `json:"version,omitempty" msgpack:"version,omitempty"`
	Request EventRequest `json:"request" msgpack:"request"`
}

// EventRequest describes a single user interaction.
type EventRequest struct {
	Type      string  `json:"type" msgpack:"type"`
	RequestID string  `json:"requestId,omitempty" msgpack:"requestId,omitempty"`
	Locale    string  `json:"locale,omitempty" msgpack:"locale,omitempty"`
	Intent    *Intent `json:"intent,omitempty" msgpack:"intent,omitempty"`
}

// Intent is the named category of an IntentRequest together with its slots.
type Intent struct {
	Name  string          `json:"name" msgpack:"name"`
	Slots map[string]Slot `json:"slots,omitempty" msgpack:"slots,omitempty"`
}

// Slot is a named parameter extracted from the user's speech.
type Slot struct {
	Name  string `json:"name,omitempty" msgpack:"name,omitempty"`
	Value string `json:"value,omitempty" msgpack:"value,omitempty"`
}

// IntentName returns the intent name, or "" when the event carries no intent.
func (e *Event) IntentName() string {
	if e == nil || e.Request.Intent == nil {
		return ""
	}
	return e.Request.Intent.Name
}

// Slot returns the value of the named slot. ok is false when the slot is
// missing or its value is empty.
func (e *Event) Slot(name string) (value string, ok bool) {
	if e == nil || e.Request.Intent == nil {
		return "", false
	}
	slot, found := e.Request.Intent.Slots[name]
	if !found || slot.Value == "" {
		return "", false
	}
	return slot.Value, true
}

// Response is the outbound skill response envelope.
type Response struct {
	Version  string       `json:"version" msgpack:"version"`
	Response ResponseBody `json:"response" msgpack:"response"`
}

// ResponseBody carries the speech and the session flag.
type ResponseBody struct {
	OutputSpeech     OutputSpeech `json:"outputSpeech" msgpack:"outputSpeech"`
	ShouldEndSession bool         `json:"shouldEndSession" msgpack:"shouldEndSession"`
}

// OutputSpeech is the text spoken back to the user.
type OutputSpeech struct {
	Type string `json:"type" msgpack:"type"`
	Text string `json:"text" msgpack:"text"`
}

// NewResponse builds a plain-text response.
func NewResponse(text string, endSession bool) Response {
	return Response{
		Version: ResponseVersion,
		Response: ResponseBody{
			OutputSpeech: OutputSpeech{
				Type: SpeechPlainText,
				Text: text,
			},
			ShouldEndSession: endSession,
		},
	}
}

func (r Response) Text() string {
	return r.Response.OutputSpeech.Text
}

func (r Response) EndSession() bool {
	return r.Response.ShouldEndSession
}
