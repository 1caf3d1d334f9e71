package dispatch

import "github.com/smart-home-relay/alexa-relay/internal/schema"

// RequestKind is the closed set of request types the relay distinguishes.
type RequestKind int

const (
	RequestUnknown RequestKind = iota
	RequestLaunch
	RequestIntent
)

// IntentKind is the closed set of intents the relay handles.
type IntentKind int

const (
	IntentUnknown IntentKind = iota
	IntentSmartHome
	IntentHelp
	IntentStop
	IntentCancel
)

// CommandSlot holds the free-text command of a SmartHomeIntent.
const CommandSlot = "command"

// Built-in intents arrive with the AMAZON. prefix; the bare names are kept
// for skills that declare their own help and stop intents.
var intentNames = map[string]IntentKind{
	"SmartHomeIntent":     IntentSmartHome,
	"AMAZON.HelpIntent":   IntentHelp,
	"HelpIntent":          IntentHelp,
	"AMAZON.StopIntent":   IntentStop,
	"StopIntent":          IntentStop,
	"AMAZON.CancelIntent": IntentCancel,
	"CancelIntent":        IntentCancel,
}

// ParseRequestKind maps a request type string onto a RequestKind.
func ParseRequestKind(requestType string) RequestKind {
	switch requestType {
	case schema.RequestTypeLaunch:
		return RequestLaunch
	case schema.RequestTypeIntent:
		return RequestIntent
	default:
		return RequestUnknown
	}
}

// ParseIntentKind maps an intent name onto an IntentKind.
func ParseIntentKind(name string) IntentKind {
	if kind, ok := intentNames[name]; ok {
		return kind
	}
	return IntentUnknown
}

func (k RequestKind) String() string {
	switch k {
	case RequestLaunch:
		return schema.RequestTypeLaunch
	case RequestIntent:
		return schema.RequestTypeIntent
	default:
		return "Unknown"
	}
}

func (k IntentKind) String() string {
	switch k {
	case IntentSmartHome:
		return "SmartHomeIntent"
	case IntentHelp:
		return "HelpIntent"
	case IntentStop:
		return "StopIntent"
	case IntentCancel:
		return "CancelIntent"
	default:
		return "Unknown"
	}
}
