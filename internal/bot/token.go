package bot

import (
	"fmt"
	"strings"
)

// Kind identifies one of the four categories of human-in-the-loop question
// the bot can ask. At most one request of a given kind is outstanding at
// any time.
type Kind string

const (
	KindVideoSelection   Kind = "vid"
	KindPublishConfirm   Kind = "pub"
	KindPostSelection    Kind = "post"
	KindTrainerSelection Kind = "trn"
)

// Label is the operator-facing name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindVideoSelection:
		return "selección de video"
	case KindPublishConfirm:
		return "confirmación de publicación"
	case KindPostSelection:
		return "selección de post"
	case KindTrainerSelection:
		return "selección de entrenador"
	}
	return string(k)
}

// cancelPayload is the reserved payload of the cancel button.
const cancelPayload = "cancel"

// callbackToken binds a keyboard button to the request that produced it.
// It replaces bare string-prefix matching with a structured comparison so
// a stale button press can never resolve a newer request.
type callbackToken struct {
	Kind      Kind
	RequestID string
	Payload   string
}

// Encode renders the token as callback data. Telegram caps callback data
// at 64 bytes; a kind code, a uuid and a short payload fit within it.
func (t callbackToken) Encode() string {
	return fmt.Sprintf("%s:%s:%s", t.Kind, t.RequestID, t.Payload)
}

// parseToken decodes callback data produced by Encode. The bool is false
// for data this bot did not produce.
func parseToken(data string) (callbackToken, bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return callbackToken{}, false
	}
	return callbackToken{
		Kind:      Kind(parts[0]),
		RequestID: parts[1],
		Payload:   parts[2],
	}, true
}
