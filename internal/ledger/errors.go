package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
)

type faultEnvelope struct {
	Fault *struct {
		Error []struct {
			Message string `json:"Message"`
			Detail  string `json:"Detail"`
			Code    string `json:"code"`
		} `json:"Error"`
		Type string `json:"type"`
	} `json:"Fault"`
	ErrorDescription string          `json:"error_description"`
	Error            json.RawMessage `json:"error"`
	Message          string          `json:"message"`
}

// extractMessage pulls the most readable message out of the known error envelopes.
// Key matching is case-insensitive, so "Fault"/"fault" and "Error"/"error" both decode.
func extractMessage(body []byte, status int) string {
	var env faultEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Fault != nil && len(env.Fault.Error) > 0 {
			e := env.Fault.Error[0]
			msg, detail := strings.TrimSpace(e.Message), strings.TrimSpace(e.Detail)
			switch {
			case msg != "" && detail != "" && msg != detail:
				return msg + ": " + detail
			case detail != "":
				return detail
			case msg != "":
				return msg
			}
		}
		if s := strings.TrimSpace(env.ErrorDescription); s != "" {
			return s
		}
		if s := errorField(env.Error); s != "" {
			return s
		}
		if s := strings.TrimSpace(env.Message); s != "" {
			return s
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

func errorField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Message)
	}
	return ""
}
