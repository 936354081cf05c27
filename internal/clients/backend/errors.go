package backend

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/yungbote/coursemarket-client/internal/platform/apierr"
)

// parseError turns a non-2xx body into an *apierr.Error. The backend is not
// uniform: it answers with {"error": "..."}, {"error": {"message", "code"}},
// {"detail": "..."}, {"message": "..."} or a field map of validation errors.
func parseError(status int, raw []byte) *apierr.Error {
	msg, code := errorText(raw)
	return apierr.FromStatus(status, code, msg)
}

func errorText(raw []byte) (msg string, code string) {
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return strings.TrimSpace(plain), ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return "", ""
	}

	if v, ok := fields["error"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), ""
		}
		var env struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}
		if json.Unmarshal(v, &env) == nil && strings.TrimSpace(env.Message) != "" {
			return strings.TrimSpace(env.Message), strings.TrimSpace(env.Code)
		}
	}
	for _, key := range []string{"detail", "message"} {
		if v, ok := fields[key]; ok {
			var s string
			if json.Unmarshal(v, &s) == nil && strings.TrimSpace(s) != "" {
				var c string
				if cv, ok := fields["code"]; ok {
					_ = json.Unmarshal(cv, &c)
				}
				return strings.TrimSpace(s), strings.TrimSpace(c)
			}
		}
	}

	return fieldErrors(fields), ""
}

// fieldErrors flattens {"field": ["msg", ...]} maps in key order, with
// non_field_errors leading and unprefixed.
func fieldErrors(fields map[string]json.RawMessage) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == "non_field_errors" {
			return keys[j] != "non_field_errors"
		}
		if keys[j] == "non_field_errors" {
			return false
		}
		return keys[i] < keys[j]
	})

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var msgs []string
		if err := json.Unmarshal(fields[k], &msgs); err != nil {
			var one string
			if json.Unmarshal(fields[k], &one) != nil {
				continue
			}
			msgs = []string{one}
		}
		text := strings.TrimSpace(strings.Join(msgs, " "))
		if text == "" {
			continue
		}
		if k == "non_field_errors" {
			parts = append(parts, text)
			continue
		}
		parts = append(parts, k+": "+text)
	}
	return strings.Join(parts, "; ")
}
