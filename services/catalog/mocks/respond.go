package mocks

import (
	"context"
	"encoding/json"
)

// Respond returns a Fetch action that decodes payload into the caller's target,
// the way the real client decodes a response body.
func Respond(payload any) func(context.Context, string, any) error {
	return func(_ context.Context, _ string, v any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, v)
	}
}
