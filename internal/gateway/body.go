package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/af-corp/campaign-relay/internal/types"
)

var errNotObject = errors.New("request body must be a JSON object")

// decodeObject reads a JSON object from body and returns its members
// undecoded. null, arrays and scalars are rejected.
func decodeObject(body io.Reader) (map[string]json.RawMessage, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, errNotObject
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// campaignPayload keeps the known generate keys that the caller actually sent.
func campaignPayload(fields map[string]json.RawMessage) map[string]json.RawMessage {
	payload := make(map[string]json.RawMessage, len(types.CampaignFields))
	for _, key := range types.CampaignFields {
		if v, ok := fields[key]; ok {
			payload[key] = v
		}
	}
	return payload
}

// rewritePayload is the body sent to the rewrite webhook. Text and Option
// are relayed exactly as received.
type rewritePayload struct {
	Text     json.RawMessage `json:"text"`
	Option   json.RawMessage `json:"option"`
	Language string          `json:"language"`
}

// newRewritePayload returns false when text or option is missing or falsy.
func newRewritePayload(fields map[string]json.RawMessage) (rewritePayload, bool) {
	text, option := fields["text"], fields["option"]
	if !truthy(text) || !truthy(option) {
		return rewritePayload{}, false
	}
	var lang string
	json.Unmarshal(fields["language"], &lang)
	return rewritePayload{
		Text:     text,
		Option:   option,
		Language: types.NormalizeLanguage(lang),
	}, true
}

// truthy reports whether a JSON value counts as set: anything except a
// missing value, null, false, zero and the empty string.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'n', 'f':
		return false
	case 't', '[', '{':
		return true
	case '"':
		var s string
		return json.Unmarshal(raw, &s) == nil && s != ""
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && f != 0
	}
}
