package upstream

import "github.com/af-corp/campaign-relay/internal/types"

// FieldRaw is reported when the response body itself was the text.
const FieldRaw = "raw"

// extractor pulls generated text out of a decoded response body.
type extractor struct {
	field string
	fn    func(v any) (string, bool)
}

func objectField(name string) extractor {
	return extractor{field: name, fn: func(v any) (string, bool) {
		obj, ok := v.(map[string]any)
		if !ok {
			return "", false
		}
		s, ok := obj[name].(string)
		return s, ok
	}}
}

// extractors are tried in order; the first match wins.
var extractors = []extractor{
	objectField("text"),
	objectField("message"),
	objectField("output"),
	objectField("result"),
	{field: FieldRaw, fn: func(v any) (string, bool) {
		s, ok := v.(string)
		return s, ok
	}},
}

// Extract locates the generated text in an upstream response of unknown
// shape. It returns the text and the name of the field it came from, or a
// FORMAT_ERROR when nothing recognizable is present.
func Extract(v any) (text, field string, err error) {
	for _, e := range extractors {
		if s, ok := e.fn(v); ok {
			return s, e.field, nil
		}
	}
	if _, ok := v.(map[string]any); !ok {
		return "", "", newError(types.KindFormat, "Invalid response format from upstream API", nil)
	}
	return "", "", newError(types.KindFormat, "Could not find text content in upstream API response", nil)
}
