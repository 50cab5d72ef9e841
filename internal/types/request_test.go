package types

import (
	"encoding/json"
	"testing"
)

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"bangla", LanguageBangla},
		{"english", LanguageEnglish},
		{"", LanguageEnglish},
		{"Bangla", LanguageEnglish},
		{"french", LanguageEnglish},
	}

	for _, tt := range tests {
		if got := NormalizeLanguage(tt.input); got != tt.want {
			t.Errorf("NormalizeLanguage(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCampaignFieldsMatchRequestTags(t *testing.T) {
	data, err := json.Marshal(CampaignRequest{
		Objective: "o", AgeRange: "a", Gender: "g", CustomerSegment: "c", Tone: "t",
		Personalization: "p", CharLimit: new(int), AllowEmojis: new(bool), Goal: "g",
		Language: "l", CulturalReference: "r", AdditionalContext: "x",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var encoded map[string]any
	if err := json.Unmarshal(data, &encoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(encoded) != len(CampaignFields) {
		t.Fatalf("encoded %d keys, CampaignFields has %d", len(encoded), len(CampaignFields))
	}
	for _, key := range CampaignFields {
		if _, ok := encoded[key]; !ok {
			t.Errorf("CampaignFields key %q missing from CampaignRequest encoding", key)
		}
	}
}

func TestCampaignRequestOmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(CampaignRequest{Objective: "promotion"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(data); got != `{"objective":"promotion"}` {
		t.Errorf("encoded = %s, want only objective", got)
	}
}
