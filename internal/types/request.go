package types

// CampaignRequest is the parameter set the form posts to the generate route.
// Every field is optional as far as the relay is concerned; unset fields are
// left out of the encoded body.
type CampaignRequest struct {
	Objective         string `json:"objective,omitempty"`
	AgeRange          string `json:"age_range,omitempty"`
	Gender            string `json:"gender,omitempty"`
	CustomerSegment   string `json:"customer_segment,omitempty"`
	Tone              string `json:"tone,omitempty"`
	Personalization   string `json:"personalization,omitempty"`
	CharLimit         *int   `json:"char_limit,omitempty"`
	AllowEmojis       *bool  `json:"allow_emojis,omitempty"`
	Goal              string `json:"goal,omitempty"`
	Language          string `json:"language,omitempty"`
	CulturalReference string `json:"cultural_reference,omitempty"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

// CampaignFields are the keys of a generate body that are relayed upstream.
// Values are passed through as sent, whatever their JSON type.
var CampaignFields = []string{
	"objective",
	"age_range",
	"gender",
	"customer_segment",
	"tone",
	"personalization",
	"char_limit",
	"allow_emojis",
	"goal",
	"language",
	"cultural_reference",
	"additional_context",
}

// RewriteRequest asks the upstream to rework an already generated text.
type RewriteRequest struct {
	Text     string `json:"text"`
	Option   string `json:"option"`
	Language string `json:"language"`
}

// Rewrite options understood by the upstream.
const (
	RewriteExtend     = "extend"
	RewriteShorten    = "shorten"
	RewriteRegenerate = "regenerate"
)

const (
	LanguageEnglish = "english"
	LanguageBangla  = "bangla"
)

// Optimization goals offered by the form.
const (
	GoalCTR        = "ctr"
	GoalConversion = "conversion"
	GoalEngagement = "engagement"
)

// DefaultCharLimit is a standard single-part SMS.
const DefaultCharLimit = 160

// NormalizeLanguage maps anything other than an exact "bangla" to english.
func NormalizeLanguage(lang string) string {
	if lang == LanguageBangla {
		return LanguageBangla
	}
	return LanguageEnglish
}
