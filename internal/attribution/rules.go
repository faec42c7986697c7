package attribution

import (
	"strings"

	"github.com/prepairo/adpulse/internal/models"
)

// RuleConfig holds the organization-specific matching tokens. The values
// are configuration data, not logic: deployments with different tracking
// setups swap the tokens without touching the rule table.
type RuleConfig struct {
	// InternalClickParam marks traffic from the organization's own
	// campaign-tracking product (a click identifier only that product
	// appends).
	InternalClickParam string
	// InternalSourceToken is the product's media_source value.
	InternalSourceToken string

	GoogleTokens   []string
	SocialTokens   []string
	TelegramTokens []string
	WebsiteTokens  []string
	PlayStoreToken string
}

// DefaultRuleConfig returns the token set used by the production
// deployment.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		InternalClickParam:  "click_id",
		InternalSourceToken: "clicko",
		GoogleTokens:        []string{"google", "googleads"},
		SocialTokens:        []string{"instagram", "facebook", "meta", "fb"},
		TelegramTokens:      []string{"telegram"},
		WebsiteTokens:       []string{"prepairo-website", "website"},
		PlayStoreToken:      "google-play",
	}
}

// NewDefaultClassifier builds a classifier over the default token set.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(BuildRules(DefaultRuleConfig()))
}

// BuildRules assembles the ordered rule table for a token set. Order
// matters: the internal tracking product is checked first because its
// referrers also carry utm parameters that would otherwise match the
// generic source rules.
func BuildRules(cfg RuleConfig) []Rule {
	utmCampaign := func(r Referrer) string {
		return r.Param("utm_campaign")
	}

	return []Rule{
		{
			Name:    "internal-campaign-tool",
			Channel: models.ChannelInternalTool,
			Match: func(r Referrer) bool {
				if cfg.InternalClickParam != "" && r.Has(cfg.InternalClickParam) {
					return true
				}
				return cfg.InternalSourceToken != "" &&
					strings.EqualFold(r.Param("media_source"), cfg.InternalSourceToken)
			},
			// The tool carries its own campaign identifier in a nested
			// sub-parameter, not in utm_campaign.
			Campaign: func(r Referrer) string {
				return r.Param("campaign")
			},
		},
		{
			Name:     "google-ads",
			Channel:  models.ChannelGoogleAds,
			Match:    sourceIn(cfg.GoogleTokens),
			Campaign: utmCampaign,
		},
		{
			Name:     "meta",
			Channel:  models.ChannelMeta,
			Match:    sourceIn(cfg.SocialTokens),
			Campaign: utmCampaign,
		},
		{
			Name:    "telegram",
			Channel: models.ChannelTelegram,
			Match:   sourceIn(cfg.TelegramTokens),
		},
		{
			Name:    "website",
			Channel: models.ChannelWebsite,
			Match:   sourceIn(cfg.WebsiteTokens),
		},
		{
			Name:    "play-store-organic",
			Channel: models.ChannelPlayStoreOrganic,
			Match: func(r Referrer) bool {
				return r.Source() == cfg.PlayStoreToken && r.Param("utm_campaign") == ""
			},
		},
	}
}

func sourceIn(tokens []string) func(r Referrer) bool {
	return func(r Referrer) bool {
		src := r.Source()
		if src == "" {
			return false
		}
		for _, t := range tokens {
			if src == strings.ToLower(t) {
				return true
			}
		}
		return false
	}
}
