// Package attribution buckets raw install-referrer strings into a closed
// taxonomy of acquisition channels. Classification is an ordered rule
// table: the first matching rule wins, so adding a channel is a data
// change, not a control-flow change.
package attribution

import (
	"net/url"
	"strings"

	"github.com/prepairo/adpulse/internal/models"
)

// Referrer is the decoded view of an install-referrer string handed to
// rule predicates and campaign extractors.
type Referrer struct {
	Raw    string
	params url.Values
}

// Param returns the first value for the given key, matched
// case-insensitively against the decoded parameter names.
func (r Referrer) Param(key string) string {
	return r.params.Get(strings.ToLower(key))
}

// Has reports whether the referrer carries the given parameter at all.
func (r Referrer) Has(key string) bool {
	_, ok := r.params[strings.ToLower(key)]
	return ok
}

// Source returns the lowercased utm_source value.
func (r Referrer) Source() string {
	return strings.ToLower(r.Param("utm_source"))
}

// Rule is one entry of the ordered classification table.
type Rule struct {
	Name    string
	Channel models.Channel
	Match   func(r Referrer) bool
	// Campaign extracts a campaign name from the referrer. Nil means the
	// rule never yields one.
	Campaign func(r Referrer) string
}

// Classifier maps referrer strings to channels using an ordered rule set.
// It is a pure value: the same input always yields the same output.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier from the given rule table. The slice
// order is the evaluation order.
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify maps one raw referrer string plus a platform hint to a channel.
//
// iOS installs carry no referrer attribution at all, so the platform check
// short-circuits before any string matching. An empty referrer is the
// "direct / not set" case, distinct from text that matched no rule, which
// stays UNCLASSIFIED with the raw string retained for future rules.
// Malformed encodings never raise: a decode failure also yields
// UNCLASSIFIED.
func (c *Classifier) Classify(referrer, platform string) models.ChannelAttribution {
	if strings.EqualFold(platform, models.PlatformIOS) {
		return models.ChannelAttribution{
			Channel:     models.ChannelIOSNoAttribution,
			RawReferrer: referrer,
		}
	}

	if strings.TrimSpace(referrer) == "" {
		return models.ChannelAttribution{Channel: models.ChannelDirectNotSet}
	}

	ref, err := parseReferrer(referrer)
	if err != nil {
		return models.ChannelAttribution{
			Channel:     models.ChannelUnclassified,
			RawReferrer: referrer,
		}
	}

	for _, rule := range c.rules {
		if !rule.Match(ref) {
			continue
		}
		attr := models.ChannelAttribution{
			Channel:     rule.Channel,
			RawReferrer: referrer,
		}
		if rule.Campaign != nil {
			attr.Campaign = rule.Campaign(ref)
		}
		return attr
	}

	return models.ChannelAttribution{
		Channel:     models.ChannelUnclassified,
		RawReferrer: referrer,
	}
}

// parseReferrer decodes a query-string-like referrer. Parameter names are
// lowercased so lookups are case-insensitive; values keep their decoded
// form.
func parseReferrer(raw string) (Referrer, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return Referrer{}, err
	}

	normalized := make(url.Values, len(values))
	for key, vals := range values {
		normalized[strings.ToLower(key)] = vals
	}

	return Referrer{Raw: raw, params: normalized}, nil
}
