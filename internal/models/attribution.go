package models

import (
	"time"
)

// Channel is one label in the closed acquisition-channel taxonomy.
type Channel string

const (
	ChannelGoogleAds        Channel = "GOOGLE_ADS"
	ChannelMeta             Channel = "META"
	ChannelTelegram         Channel = "TELEGRAM"
	ChannelWebsite          Channel = "WEBSITE"
	ChannelPlayStoreOrganic Channel = "PLAY_STORE_ORGANIC"
	ChannelInternalTool     Channel = "INTERNAL_CAMPAIGN_TOOL"
	ChannelDirectNotSet     Channel = "DIRECT_NOT_SET"
	ChannelIOSNoAttribution Channel = "IOS_NO_ATTRIBUTION"
	ChannelUnclassified     Channel = "UNCLASSIFIED"
)

// Platform values as stored by the mobile clients.
const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
)

// ChannelAttribution is the classification outcome for one referrer
// string. Campaign is empty when no campaign name could be derived.
// RawReferrer keeps the original input for audit and for refining the
// rule table later.
type ChannelAttribution struct {
	Channel     Channel `json:"channel"`
	Campaign    string  `json:"campaign,omitempty"`
	RawReferrer string  `json:"raw_referrer,omitempty"`
}

// InstallRecord is one app install as read from the product database.
type InstallRecord struct {
	UserID    string    `json:"user_id"`
	Platform  string    `json:"platform"`
	Referrer  string    `json:"referrer,omitempty"`
	SignupIP  string    `json:"signup_ip,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
