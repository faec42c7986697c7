package attribution

import (
	"sort"

	"github.com/prepairo/adpulse/internal/models"
)

// Breakdown is the aggregate of many classification outcomes, the shape
// the report layer renders into channel-count tables.
type Breakdown struct {
	Total      int
	ByChannel  map[models.Channel]int
	ByCampaign map[string]int
}

// Aggregate counts classification outcomes by channel and by campaign.
// Records without a derivable campaign name are only counted per channel.
func Aggregate(results []models.ChannelAttribution) Breakdown {
	b := Breakdown{
		ByChannel:  make(map[models.Channel]int),
		ByCampaign: make(map[string]int),
	}
	for _, r := range results {
		b.Total++
		b.ByChannel[r.Channel]++
		if r.Campaign != "" {
			b.ByCampaign[r.Campaign]++
		}
	}
	return b
}

// ChannelCount pairs a channel with its install count.
type ChannelCount struct {
	Channel models.Channel
	Count   int
}

// SortedChannels returns the channel counts ordered by descending count,
// ties broken by channel name for stable report output.
func (b Breakdown) SortedChannels() []ChannelCount {
	out := make([]ChannelCount, 0, len(b.ByChannel))
	for ch, n := range b.ByChannel {
		out = append(out, ChannelCount{Channel: ch, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Channel < out[j].Channel
	})
	return out
}
