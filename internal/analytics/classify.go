package analytics

import (
	"strings"

	"github.com/branddi/taskdash/backend/internal/types"
)

// ClassifyChannel maps a raw CRM channel label onto a canonical bucket
// using case-insensitive substring matching. The check order is fixed
// (email, whatsapp, linkedin, call) so that labels matching several
// patterns always land in the same bucket.
func ClassifyChannel(rawType string) types.Channel {
	lower := strings.ToLower(rawType)

	switch {
	case strings.Contains(lower, "e-mail") || strings.Contains(lower, "email"):
		return types.ChannelEmail
	case strings.Contains(lower, "whatsapp"):
		return types.ChannelWhatsApp
	case strings.Contains(lower, "linkedin"):
		return types.ChannelLinkedIn
	case strings.Contains(lower, "chamada") || strings.Contains(lower, "call"):
		return types.ChannelCall
	default:
		return types.ChannelOther
	}
}
