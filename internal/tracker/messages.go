package tracker

import "fmt"

const (
	messageSessionReportTitle = "🧠 **Creators Connections — Last LIVE**\nLeft: Top Gifters • Right: Top Tappers"
	messageWeeklyReportTitle  = "📅 **Creators Connections — Weekly Summary**\nLeft: Top Gifters • Right: Top Tappers"
	messageMonthlyReportTitle = "🗓️ **Creators Connections — Monthly All-Time Board**\nLeft: Top Gifters • Right: Top Tappers"
	messageTestReportTitle    = "🧪 **Creators Connections — Test Image**\nLeft: Top Gifters • Right: Top Tappers"

	messageLinkReminder = "🔗 Reminder: Link your TikTok with `/tokconnect your_tiktok_name` so we can match your Discord and rank you on the board!"

	messageWelcomeDM = "👋 Welcome!\n\nTo appear on the Creators Connections board and earn roles like **Top Gifter** or **Sore Finger**, " +
		"please link your TikTok by using the command: `/tokconnect your_tiktok_name` (without @)."

	messageEphemeralNoHost       = "❌ No TikTok username set. Use `/toktrack <username>` first."
	messageEphemeralNoChannel    = "❌ No target channel set. Use `/set-board-channel #channel` first."
	messageEphemeralStartFailed  = "⚠️ Failed to start TikTok tracking."
	messageEphemeralStarted      = "🟢 Started TikTok tracking."
	messageEphemeralStopped      = "🛑 Stopped TikTok tracking."
	messageEphemeralUnknown      = "⚠️ Unknown command."
	messageEphemeralMissingValue = "⚠️ Missing required value."
	messageEphemeralSaveFailed   = "⚠️ Failed to save. Try again."
	messageEphemeralScanNothing  = "No TikTok handles found in recent messages."
	messageEphemeralPromptPosted = "✅ Posted connect prompt."
)

func trackingStartedMessage(hostHandle string) string {
	return fmt.Sprintf("🟢 Tracking started for TikTok **@%s**.", hostHandle)
}

func linkedMessage(handle, mention string) string {
	return fmt.Sprintf("🔗 Linked @%s → %s", handle, mention)
}

func hostSetMessage(handle string) string {
	return fmt.Sprintf("✅ Host set to @%s", handle)
}

func channelSetMessage(channelID string) string {
	return fmt.Sprintf("✅ Board channel set to <#%s>", channelID)
}

var isoWeekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func weeklySetMessage(day, hour, minute int) string {
	return fmt.Sprintf("✅ Weekly report scheduled for %s at %02d:%02d.", isoWeekdayNames[day-1], hour, minute)
}

func soreFingersMessage(mention string) string {
	return fmt.Sprintf("🖐️ %s now has sore fingers!", mention)
}

func rankUpMessage(mention, oldRank, newRank string, xp int64) string {
	return fmt.Sprintf("🏅 %s ranked up: **%s** → **%s** (%d XP)", mention, oldRank, newRank, xp)
}

func rankStatusMessage(rank string, xp int64, nextRank string, nextMin int64) string {
	if nextRank == "" {
		return fmt.Sprintf("🏅 You are **%s** with %d XP — top of the ladder!", rank, xp)
	}
	return fmt.Sprintf("🏅 You are **%s** with %d XP. %d XP to **%s**.", rank, xp, nextMin-xp, nextRank)
}

func fallbackDisplayName(handle string) string {
	return "@" + handle
}
