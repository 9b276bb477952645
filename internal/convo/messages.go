package convo

// User-facing texts for the conversational flows.
const (
	msgAskPlantName = "🌱 *Adding a plant*\n\nSend me the plant's name.\n\n*Examples:*\n• Ficus\n• Monstera\n• Orchid\n• Cactus"

	msgPlantAdded = "🌿 *Plant added!*\n\n*Name:* %s\n\n%s"

	msgAskInterval = "🛎 *Watering reminders for %s*\n\nHow often does this plant need water?\nPick an interval or enter your own:"

	msgAskCustomInterval = "📝 Enter the watering interval in days.\n\n*Example:* 5 (water every 5 days)"

	msgIntervalNotANumber = "❌ Please enter a number"

	msgIntervalOutOfRange = "❌ Enter a number from 1 to 30 days"

	msgScheduleSaved = "✅ *Reminders are on!*\n\nI'll remind you to water *%s* every %d days."

	msgScheduleSavedShort = "✅ Done."

	msgPlantGone = "That plant is no longer in your list. Use /myplants to see your plants."

	msgStoreFailure = "⚠️ Something went wrong saving that. Please try again."
)
