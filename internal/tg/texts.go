package tg

const (
	btnAddPlant = "➕ Add a plant"
	btnWatered  = "✅ Watered"

	msgWelcome = `🌿 *Welcome to the plant care bot!*

I can help you:
• 🌱 Keep a list of your plants
• 💧 Remind you when it's time to water them
• 🌍 Look up species info
• 👨‍🌾 Answer gardening questions

*Commands:*
/myplants - My plants
/addplant - Add a plant
/species - Species lookup
/gardener - Ask the gardener
/help - Help`

	msgHelp = `*How to use the bot:*

1. Add a plant with /addplant
2. Open /myplants and set up watering reminders
3. When a reminder arrives, tap "Watered" after watering

The bot keeps reminding you on every check until you confirm.`

	msgHint = "Use /myplants to see your plants or /addplant to add one."

	msgUnknownCommand = "Unknown command. Try /help."

	msgNoPlants = "🌱 *You have no plants yet*\n\nAdd your first plant with the button below 👇"

	msgPlantDeleted = "✅ *Plant deleted*\n\nRefresh the list with /myplants"

	msgWateredAck = "✅ *Great, the plant is watered!*\n\nThe reminder has been reset."

	msgReminder = "💧 *Time to water your plant!*\n\n*%s* is waiting for water.\n\nTap the button below once you've watered it 👇"

	msgStoreFailure = "⚠️ Something went wrong. Please try again."

	msgSpeciesUnavailable = "🌍 Species lookup is not configured."

	msgGardenerUnavailable = "👨‍🌾 The gardener is not configured."
)
