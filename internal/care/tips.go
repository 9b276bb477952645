// Package care holds a small keyword table of basic care advice for common
// houseplants.
package care

import "strings"

type tip struct {
	keyword string
	advice  string
}

var tips = []tip{
	{"ficus", "💧 *Watering:* moderate, once the top layer of soil dries out\n☀️ *Light:* bright and indirect\n🌡 *Temperature:* 18-25°C\n🌿 *Care:* mist the leaves regularly"},
	{"monstera", "💧 *Watering:* generous, but let the soil dry between waterings\n☀️ *Light:* partial shade or diffused light\n🌡 *Temperature:* 20-25°C\n🌿 *Care:* misting, a support pole as it grows"},
	{"orchid", "💧 *Watering:* moderate, by soaking the pot\n☀️ *Light:* bright and indirect, no direct sun\n🌡 *Temperature:* 18-25°C\n🌿 *Care:* dedicated orchid substrate"},
	{"cactus", "💧 *Watering:* sparse, almost none in winter\n☀️ *Light:* as bright as possible\n🌡 *Temperature:* 20-30°C in summer, 10-15°C in winter\n🌿 *Care:* well-draining soil"},
	{"succulent", "💧 *Watering:* moderate, let the soil dry out completely\n☀️ *Light:* bright and direct\n🌡 *Temperature:* 18-25°C\n🌿 *Care:* sandy soil with good drainage"},
	{"aloe", "💧 *Watering:* moderate, less in winter\n☀️ *Light:* bright and indirect\n🌡 *Temperature:* 18-25°C\n🌿 *Care:* low maintenance"},
}

const genericTip = "💡 *General advice:*\n• Water once the top layer of soil has dried\n• Bright, indirect light\n• 18-25°C\n• Feed in spring and summer"

// Tip returns basic care advice matched by a keyword in the plant's name,
// falling back to generic advice.
func Tip(plantName string) string {
	name := strings.ToLower(plantName)
	for _, t := range tips {
		if strings.Contains(name, t.keyword) {
			return t.advice
		}
	}
	return genericTip
}
