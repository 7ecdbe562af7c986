// Package quote serves the dashboard's motivational quote of the day.
package quote

import "time"

var quotes = []string{
	"The secret of getting ahead is getting started. - Mark Twain",
	"Success is not final, failure is not fatal: it is the courage to continue that counts. - Winston Churchill",
	"The only way to do great work is to love what you do. - Steve Jobs",
	"Don't watch the clock; do what it does. Keep going. - Sam Levenson",
	"The future depends on what you do today. - Mahatma Gandhi",
	"Believe you can and you're halfway there. - Theodore Roosevelt",
	"You are never too old to set another goal or to dream a new dream. - C.S. Lewis",
	"The harder you work for something, the greater you'll feel when you achieve it.",
	"Dream bigger. Do bigger.",
	"Push yourself, because no one else is going to do it for you.",
}

// OfTheDay returns the same quote for every call on a given calendar
// day and rotates through the list day by day.
func OfTheDay(now time.Time) string {
	day := now.UTC().Truncate(24 * time.Hour)
	idx := int(day.Unix()/86400) % len(quotes)
	if idx < 0 {
		idx += len(quotes)
	}
	return quotes[idx]
}
