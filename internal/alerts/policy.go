package alerts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/HanTheDev/lead-signal-pipeline/internal/textutil"
)

const (
	BusinessDayStart = 8
	BusinessDayEnd   = 18

	MaxMessageExcerpt = 100
)

// InBusinessHours reports whether t falls in [08:00, 18:00) Monday to
// Friday in loc.
func InBusinessHours(t time.Time, loc *time.Location) bool {
	local := t.In(loc)

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	h := local.Hour()
	return h >= BusinessDayStart && h < BusinessDayEnd
}

// Compose renders the owner-facing alert body.
func Compose(tenantName string, lead Lead) string {
	var b strings.Builder

	if tenantName != "" {
		fmt.Fprintf(&b, "🔥 Hot lead for %s\n", tenantName)
	} else {
		b.WriteString("🔥 Hot lead\n")
	}
	fmt.Fprintf(&b, "Score: %d/100\n", lead.Score.Score)
	fmt.Fprintf(&b, "Contact: %s\n", contactOrUnknown(lead.Contact))

	// Whitespace runs collapse so the excerpt stays on one line.
	if msg := strings.Join(strings.Fields(lead.Message), " "); msg != "" {
		fmt.Fprintf(&b, "Message: \"%s\"\n", textutil.Ellipsize(msg, MaxMessageExcerpt))
	}
	if lead.Score.Reasoning != "" {
		fmt.Fprintf(&b, "Why: %s\n", lead.Score.Reasoning)
	}
	if lead.RecommendedAction != "" {
		fmt.Fprintf(&b, "Next step: %s\n", lead.RecommendedAction)
	}

	return strings.TrimRight(b.String(), "\n")
}

// Stats summarizes alert records relative to now.
func Stats(records []models.AlertRecord, now time.Time) models.AlertStats {
	var stats models.AlertStats
	if len(records) == 0 {
		return stats
	}

	sum := 0
	for _, r := range records {
		stats.Total++
		sum += r.Score

		age := now.Sub(r.SentAt)
		if age <= 24*time.Hour {
			stats.Last24h++
		}
		if age <= 7*24*time.Hour {
			stats.Last7d++
		}
		if r.Score > stats.MaxScore {
			stats.MaxScore = r.Score
		}
	}

	stats.AvgScore = math.Round(float64(sum)/float64(stats.Total)*100) / 100
	return stats
}

func contactOrUnknown(contact string) string {
	if contact == "" {
		return UnknownContact
	}
	return contact
}
