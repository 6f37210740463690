package resultpush

import (
	"fmt"
	"strings"
	"time"

	"matchhub/internal/rating"
)

const (
	colorStarted   = 0x5865F2
	colorCompleted = 0x57F287
	colorAbandoned = 0xED4245

	shortIDLimit  = 12
	defaultFooter = "matchhub"
)

func FormatMessage(ev MatchEvent) (FormattedMessage, bool) {
	host := playerName(ev.Host.DisplayName, ev.Host.PlayerID)
	guest := playerName(ev.Guest.DisplayName, ev.Guest.PlayerID)
	session := shortID(ev.SessionID, shortIDLimit)
	base := FormattedMessage{
		Timestamp: eventTimestamp(ev.At),
		Footer:    defaultFooter,
	}
	fields := make([]MessageField, 0, 6)
	fields = append(fields, MessageField{Name: "Session", Value: fallback(session, "-"), Inline: true})

	switch ev.EventType {
	case EventMatchStarted:
		base.Title = fmt.Sprintf("Match Started · %s vs %s", host, guest)
		base.Content = fmt.Sprintf("%s vs %s", host, guest)
		base.Description = fmt.Sprintf("%s challenged %s and the match is on.", host, guest)
		base.Color = colorStarted
	case EventMatchCompleted:
		base.Title = fmt.Sprintf("Match Completed · %s %d : %d %s", host, ev.Score.Host, ev.Score.Guest, guest)
		base.Content = fmt.Sprintf("%s %d : %d %s", host, ev.Score.Host, ev.Score.Guest, guest)
		base.Description = completedSummary(host, guest, ev)
		base.Color = colorCompleted
		fields = append(fields, MessageField{Name: "Score", Value: fmt.Sprintf("%d : %d", ev.Score.Host, ev.Score.Guest), Inline: true})
		if ev.Result != nil && ev.Result.Ranked {
			fields = append(fields,
				MessageField{Name: host, Value: ratingText(ev.Result.Host), Inline: true},
				MessageField{Name: guest, Value: ratingText(ev.Result.Guest), Inline: true},
			)
			if ev.Result.Period != "" {
				fields = append(fields, MessageField{Name: "Period", Value: ev.Result.Period, Inline: true})
			}
		} else {
			fields = append(fields, MessageField{Name: "Rating", Value: "unranked", Inline: true})
		}
	case EventMatchAbandoned:
		base.Title = fmt.Sprintf("Match Abandoned · %s vs %s", host, guest)
		base.Content = "match abandoned"
		base.Description = fmt.Sprintf("The match between %s and %s ended without a result.", host, guest)
		base.Color = colorAbandoned
		fields = append(fields, MessageField{Name: "Score", Value: fmt.Sprintf("%d : %d", ev.Score.Host, ev.Score.Guest), Inline: true})
		if ev.Reason != "" {
			fields = append(fields, MessageField{Name: "Reason", Value: ev.Reason, Inline: true})
		}
	default:
		return FormattedMessage{}, false
	}

	base.Fields = fields
	return base, true
}

func completedSummary(host, guest string, ev MatchEvent) string {
	switch {
	case ev.Score.Host > ev.Score.Guest:
		return fmt.Sprintf("%s beat %s.", host, guest)
	case ev.Score.Guest > ev.Score.Host:
		return fmt.Sprintf("%s beat %s.", guest, host)
	default:
		return fmt.Sprintf("%s and %s drew.", host, guest)
	}
}

func ratingText(c rating.RatingChange) string {
	delta := c.After - c.Before
	sign := "+"
	if delta < 0 {
		sign = ""
	}
	return fmt.Sprintf("%d → %d (%s%d)", c.Before, c.After, sign, delta)
}

func playerName(name, id string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return fallback(id, "unknown")
}

func shortID(v string, max int) string {
	if max <= 0 || len(v) <= max {
		return v
	}
	return v[:max]
}

func eventTimestamp(at time.Time) string {
	if at.IsZero() {
		return ""
	}
	return at.UTC().Format(time.RFC3339)
}

func fallback(v, d string) string {
	if strings.TrimSpace(v) == "" {
		return d
	}
	return v
}
