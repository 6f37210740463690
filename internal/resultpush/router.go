package resultpush

import "strings"

type Router struct{}

func (r Router) MatchTargets(targets []PushTarget, ev MatchEvent) []PushTarget {
	if len(targets) == 0 {
		return nil
	}
	out := make([]PushTarget, 0, len(targets))
	for _, target := range targets {
		if !target.Enabled {
			continue
		}
		if !scopeMatches(target.Scope, ev) {
			continue
		}
		if !eventAllowed(target.EventAllowlist, ev.EventType) {
			continue
		}
		out = append(out, target)
	}
	return out
}

// scopeMatches compares a player scope against both participants' player
// ids and, once rated, their account ids.
func scopeMatches(scope string, ev MatchEvent) bool {
	if scope == "all" {
		return true
	}
	id, ok := strings.CutPrefix(scope, "player:")
	if !ok || id == "" {
		return false
	}
	if ev.Host.PlayerID == id || ev.Guest.PlayerID == id {
		return true
	}
	if ev.Result != nil && (ev.Result.Host.AccountID == id || ev.Result.Guest.AccountID == id) {
		return true
	}
	return false
}

func eventAllowed(allowlist []string, evType string) bool {
	if len(allowlist) == 0 {
		return true
	}
	evType = strings.ToLower(strings.TrimSpace(evType))
	for _, v := range allowlist {
		if v == "" {
			continue
		}
		if strings.ToLower(strings.TrimSpace(v)) == evType {
			return true
		}
	}
	return false
}
