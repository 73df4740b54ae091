package core

import (
	"regexp"
	"strings"
)

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	assistRe        = regexp.MustCompile(`(?i)\(\s*ajuda\s+([^)]*)\)`)
	yearTokenRe     = regexp.MustCompile(`(?:^|[^0-9])(20[0-9]{2})(?:[^0-9]|$)`)
	hairstyleRe     = regexp.MustCompile(`(?i)penteado`)
)

// ServiceGroup sums the appointments of a day that share a normalized name.
type ServiceGroup struct {
	// Key is the normalized name before any display pluralization.
	Key      string
	Quantity int
	Subtotal Money
}

// DisplayName is the name as printed on the ledger. "penteado" becomes
// "penteados" once the group holds more than one appointment.
func (g ServiceGroup) DisplayName() string {
	if g.Quantity > 1 {
		return pluralizeHairstyle(g.Key)
	}
	return g.Key
}

// GroupServices groups a bucket's items by normalized service name, in
// first-seen order.
func GroupServices(b DayBucket) []ServiceGroup {
	if len(b.Items) == 0 {
		return nil
	}
	index := make(map[string]int)
	var groups []ServiceGroup
	for _, it := range b.Items {
		key := NormalizeServiceName(it.ServiceName)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, ServiceGroup{Key: key})
		}
		groups[i].Quantity++
		groups[i].Subtotal = groups[i].Subtotal.Add(it.Amount)
	}
	return groups
}

// NormalizeServiceName turns a free-text service label into its ledger name:
//
//  1. parenthetical annotations are removed
//  2. "(ajuda X)" renders as "meio {base} (ajuda X)"
//  3. anything mentioning "deslocamento" collapses to "deslocamento"
//  4. a 2000-2099 year token in the original label is appended
//
// Pluralization is not applied here; see ServiceGroup.DisplayName.
func NormalizeServiceName(name string) string {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "deslocamento") {
		return "deslocamento"
	}

	base := strings.Join(strings.Fields(parentheticalRe.ReplaceAllString(name, " ")), " ")
	out := base
	if strings.Contains(lower, "ajuda") {
		if m := assistRe.FindStringSubmatch(name); m != nil {
			helper := strings.Join(strings.Fields(m[1]), " ")
			out = "meio " + base + " (ajuda " + helper + ")"
		}
	}

	if m := yearTokenRe.FindStringSubmatch(name); m != nil {
		// A year already outside the parentheses survives the strip step.
		if y := yearTokenRe.FindStringSubmatch(base); y == nil || y[1] != m[1] {
			out += " " + m[1]
		}
	}
	return strings.TrimSpace(out)
}

func pluralizeHairstyle(name string) string {
	loc := hairstyleRe.FindStringIndex(name)
	if loc == nil {
		return name
	}
	end := loc[1]
	if end < len(name) && (name[end] == 's' || name[end] == 'S') {
		return name
	}
	return name[:end] + "s" + name[end:]
}
