package detect

import (
	"regexp"
	"strings"

	"github.com/rcliao/agent-modules/internal/model"
)

const (
	maxListItems = 10
	maxGuests    = 5
	maxKeywords  = 5
)

var (
	listTrigger  = regexp.MustCompile(`\b(need to buy|need to get|buy|purchase|pick up|get|add|include|remove|delete)\b`)
	listStop     = regexp.MustCompile(`\s(to|on|from|off|for)\s+(my|the|our)\b`)
	listSplit    = regexp.MustCompile(`\s*(?:,|&|;|\band\b)\s*`)
	sentenceEnd  = regexp.MustCompile(`[.!?]`)
	capitalWord  = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
	firstNumber  = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	goalLead     = regexp.MustCompile(`(?i)\b(?:my goal is to|my goal is|goal is to|goal is|i want to achieve)\s+`)
	trackerLead  = regexp.MustCompile(`(?i)\b(?:keep track of|track my|log my)\s+`)
	fillerPrefix = []string{"and ", "some ", "more ", "a ", "an ", "the ", "my "}
)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
	regexp.MustCompile(`\b(today|tomorrow|next week|this weekend)\b`),
}

var commonItems = []string{"milk", "eggs", "bread", "butter", "cheese", "apples", "bananas"}

var stopWords = map[string]bool{
	"i": true, "am": true, "is": true, "the": true, "in": true, "to": true, "and": true,
	"or": true, "but": true, "about": true, "by": true, "for": true, "with": true,
	"that": true, "this": true, "really": true, "very": true, "want": true, "have": true,
	"been": true, "lately": true, "some": true, "more": true, "into": true, "from": true,
	// interest trigger words
	"interested": true, "learning": true, "studying": true, "fascinated": true,
}

var notNames = map[string]bool{
	"january": true, "february": true, "march": true, "april": true, "may": true, "june": true,
	"july": true, "august": true, "september": true, "october": true, "november": true, "december": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true,
	"saturday": true, "sunday": true,
}

// ExtractListItems pulls list items out of a request such as
// "I need to buy milk, eggs, and bread". Items follow the first buy/add/remove
// style verb and end at the next such verb or at phrases like "to my list".
// Without a verb it falls back to well-known grocery words.
func ExtractListItems(query string) []string {
	q := strings.ToLower(query)
	if loc := sentenceEnd.FindStringIndex(q); loc != nil && loc[0] > 0 {
		q = q[:loc[0]]
	}

	loc := listTrigger.FindStringIndex(q)
	if loc == nil {
		var items []string
		words := normalize(q)
		for _, it := range commonItems {
			if words.has(it) {
				items = append(items, it)
			}
		}
		return model.Dedupe(items)
	}

	rest := q[loc[1]:]
	if next := listTrigger.FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}
	if stop := listStop.FindStringIndex(rest); stop != nil {
		rest = rest[:stop[0]]
	}

	var items []string
	for _, part := range listSplit.Split(rest, -1) {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		for _, f := range fillerPrefix {
			part = strings.TrimPrefix(part, f)
		}
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	items = model.Dedupe(items)
	if len(items) > maxListItems {
		items = items[:maxListItems]
	}
	return items
}

// ExtractDate returns the first date-like phrase in query, lowercased.
func ExtractDate(query string) string {
	q := strings.ToLower(query)
	for _, re := range datePatterns {
		if m := re.FindString(q); m != "" {
			return m
		}
	}
	return ""
}

// ExtractGuests returns capitalised words that are not sentence-initial and
// not month or weekday names.
func ExtractGuests(query string) []string {
	var guests []string
	for _, loc := range capitalWord.FindAllStringIndex(query, -1) {
		if sentenceInitial(query, loc[0]) {
			continue
		}
		w := query[loc[0]:loc[1]]
		if notNames[strings.ToLower(w)] {
			continue
		}
		guests = append(guests, w)
	}
	guests = model.Dedupe(guests)
	if len(guests) > maxGuests {
		guests = guests[:maxGuests]
	}
	return guests
}

func sentenceInitial(s string, i int) bool {
	before := strings.TrimRight(s[:i], " \t\n\"'")
	return before == "" || strings.ContainsAny(before[len(before)-1:], ".!?")
}

// ExtractPlanner proposes planner data from an event request.
func ExtractPlanner(query string) *model.PlannerData {
	return &model.PlannerData{
		Date:   ExtractDate(query),
		Guests: ExtractGuests(query),
		Tasks:  []string{},
		Status: model.StatusPlanning,
	}
}

// ExtractCalendar proposes a single calendar entry when the query names a date.
func ExtractCalendar(query string) model.CalendarData {
	cal := model.CalendarData{}
	if d := ExtractDate(query); d != "" {
		cal[d] = strings.TrimSpace(query)
	}
	return cal
}

// ExtractTracker proposes a tracker whose metric is the phrase after
// "keep track of" or "track my".
func ExtractTracker(query string) *model.TrackerData {
	tr := &model.TrackerData{Metric: model.UnknownMetric, History: []model.TrackerEntry{}}
	loc := trackerLead.FindStringIndex(query)
	if loc == nil {
		return tr
	}
	rest := strings.ToLower(query[loc[1]:])
	if end := sentenceEnd.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	if n := firstNumber.FindStringIndex(rest); n != nil {
		rest = rest[:n[0]]
	}
	words := strings.Fields(string(normalize(rest)))
	if len(words) > 0 && words[0] == "my" {
		words = words[1:]
	}
	if len(words) > 3 {
		words = words[:3]
	}
	if metric := strings.Join(words, " "); metric != "" {
		tr.Metric = metric
	}
	return tr
}

// ExtractGoal proposes a goal titled by the phrase after "my goal is to".
func ExtractGoal(query string) *model.GoalData {
	g := &model.GoalData{Title: "New Goal", Milestones: []model.Milestone{}}
	loc := goalLead.FindStringIndex(query)
	if loc == nil {
		return g
	}
	title := query[loc[1]:]
	if end := sentenceEnd.FindStringIndex(title); end != nil {
		title = title[:end[0]]
	}
	if title = strings.TrimSpace(title); title != "" {
		g.Title = title
	}
	return g
}

// ExtractInterest proposes interest data from the significant words of query.
func ExtractInterest(query string) *model.InterestData {
	kw := significantWords(query)
	if len(kw) > maxKeywords {
		kw = kw[:maxKeywords]
	}
	return &model.InterestData{
		Keywords:        kw,
		EngagementLevel: model.DefaultEngagement,
		RelatedTopics:   []string{},
	}
}

func significantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(string(normalize(s))) {
		if len(w) > 3 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return model.Dedupe(out)
}

var tagRules = []struct {
	tag   string
	terms []string
}{
	{"urgent", []string{"urgent", "important"}},
	{"work", []string{"work", "job"}},
	{"personal", []string{"personal", "family"}},
	{"health", []string{"health", "fitness"}},
}

// ExtractTags returns the coarse topic tags a query mentions.
func ExtractTags(query string) []string {
	t := normalize(query)
	var tags []string
	for _, r := range tagRules {
		if _, ok := t.any(r.terms); ok {
			tags = append(tags, r.tag)
		}
	}
	return tags
}
