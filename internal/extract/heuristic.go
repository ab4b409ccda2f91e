package extract

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/factlens/internal/model"
)

// SentenceClaimGenerator treats declarative sentences with a factual cue as
// claims. It needs no model and is used in heuristic mode.
type SentenceClaimGenerator struct {
	keywords []string
}

// NewSentenceClaimGenerator creates a new sentence claim generator
func NewSentenceClaimGenerator() *SentenceClaimGenerator {
	return &SentenceClaimGenerator{
		keywords: []string{
			"originated", "origin", "first", "introduced", "invented",
			"according to", "is defined as", "is legally", "under the law",
			"established", "founded", "created", "discovered", "developed",
			"born", "died", "won", "located", "capital", "largest", "built",
		},
	}
}

// Generate implements ClaimGenerator
func (g *SentenceClaimGenerator) Generate(_ context.Context, text string) ([]model.Claim, error) {
	var claims []model.Claim
	for i, sentence := range splitSentences(text) {
		if strings.HasSuffix(sentence, "?") {
			continue
		}
		if cue := g.cue(sentence); cue != "" {
			claims = append(claims, model.Claim{
				Text:      sentence,
				Heuristic: cue,
				Sentence:  i,
			})
		}
	}
	return claims, nil
}

// cue names the first factual signal found in sentence, or ""
func (g *SentenceClaimGenerator) cue(sentence string) string {
	lower := strings.ToLower(sentence)
	for _, keyword := range g.keywords {
		if strings.Contains(lower, keyword) {
			return "keyword:" + keyword
		}
	}
	if strings.IndexFunc(sentence, unicode.IsDigit) >= 0 {
		return "number"
	}
	words := strings.Fields(sentence)
	for _, w := range words[1:] {
		if isCapitalised(w) {
			return "proper_noun"
		}
	}
	return ""
}

// splitSentences splits text into sentences (simple heuristic)
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	add := func() {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= 12 && len(sentence) <= 500 && len(strings.Fields(sentence)) >= 3 {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Only split when followed by whitespace, and not after a title
			if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t') && !endsWithAbbreviation(current.String()) {
				add()
			}
		}
	}

	if current.Len() > 0 {
		add()
	}

	return sentences
}

var abbreviations = map[string]bool{
	"Mr.": true, "Mrs.": true, "Ms.": true, "Dr.": true, "Prof.": true,
	"St.": true, "Jr.": true, "Sr.": true, "vs.": true, "e.g.": true, "i.e.": true,
}

func endsWithAbbreviation(s string) bool {
	fields := strings.Fields(s)
	return len(fields) > 0 && abbreviations[fields[len(fields)-1]]
}

var (
	months = `(?:January|February|March|April|May|June|July|August|September|October|November|December)`

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`\b` + months + `\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}\s+` + months + `\s+\d{4}\b`),
		regexp.MustCompile(`\b` + months + `\s+\d{4}\b`),
		regexp.MustCompile(`\b(?:1[0-9]|20)\d{2}s?\b`),
	}

	orgSuffixes = []string{
		"Inc", "Inc.", "Corp", "Corp.", "Corporation", "Company", "Ltd", "Ltd.", "LLC",
		"University", "Institute", "Agency", "Association", "Bank", "Party",
		"Council", "Ministry", "Organization", "Organisation", "Group", "Foundation",
		"Committee", "Department", "Museum", "Society", "Laboratory",
	}
	eventSuffixes = []string{
		"War", "Olympics", "Revolution", "Summit", "Festival", "Cup",
		"Championship", "Games", "Conference", "Treaty", "Battle", "Election",
	}
	locSuffixes = []string{
		"River", "Mountain", "Mountains", "Lake", "Ocean", "Sea", "Island",
		"Islands", "Valley", "Desert", "Bay", "Peninsula", "Forest", "Gulf",
	}
	locPrefixes  = []string{"Mount", "Lake", "Cape", "Gulf"}
	personTitles = []string{"Mr", "Mr.", "Mrs", "Mrs.", "Ms", "Ms.", "Dr", "Dr.", "President", "Sir", "Professor", "King", "Queen", "Senator"}
	gpeSuffixes  = []string{"City", "County", "State", "Province", "Republic", "Kingdom"}

	// Words that start sentences without naming anything
	leadingStopwords = map[string]bool{
		"The": true, "A": true, "An": true, "In": true, "On": true, "At": true,
		"This": true, "That": true, "These": true, "Those": true, "It": true,
		"He": true, "She": true, "They": true, "We": true, "I": true, "His": true,
		"Her": true, "Their": true, "Its": true, "After": true, "Before": true,
		"During": true, "Since": true, "By": true, "For": true, "From": true,
		"According": true, "When": true, "While": true, "Although": true, "But": true,
		"And": true, "Or": true, "As": true, "If": true, "There": true,
	}

	joiners = map[string]bool{"of": true, "the": true, "and": true, "de": true, "von": true, "van": true}
)

// HeuristicEntityRecognizer finds dates and runs of capitalised words. The
// label of a run is guessed from title words and suffixes.
type HeuristicEntityRecognizer struct{}

// NewHeuristicEntityRecognizer creates a new heuristic recognizer
func NewHeuristicEntityRecognizer() *HeuristicEntityRecognizer {
	return &HeuristicEntityRecognizer{}
}

// Recognize implements EntityRecognizer
func (HeuristicEntityRecognizer) Recognize(_ context.Context, text string) ([]model.Entity, error) {
	var entities []model.Entity

	masked := []byte(text)
	for _, re := range datePatterns {
		for _, loc := range re.FindAllIndex(masked, -1) {
			entities = append(entities, model.Entity{Text: string(masked[loc[0]:loc[1]]), Label: model.LabelDate})
			for i := loc[0]; i < loc[1]; i++ {
				masked[i] = ' '
			}
		}
	}

	for _, sentence := range splitSentences(string(masked)) {
		for _, run := range capitalisedRuns(strings.Fields(sentence)) {
			entities = append(entities, model.Entity{Text: strings.Join(run, " "), Label: guessLabel(run)})
		}
	}

	return entities, nil
}

// capitalisedRuns groups consecutive capitalised words, allowing lowercase
// joiners such as "of" between them
func capitalisedRuns(words []string) [][]string {
	var runs [][]string
	var current []string

	flush := func() {
		for len(current) > 0 && joiners[current[len(current)-1]] {
			current = current[:len(current)-1]
		}
		if len(current) > 0 {
			runs = append(runs, current)
		}
		current = nil
	}

	for i, raw := range words {
		w := strings.TrimFunc(raw, func(r rune) bool {
			return unicode.IsPunct(r) && r != '.' && r != '&'
		})
		w = strings.TrimSuffix(w, "'s")
		switch {
		case i == 0 && leadingStopwords[w]:
			continue
		case isCapitalised(w):
			current = append(current, strings.TrimSuffix(w, "."))
		case len(current) > 0 && joiners[w]:
			current = append(current, w)
			continue
		default:
			flush()
			continue
		}
		if endsClause(raw) {
			flush()
		}
	}
	flush()

	return runs
}

func endsClause(word string) bool {
	return strings.HasSuffix(word, ",") || strings.HasSuffix(word, ";") || strings.HasSuffix(word, ":")
}

func isCapitalised(word string) bool {
	for _, r := range word {
		return unicode.IsUpper(r)
	}
	return false
}

func guessLabel(run []string) model.EntityLabel {
	first, last := run[0], run[len(run)-1]
	switch {
	case contains(personTitles, first):
		return model.LabelPerson
	case contains(orgSuffixes, last), contains(orgSuffixes, first):
		return model.LabelOrganization
	case contains(eventSuffixes, last):
		return model.LabelEvent
	case contains(locSuffixes, last), contains(locPrefixes, first):
		return model.LabelLocation
	case contains(gpeSuffixes, last):
		return model.LabelGeoPolitical
	case len(run) >= 2 && len(run) <= 3 && !hasJoiner(run):
		return model.LabelPerson
	default:
		return model.LabelMisc
	}
}

func hasJoiner(run []string) bool {
	for _, w := range run {
		if joiners[w] {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
