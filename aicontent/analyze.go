// Package aicontent derives machine-readable renditions of posts for search and LLM crawlers:
// a Markdown document, a semantic analysis, an AI-metadata object and the llms.txt index.
//
// Everything here is deterministic string heuristics over the stripped post text
// (word frequencies, a fixed technology vocabulary, sentence splitting on .!?).
package aicontent

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"sitecms/markdown"
	"sitecms/models"
	"sitecms/textutil"
)

// Heading is a section heading found in the body.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Keyword is a frequent non-stopword term.
type Keyword struct {
	Term    string  `json:"term"`
	Count   int     `json:"count"`
	Density float64 `json:"density"`
}

// Analysis is the semantic analysis of one post.
type Analysis struct {
	WordCount             int       `json:"word_count"`
	SentenceCount         int       `json:"sentence_count"`
	ParagraphCount        int       `json:"paragraph_count"`
	AverageSentenceLength float64   `json:"average_sentence_length"`
	ReadingTimeMinutes    int       `json:"reading_time_minutes"`
	ReadabilityScore      float64   `json:"readability_score"`
	ReadabilityLevel      string    `json:"readability_level"`
	Headings              []Heading `json:"headings"`
	Keywords              []Keyword `json:"keywords"`
	Entities              []string  `json:"entities"`
	TechnologyTerms       []string  `json:"technology_terms"`
	Topics                []string  `json:"topics"`
	Questions             []string  `json:"questions"`
	ImageCount            int       `json:"image_count"`
	LinkCount             int       `json:"link_count"`
	ListCount             int       `json:"list_count"`
}

const (
	maxKeywords = 10
	maxEntities = 10
)

var (
	wordPattern     = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}+#'-]*`)
	entityPattern   = regexp.MustCompile(`\b[A-Z][a-zA-Z0-9]+(?:\s+[A-Z][a-zA-Z0-9]+)*\b`)
	mdHeading       = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	mdListItem      = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s+(.+)$`)
	mdLink          = regexp.MustCompile(`\[[^\]]*\]\([^)]+\)`)
	vowelGroups     = regexp.MustCompile(`[aeiouy]+`)
	paragraphBreaks = regexp.MustCompile(`\n\s*\n`)
)

var stopwords = toSet(`a about above after again against all also am an and any are as at be because been
before being below between both but by can could did do does doing down during each few for from further
had has have having he her here hers herself him himself his how i if in into is it its itself just let
like make many may me more most much must my myself new no nor not now of off on once only or other our
ours ourselves out over own same she should so some such than that the their theirs them themselves then
there these they this those through to too under until up use used using very via was we well were what
when where which while who whom why will with would you your yours yourself yourselves one two get got
way even really thing things lot`)

// technologyTopics maps the fixed technology vocabulary to a topic.
var technologyTopics = map[string]string{
	"ai": "Artificial Intelligence", "llm": "Artificial Intelligence", "gpt": "Artificial Intelligence",
	"machine learning": "Artificial Intelligence", "chatbot": "Artificial Intelligence", "openai": "Artificial Intelligence",
	"javascript": "Web Development", "typescript": "Web Development", "react": "Web Development",
	"vue": "Web Development", "angular": "Web Development", "node.js": "Web Development", "nodejs": "Web Development",
	"html": "Web Development", "css": "Web Development", "next.js": "Web Development", "frontend": "Web Development",
	"golang": "Programming", "python": "Programming", "java": "Programming",
	"rust": "Programming", "c#": "Programming", "c++": "Programming", "php": "Programming", "ruby": "Programming",
	"docker": "DevOps", "kubernetes": "DevOps", "terraform": "DevOps", "ci/cd": "DevOps", "devops": "DevOps",
	"helm": "DevOps", "ansible": "DevOps", "jenkins": "DevOps", "github actions": "DevOps",
	"aws": "Cloud", "azure": "Cloud", "gcp": "Cloud", "serverless": "Cloud", "cloud": "Cloud", "lambda": "Cloud",
	"mongodb": "Databases", "postgresql": "Databases", "postgres": "Databases", "mysql": "Databases",
	"redis": "Databases", "sql": "Databases", "nosql": "Databases", "elasticsearch": "Databases",
	"api": "APIs", "rest": "APIs", "graphql": "APIs", "grpc": "APIs", "webhook": "APIs",
	"security": "Security", "oauth": "Security", "jwt": "Security", "encryption": "Security", "gdpr": "Security",
	"seo": "Marketing", "analytics": "Marketing", "marketing": "Marketing", "conversion": "Marketing",
	"kafka": "Data Engineering", "spark": "Data Engineering", "etl": "Data Engineering",
	"microservices": "Architecture", "architecture": "Architecture", "migration": "Architecture",
}

func toSet(words string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}

// plainText returns the visible text of the post body.
func plainText(p *models.BlogPost) string {
	if p.ContentFormat == models.ContentFormatMarkdown {
		return textutil.StripHTML(markdown.PostHTML(p))
	}
	return textutil.StripHTML(p.Content)
}

// Analyze runs the semantic analysis heuristics over a post.
func Analyze(p *models.BlogPost) (*Analysis, error) {
	if err := p.Renderable(); err != nil {
		return nil, err
	}

	text := plainText(p)
	body := markdown.PostBody(p)
	words := wordPattern.FindAllString(text, -1)
	sentences := textutil.Sentences(text)

	a := &Analysis{
		WordCount:          len(words),
		SentenceCount:      len(sentences),
		ParagraphCount:     countParagraphs(body),
		ReadingTimeMinutes: textutil.ReadingTime(len(words)),
		Headings:           headings(body),
		Keywords:           keywords(words, maxKeywords),
		Entities:           entities(sentences, maxEntities),
		ImageCount:         len(textutil.ExtractImages(markdown.PostHTML(p))),
		LinkCount:          len(mdLink.FindAllString(body, -1)),
		ListCount:          len(mdListItem.FindAllString(body, -1)),
	}
	if a.SentenceCount > 0 {
		a.AverageSentenceLength = round1(float64(a.WordCount) / float64(a.SentenceCount))
	}
	a.ReadabilityScore = readability(words, a.SentenceCount)
	a.ReadabilityLevel = readabilityLevel(a.ReadabilityScore)
	a.TechnologyTerms, a.Topics = technology(text)
	for _, s := range sentences {
		if strings.HasSuffix(s, "?") {
			a.Questions = append(a.Questions, s)
		}
	}
	if a.Headings == nil {
		a.Headings = []Heading{}
	}
	if a.Questions == nil {
		a.Questions = []string{}
	}
	return a, nil
}

func countParagraphs(body string) int {
	n := 0
	for _, block := range paragraphBreaks.Split(body, -1) {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, "#") {
			continue
		}
		n++
	}
	return n
}

func headings(body string) []Heading {
	var out []Heading
	for _, m := range mdHeading.FindAllStringSubmatch(body, -1) {
		out = append(out, Heading{Level: len(m[1]), Text: strings.TrimSpace(strings.Trim(m[2], "#* "))})
	}
	return out
}

func keywords(words []string, limit int) []Keyword {
	counts := map[string]int{}
	total := 0
	for _, w := range words {
		w = strings.ToLower(strings.Trim(w, "'-"))
		total++
		if len([]rune(w)) < 3 || stopwords[w] || isNumber(w) {
			continue
		}
		counts[w]++
	}
	out := make([]Keyword, 0, len(counts))
	for term, n := range counts {
		out = append(out, Keyword{Term: term, Count: n, Density: round2(float64(n) / float64(total) * 100)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// entities collects capitalized word runs. A single capitalized word that opens a sentence
// is ignored since it is capitalized by position only.
func entities(sentences []string, limit int) []string {
	counts := map[string]int{}
	var order []string
	for _, s := range sentences {
		for _, loc := range entityPattern.FindAllStringIndex(s, -1) {
			name := s[loc[0]:loc[1]]
			if loc[0] == 0 && !strings.ContainsRune(name, ' ') {
				continue
			}
			if stopwords[strings.ToLower(name)] {
				continue
			}
			if counts[name] == 0 {
				order = append(order, name)
			}
			counts[name]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > limit {
		order = order[:limit]
	}
	if order == nil {
		return []string{}
	}
	return order
}

// technology matches the fixed vocabulary against the lowercased text.
func technology(text string) (terms []string, topics []string) {
	lower := " " + strings.ToLower(text) + " "
	seenTopic := map[string]bool{}
	keys := make([]string, 0, len(technologyTopics))
	for k := range technologyTopics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, term := range keys {
		if !containsTerm(lower, term) {
			continue
		}
		terms = append(terms, term)
		if topic := technologyTopics[term]; !seenTopic[topic] {
			seenTopic[topic] = true
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	if terms == nil {
		terms = []string{}
	}
	if topics == nil {
		topics = []string{}
	}
	return terms, topics
}

// containsTerm reports whether term occurs in s delimited by non-word characters.
func containsTerm(s, term string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		before, after := ' ', ' '
		if start > 0 {
			before, _ = utf8.DecodeLastRuneInString(s[:start])
		}
		if end < len(s) {
			after, _ = utf8.DecodeRuneInString(s[end:])
		}
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		from = start + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isNumber(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return true
}

// readability is the Flesch reading ease, clamped to [0, 100].
func readability(words []string, sentences int) float64 {
	if len(words) == 0 || sentences == 0 {
		return 0
	}
	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}
	score := 206.835 - 1.015*(float64(len(words))/float64(sentences)) - 84.6*(float64(syllables)/float64(len(words)))
	return round1(math.Max(0, math.Min(100, score)))
}

func countSyllables(word string) int {
	w := strings.ToLower(word)
	n := len(vowelGroups.FindAllString(w, -1))
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && n > 1 {
		n--
	}
	if n < 1 {
		return 1
	}
	return n
}

func readabilityLevel(score float64) string {
	switch {
	case score >= 80:
		return "easy"
	case score >= 60:
		return "standard"
	case score >= 40:
		return "fairly difficult"
	case score > 0:
		return "difficult"
	default:
		return "unknown"
	}
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
func round2(f float64) float64 { return math.Round(f*100) / 100 }
