// Package scripture extracts scripture references from model responses.
//
// Extraction is best-effort pattern matching: a compiled regular expression
// finds chapter:verse shapes and a book-alias table canonicalizes and
// filters the book names, so "1 Cor 13:4-7" and "First Corinthians 13:4"
// both resolve to the same book.
package scripture

import (
	"regexp"
	"strconv"
	"strings"
)

// Reference is one scripture citation found in a text.
type Reference struct {
	// Book is the canonical book name (e.g., "1 Corinthians").
	Book string `json:"book"`

	// Chapter is the chapter number.
	Chapter int `json:"chapter"`

	// VerseStart is the first verse of the citation.
	VerseStart int `json:"verse_start"`

	// VerseEnd is the last verse of a range, equal to VerseStart for a
	// single-verse citation.
	VerseEnd int `json:"verse_end"`

	// Raw is the text as it appeared in the response.
	Raw string `json:"raw"`
}

// Display returns the canonical rendering, e.g. "John 3:16" or
// "1 Corinthians 13:4-7".
func (r Reference) Display() string {
	s := r.Book + " " + strconv.Itoa(r.Chapter) + ":" + strconv.Itoa(r.VerseStart)
	if r.VerseEnd > r.VerseStart {
		s += "-" + strconv.Itoa(r.VerseEnd)
	}
	return s
}

// Extractor finds scripture references in text.
type Extractor struct {
	pattern *regexp.Regexp
	aliases map[string]string
}

// citationPattern matches an optional leading ordinal, a book word, and a
// chapter:verse pair with an optional verse range.
var citationPattern = regexp.MustCompile(
	`(?i)\b((?:(?:1|2|3|first|second|third)\s+)?[a-z]+)\.?\s+(\d{1,3}):(\d{1,3})(?:\s*[-–]\s*(\d{1,3}))?`,
)

// NewExtractor creates an extractor with the default book-alias table.
func NewExtractor() *Extractor {
	return &Extractor{
		pattern: citationPattern,
		aliases: defaultAliases(),
	}
}

// Extract returns every scripture reference found in text, in order of
// appearance, with duplicates removed. Matches whose book word is not a
// known book or alias are ignored, so "scored 3:1 in the match" never
// becomes a citation.
func (e *Extractor) Extract(text string) []Reference {
	if text == "" {
		return nil
	}

	matches := e.pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var refs []Reference
	seen := make(map[string]struct{})

	for _, m := range matches {
		book, ok := e.canonicalBook(m[1])
		if !ok {
			continue
		}

		chapter, err := strconv.Atoi(m[2])
		if err != nil || chapter == 0 {
			continue
		}
		verse, err := strconv.Atoi(m[3])
		if err != nil || verse == 0 {
			continue
		}
		verseEnd := verse
		if m[4] != "" {
			if v, err := strconv.Atoi(m[4]); err == nil && v >= verse {
				verseEnd = v
			}
		}

		ref := Reference{
			Book:       book,
			Chapter:    chapter,
			VerseStart: verse,
			VerseEnd:   verseEnd,
			Raw:        strings.TrimSpace(m[0]),
		}

		key := ref.Display()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		refs = append(refs, ref)
	}

	return refs
}

// canonicalBook resolves a matched book word to its canonical name.
func (e *Extractor) canonicalBook(raw string) (string, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	key = strings.ReplaceAll(key, "first ", "1 ")
	key = strings.ReplaceAll(key, "second ", "2 ")
	key = strings.ReplaceAll(key, "third ", "3 ")

	book, ok := e.aliases[key]
	return book, ok
}

// defaultAliases maps lowercase book names and common abbreviations to
// canonical names. The table is data, not logic; it does not try to be an
// exhaustive concordance.
func defaultAliases() map[string]string {
	canonical := map[string][]string{
		"Genesis":         {"genesis", "gen"},
		"Exodus":          {"exodus", "exod", "ex"},
		"Leviticus":       {"leviticus", "lev"},
		"Numbers":         {"numbers", "num"},
		"Deuteronomy":     {"deuteronomy", "deut"},
		"Joshua":          {"joshua", "josh"},
		"Judges":          {"judges", "judg"},
		"Ruth":            {"ruth"},
		"1 Samuel":        {"1 samuel", "1 sam"},
		"2 Samuel":        {"2 samuel", "2 sam"},
		"1 Kings":         {"1 kings", "1 kgs"},
		"2 Kings":         {"2 kings", "2 kgs"},
		"Ezra":            {"ezra"},
		"Nehemiah":        {"nehemiah", "neh"},
		"Esther":          {"esther", "esth"},
		"Job":             {"job"},
		"Psalms":          {"psalms", "psalm", "ps", "psa"},
		"Proverbs":        {"proverbs", "prov"},
		"Ecclesiastes":    {"ecclesiastes", "eccl"},
		"Song of Solomon": {"song"},
		"Isaiah":          {"isaiah", "isa"},
		"Jeremiah":        {"jeremiah", "jer"},
		"Lamentations":    {"lamentations", "lam"},
		"Ezekiel":         {"ezekiel", "ezek"},
		"Daniel":          {"daniel", "dan"},
		"Hosea":           {"hosea", "hos"},
		"Joel":            {"joel"},
		"Amos":            {"amos"},
		"Obadiah":         {"obadiah", "obad"},
		"Jonah":           {"jonah"},
		"Micah":           {"micah", "mic"},
		"Nahum":           {"nahum", "nah"},
		"Habakkuk":        {"habakkuk", "hab"},
		"Zephaniah":       {"zephaniah", "zeph"},
		"Haggai":          {"haggai", "hag"},
		"Zechariah":       {"zechariah", "zech"},
		"Malachi":         {"malachi", "mal"},
		"Matthew":         {"matthew", "matt", "mt"},
		"Mark":            {"mark", "mk"},
		"Luke":            {"luke", "lk"},
		"John":            {"john", "jn"},
		"Acts":            {"acts"},
		"Romans":          {"romans", "rom"},
		"1 Corinthians":   {"1 corinthians", "1 cor"},
		"2 Corinthians":   {"2 corinthians", "2 cor"},
		"Galatians":       {"galatians", "gal"},
		"Ephesians":       {"ephesians", "eph"},
		"Philippians":     {"philippians", "phil"},
		"Colossians":      {"colossians", "col"},
		"1 Thessalonians": {"1 thessalonians", "1 thess"},
		"2 Thessalonians": {"2 thessalonians", "2 thess"},
		"1 Timothy":       {"1 timothy", "1 tim"},
		"2 Timothy":       {"2 timothy", "2 tim"},
		"Titus":           {"titus"},
		"Philemon":        {"philemon", "phlm"},
		"Hebrews":         {"hebrews", "heb"},
		"James":           {"james", "jas"},
		"1 Peter":         {"1 peter", "1 pet"},
		"2 Peter":         {"2 peter", "2 pet"},
		"1 John":          {"1 john", "1 jn"},
		"2 John":          {"2 john", "2 jn"},
		"3 John":          {"3 john", "3 jn"},
		"Jude":            {"jude"},
		"Revelation":      {"revelation", "rev"},
	}

	aliases := make(map[string]string, 4*len(canonical))
	for book, names := range canonical {
		for _, name := range names {
			aliases[name] = book
		}
	}
	return aliases
}
