package releasenote

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

// ChangeKind maps source-language synonyms and icon glyphs to a change type
type ChangeKind struct {
	Type     ChangeType `yaml:"type" json:"type"`
	Label    string     `yaml:"label" json:"label"`
	Keywords []string   `yaml:"keywords" json:"keywords"`
	Icons    []string   `yaml:"icons,omitempty" json:"icons,omitempty"`
}

// HeaderLabels lists the literal header texts of each table column
type HeaderLabels struct {
	Type     []string `yaml:"type" json:"type"`
	Category []string `yaml:"category" json:"category"`
	Summary  []string `yaml:"summary" json:"summary"`
	Ticket   []string `yaml:"ticket" json:"ticket"`
}

// SectionHeaders lists the phrases that open and close change sections
type SectionHeaders struct {
	Improvement []string `yaml:"improvement" json:"improvement"`
	Issue       []string `yaml:"issue" json:"issue"`
	Stop        []string `yaml:"stop" json:"stop"`
}

// Vocabulary is the named, externally configurable word list the engine
// classifies with. Load one with LoadVocabulary or start from
// DefaultVocabulary.
type Vocabulary struct {
	ProductName          string         `yaml:"product_name" json:"product_name"`
	TLSLibrary           string         `yaml:"tls_library" json:"tls_library"`
	SSHLibrary           string         `yaml:"ssh_library" json:"ssh_library"`
	ChangeKinds          []ChangeKind   `yaml:"change_kinds" json:"change_kinds"`
	HeaderLabels         HeaderLabels   `yaml:"header_labels" json:"header_labels"`
	CategoryKeywords     []string       `yaml:"category_keywords" json:"category_keywords"`
	IgnorePhrases        []string       `yaml:"ignore_phrases" json:"ignore_phrases"`
	IgnorePatterns       []string       `yaml:"ignore_patterns" json:"ignore_patterns"`
	SectionHeaders       SectionHeaders `yaml:"section_headers" json:"section_headers"`
	NoneSentinels        []string       `yaml:"none_sentinels" json:"none_sentinels"`
	BulletGlyphs         []string       `yaml:"bullet_glyphs" json:"bullet_glyphs"`
	TicketPattern        string         `yaml:"ticket_pattern" json:"ticket_pattern"`
	MinDescriptionLength int            `yaml:"min_description_length" json:"min_description_length"`
}

// DefaultVocabulary returns the built-in vocabulary for TrusGuard release notes
func DefaultVocabulary() Vocabulary {
	v, err := ParseVocabulary(defaultVocabularyYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary is invalid: %v", err))
	}
	return v
}

// LoadVocabulary reads a YAML vocabulary file. Fields the file omits keep
// their default values.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	v := DefaultVocabulary()
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary file %s: %w", path, err)
	}
	if err := v.Validate(); err != nil {
		return Vocabulary{}, fmt.Errorf("invalid vocabulary file %s: %w", path, err)
	}
	return v, nil
}

// ParseVocabulary decodes and validates a YAML vocabulary document
func ParseVocabulary(data []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	if err := v.Validate(); err != nil {
		return Vocabulary{}, err
	}
	return v, nil
}

// Validate checks that the vocabulary can drive an extraction
func (v Vocabulary) Validate() error {
	_, err := compileVocabulary(v)
	return err
}

type compiledKind struct {
	ChangeKind
	match *regexp.Regexp
}

// matches reports whether s names this kind by keyword or leading icon
func (k *compiledKind) matches(s string) bool {
	if s == "" {
		return false
	}
	if k.match != nil && k.match.MatchString(s) {
		return true
	}
	return k.icon(s) != ""
}

func (k *compiledKind) icon(s string) string {
	for _, icon := range k.Icons {
		if icon != "" && strings.HasPrefix(s, icon) {
			return icon
		}
	}
	return ""
}

type headerRole int

const (
	roleType headerRole = iota
	roleCategory
	roleSummary
	roleTicket
)

// lexicon is a vocabulary compiled for matching
type lexicon struct {
	vocab      Vocabulary
	kinds      []*compiledKind
	headers    map[string]headerRole
	categories []string
	ignore     []*regexp.Regexp
	phrases    []string
	none       map[string]bool
	bullets    []string
	ticket     *regexp.Regexp
	product    *regexp.Regexp
	tls        componentMatcher
	ssh        componentMatcher
	improve    []string
	issue      []string
	stop       []string
}

func compileVocabulary(v Vocabulary) (*lexicon, error) {
	if strings.TrimSpace(v.ProductName) == "" {
		return nil, fmt.Errorf("product_name is required")
	}
	if strings.TrimSpace(v.TLSLibrary) == "" || strings.TrimSpace(v.SSHLibrary) == "" {
		return nil, fmt.Errorf("tls_library and ssh_library are required")
	}
	if len(v.ChangeKinds) == 0 {
		return nil, fmt.Errorf("at least one change kind is required")
	}
	if len(v.HeaderLabels.Category) == 0 || len(v.HeaderLabels.Summary) == 0 {
		return nil, fmt.Errorf("category and summary header labels are required")
	}
	if v.MinDescriptionLength < 0 {
		return nil, fmt.Errorf("min_description_length must not be negative")
	}

	lex := &lexicon{
		vocab:   v,
		headers: map[string]headerRole{},
		none:    map[string]bool{},
	}

	for _, k := range v.ChangeKinds {
		if !k.Type.Valid() {
			return nil, fmt.Errorf("unknown change type %q", k.Type)
		}
		if k.Label == "" {
			return nil, fmt.Errorf("change kind %s needs a label", k.Type)
		}
		if len(k.Keywords) == 0 && len(k.Icons) == 0 {
			return nil, fmt.Errorf("change kind %s needs keywords or icons", k.Type)
		}
		ck := &compiledKind{ChangeKind: k}
		if len(k.Keywords) > 0 {
			ck.match = regexp.MustCompile("(?i)(?:" + keywordAlternation(k.Keywords) + ")")
		}
		lex.kinds = append(lex.kinds, ck)
	}

	roles := []struct {
		labels []string
		role   headerRole
	}{
		{v.HeaderLabels.Type, roleType},
		{v.HeaderLabels.Category, roleCategory},
		{v.HeaderLabels.Summary, roleSummary},
		{v.HeaderLabels.Ticket, roleTicket},
	}
	for _, r := range roles {
		for _, label := range r.labels {
			if key := compactFold(label); key != "" {
				if _, taken := lex.headers[key]; !taken {
					lex.headers[key] = r.role
				}
			}
		}
	}

	lex.categories = append([]string(nil), v.CategoryKeywords...)
	sort.SliceStable(lex.categories, func(i, j int) bool {
		return len(lex.categories[i]) > len(lex.categories[j])
	})

	for _, p := range v.IgnorePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		lex.ignore = append(lex.ignore, re)
	}
	for _, p := range v.IgnorePhrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lex.phrases = append(lex.phrases, p)
		}
	}
	for _, s := range v.NoneSentinels {
		lex.none[strings.ToLower(strings.TrimSpace(s))] = true
	}
	lex.bullets = v.BulletGlyphs

	ticket := v.TicketPattern
	if ticket == "" {
		ticket = `[A-Z][A-Z0-9]+-\d+`
	}
	re, err := regexp.Compile(`\(\s*(` + ticket + `)\s*\)\s*$`)
	if err != nil {
		return nil, fmt.Errorf("invalid ticket pattern %q: %w", v.TicketPattern, err)
	}
	lex.ticket = re

	lex.product = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(v.ProductName) + `\s+v?(\d+(?:\.\d+)+)`)
	lex.tls = componentMatcher{
		re:     regexp.MustCompile(componentPattern(v.TLSLibrary, `(?-i:[a-z])?`)),
		others: foldAll(v.ProductName, v.SSHLibrary),
	}
	lex.ssh = componentMatcher{
		re:     regexp.MustCompile(componentPattern(v.SSHLibrary, `(?-i:p)\d+`)),
		others: foldAll(v.ProductName, v.TLSLibrary),
	}

	for _, h := range v.SectionHeaders.Improvement {
		lex.improve = append(lex.improve, sectionKey(h))
	}
	for _, h := range v.SectionHeaders.Issue {
		lex.issue = append(lex.issue, sectionKey(h))
	}
	for _, h := range v.SectionHeaders.Stop {
		lex.stop = append(lex.stop, sectionKey(h))
	}

	return lex, nil
}

// keywordAlternation builds a regexp alternation. ASCII keywords must start
// a word so "fix" does not fire inside "prefix"; other scripts match
// anywhere.
func keywordAlternation(keywords []string) string {
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		q := regexp.QuoteMeta(kw)
		if isASCIIWord(kw) {
			q = `\b` + q
		}
		parts = append(parts, q)
	}
	return strings.Join(parts, "|")
}

func isASCIIWord(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	first := s[0]
	return first == '_' || (first >= '0' && first <= '9') || (first|0x20 >= 'a' && first|0x20 <= 'z')
}

// componentPattern finds a library name followed within 200 non-digit
// characters by a version, and optionally an upgrade arrow and a second
// version. The gap is captured so matches that run past another product
// name can be rejected.
func componentPattern(name, suffix string) string {
	version := `(\d+(?:\.\d+)+` + suffix + `)`
	return `(?is)` + regexp.QuoteMeta(name) + `(\D{0,200}?)` + version +
		`(?:\s*(?:->|→|=>)\s*` + version + `)?`
}

// componentMatcher pairs a library pattern with the names whose versions it
// must not claim
type componentMatcher struct {
	re     *regexp.Regexp
	others []string
}

func foldAll(names ...string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// kindOf returns the first change kind named by s
func (l *lexicon) kindOf(s string) *compiledKind {
	for _, k := range l.kinds {
		if k.matches(s) {
			return k
		}
	}
	return nil
}

func (l *lexicon) kindByType(t ChangeType) *compiledKind {
	for _, k := range l.kinds {
		if k.Type == t {
			return k
		}
	}
	return nil
}

func (l *lexicon) headerRole(s string) (headerRole, bool) {
	role, ok := l.headers[compactFold(s)]
	return role, ok
}

func (l *lexicon) isNone(s string) bool {
	return l.none[strings.ToLower(strings.TrimSpace(s))]
}

func (l *lexicon) ignored(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range l.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	for _, re := range l.ignore {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// leadingCategory returns the category keyword that opens line, if any. The
// keyword must be followed by a space, a colon or the end of the line.
func (l *lexicon) leadingCategory(line string) (string, string, bool) {
	for _, c := range l.categories {
		if len(line) < len(c) || !strings.EqualFold(line[:len(c)], c) {
			continue
		}
		rest := line[len(c):]
		if rest == "" {
			return line[:len(c)], "", true
		}
		switch rest[0] {
		case ' ', ':', '\t':
			return line[:len(c)], strings.TrimLeft(rest, " :\t"), true
		}
	}
	return "", "", false
}

var sectionNumbering = regexp.MustCompile(`^\d+(\.\d+)*\.?`)

// sectionKey drops whitespace and any leading "4." style numbering
func sectionKey(s string) string {
	return sectionNumbering.ReplaceAllString(compactFold(s), "")
}

func compactFold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
