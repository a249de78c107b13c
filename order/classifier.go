package order

import (
	"regexp"
	"strings"
)

// verdict is the result of one classification rule.
type verdict int

const (
	verdictPass   verdict = iota // rule does not apply, try the next one
	verdictAccept                // declaration is a member of the returned category
	verdictReject                // declaration is not a member, stop
)

type classifyRule struct {
	name  string
	apply func(text string, attributed bool) (Category, string, verdict)
}

// classifyRules is the decision table. Rules are evaluated in order and the
// first accept or reject wins.
var classifyRules = []classifyRule{
	{"type header", ruleTypeHeader},
	{"constant", ruleConstant},
	{"readonly field", ruleReadonly},
	{"attributed field", ruleAttributed},
	{"event", ruleEvent},
	{"operator", ruleOperator},
	{"property", ruleProperty},
	{"field", ruleField},
	{"method", ruleMethod},
}

// Classify maps one collapsed declaration to a member. The returned member
// has no line; ok is false when the text is not a member declaration.
func Classify(text string, attributed bool) (Member, bool) {
	text = collapseSpace(text)
	if text == "" {
		return Member{}, false
	}

	for _, rule := range classifyRules {
		category, name, v := rule.apply(text, attributed)
		switch v {
		case verdictAccept:
			if name == "" {
				name = UnknownName
			}
			return Member{Name: name, Category: category}, true
		case verdictReject:
			return Member{}, false
		}
	}
	return Member{}, false
}

var (
	// Match: class Foo, struct Foo, enum Foo, namespace Foo, delegate void
	typeHeaderPattern = regexp.MustCompile(`\b(?:class|struct|interface|enum|record|namespace|delegate)\s+[A-Za-z_@]`)

	// Match: public const, private static new const, protected internal const
	constPattern = regexp.MustCompile(`^((?:(?:public|private|protected|internal)\s+)+)(?:(?:new|unsafe)\s+)*const\s`)

	readonlyPattern  = regexp.MustCompile(`\breadonly\b`)
	constWordPattern = regexp.MustCompile(`\bconst\b`)

	// Match: public static event Action<int> Changed
	eventPattern = regexp.MustCompile(`^(?:(?:public|private|protected|internal|static|virtual|override|abstract|sealed|new|extern|unsafe)\s+)*event\s+(.+)$`)

	// Match: { get; }, { get; private set; }, { private set; get; }, { init; }
	autoPropertyPattern = regexp.MustCompile(`\{\s*(?:(?:private|protected|internal)\s+)?(?:get|set|init)\s*;`)

	// Match: { get { return x; } }, { get => x; }
	accessorBlockPattern = regexp.MustCompile(`\{[^}]*\bget\b`)

	// Match: public int Sum(int a) => a + 1;
	exprMethodPattern = regexp.MustCompile(`^((?:(?:public|private|protected|internal|static|async|virtual|override|sealed|extern|abstract|new|unsafe|partial)\s+)*)[\w<>\[\],.?]+\s+([A-Za-z_]\w*)\s*(?:<[^()]*>)?\s*\([^()]*\)\s*=>`)

	// Match: operator +, operator ==, implicit operator int, operator checked -
	operatorPattern = regexp.MustCompile(`\boperator\b\s*(?:checked\s+)?([^\s(]+)\s*$`)

	controlKeywordPattern   = regexp.MustCompile(`\b(?:else|if|return|while|for|foreach|using|await|yield)\b`)
	compoundOperatorPattern = regexp.MustCompile(`\+=|-=|\*=|/=|%=|&=|\|=|\^=|==|!=|<=|>=|&&|\|\||\?\?`)
	memberCallPattern       = regexp.MustCompile(`\.\s*[A-Za-z_]\w*\s*(?:<[^()]*>)?\s*\(`)
	callStatementPattern    = regexp.MustCompile(`^[\w.<>\[\]]+\s*\(.*\)\s*;$`)
	bareCallPattern         = regexp.MustCompile(`^[A-Za-z_]\w*\s*\(`)
	constructionPattern     = regexp.MustCompile(`\bnew\s+[A-Za-z_][\w.]*\s*(?:<[^()]*>)?\s*\(`)

	identPattern     = regexp.MustCompile(`^@?[A-Za-z_]\w*$`)
	typeTokenPattern = regexp.MustCompile(`^[\w<>\[\],.?*:@]+$`)
	trailingIdent    = regexp.MustCompile(`(@?[A-Za-z_]\w*)\s*$`)
)

var memberModifiers = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true,
	"static": true, "async": true, "virtual": true, "override": true,
	"sealed": true, "extern": true, "abstract": true, "new": true,
	"unsafe": true, "partial": true, "volatile": true, "required": true,
}

// statementWords never appear in a member head; seeing one means the text is code.
var statementWords = map[string]bool{
	"return": true, "else": true, "if": true, "while": true, "for": true,
	"foreach": true, "do": true, "try": true, "catch": true, "finally": true,
	"switch": true, "case": true, "default": true, "using": true, "lock": true,
	"throw": true, "await": true, "yield": true, "var": true, "goto": true,
	"break": true, "continue": true, "checked": true, "unchecked": true,
	"fixed": true, "get": true, "set": true, "init": true, "add": true,
	"remove": true, "value": true,
}

func ruleTypeHeader(text string, _ bool) (Category, string, verdict) {
	head := text
	if i := strings.IndexAny(head, "(="); i >= 0 {
		head = head[:i]
	}
	if typeHeaderPattern.MatchString(head) {
		return 0, "", verdictReject
	}
	return 0, "", verdictPass
}

func ruleConstant(text string, _ bool) (Category, string, verdict) {
	m := constPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", verdictPass
	}
	if hasWord(m[1], "public") {
		return PublicConst, fieldName(text), verdictAccept
	}
	return PrivateConst, fieldName(text), verdictAccept
}

func ruleReadonly(text string, _ bool) (Category, string, verdict) {
	if constWordPattern.MatchString(text) {
		return 0, "", verdictPass
	}
	head := fieldHead(text)
	loc := readonlyPattern.FindStringIndex(head)
	if loc == nil || strings.Contains(head[:loc[0]], "(") {
		return 0, "", verdictPass
	}
	// readonly must precede the member name, not be it
	if strings.TrimSpace(head[loc[1]:]) == "" {
		return 0, "", verdictPass
	}
	return ReadonlyField, fieldName(text), verdictAccept
}

func ruleAttributed(text string, attributed bool) (Category, string, verdict) {
	if !attributed {
		return 0, "", verdictPass
	}
	return AttributedField, fieldName(text), verdictAccept
}

func ruleEvent(text string, _ bool) (Category, string, verdict) {
	m := eventPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", verdictPass
	}
	rest := m[1]
	if i := strings.IndexAny(rest, ";={"); i >= 0 {
		rest = rest[:i]
	}
	// The name follows the event's type token
	if len(strings.Fields(rest)) < 2 {
		return Event, UnknownName, verdictAccept
	}
	return Event, lastIdent(rest), verdictAccept
}

func ruleProperty(text string, _ bool) (Category, string, verdict) {
	if brace := strings.IndexByte(text, '{'); brace >= 0 {
		prefix := strings.TrimSpace(text[:brace])
		if name, ok := typedMemberName(prefix); ok {
			body := text[brace:]
			switch {
			case autoPropertyPattern.MatchString(body),
				accessorBlockPattern.MatchString(body),
				body == "{":
				return Property, name, verdictAccept
			}
		}
	}

	if arrow := strings.Index(text, "=>"); arrow >= 0 {
		lhs := strings.TrimSpace(text[:arrow])
		if name, ok := typedMemberName(lhs); ok {
			return Property, name, verdictAccept
		}
	}
	return 0, "", verdictPass
}

func ruleField(text string, _ bool) (Category, string, verdict) {
	var category Category
	switch {
	case strings.HasPrefix(text, "public "):
		category = PublicField
	case strings.HasPrefix(text, "private "):
		category = PrivateField
	default:
		return 0, "", verdictPass
	}

	head := text
	if i := strings.IndexAny(head, "=;"); i >= 0 {
		head = head[:i]
	}
	if strings.ContainsAny(head, "(){}") {
		return 0, "", verdictPass
	}

	tokens := stripModifiers(strings.Fields(head))
	if len(tokens) < 2 {
		return 0, "", verdictPass
	}
	for _, tok := range tokens {
		if !typeTokenPattern.MatchString(tok) || statementWords[tok] {
			return 0, "", verdictPass
		}
	}

	name := lastIdent(head)
	if name == UnknownName {
		return 0, "", verdictPass
	}
	return category, name, verdictAccept
}

func ruleMethod(text string, _ bool) (Category, string, verdict) {
	if m := exprMethodPattern.FindStringSubmatch(text); m != nil {
		return methodCategory(m[2], hasWord(m[1], "public")), m[2], verdictAccept
	}

	open := strings.IndexByte(text, '(')
	if open <= 0 {
		return 0, "", verdictPass
	}
	closeAt := matchParen(text, open)
	if closeAt < 0 {
		return 0, "", verdictPass
	}

	signature := text[:closeAt+1]
	if looksLikeStatement(text, signature) {
		return 0, "", verdictReject
	}

	head := strings.TrimSpace(text[:open])
	if strings.Contains(head, "=") {
		return 0, "", verdictPass
	}
	head = trimGenericSuffix(head)

	rest := strings.TrimSpace(text[closeAt+1:])
	if !validMethodTail(rest) {
		return 0, "", verdictPass
	}

	tokens := strings.Fields(head)
	if len(tokens) == 0 {
		return 0, "", verdictPass
	}
	name := strings.TrimPrefix(tokens[len(tokens)-1], "@")
	if !identPattern.MatchString(name) || statementWords[name] {
		return 0, "", verdictPass
	}

	public := false
	typeSeen := false
	for _, tok := range tokens[:len(tokens)-1] {
		if memberModifiers[tok] && !typeSeen {
			if tok == "public" {
				public = true
			}
			continue
		}
		if !typeTokenPattern.MatchString(tok) || statementWords[tok] || memberModifiers[tok] {
			return 0, "", verdictPass
		}
		typeSeen = true
	}

	return methodCategory(name, public), name, verdictAccept
}

// ruleOperator names user-defined and conversion operators "operator <symbol>",
// e.g. "operator +" or "operator int". It runs ahead of the field and method
// rules, which would take "==" for an initializer or misname conversions.
func ruleOperator(text string, _ bool) (Category, string, verdict) {
	open := strings.IndexByte(text, '(')
	if open <= 0 {
		return 0, "", verdictPass
	}
	head := strings.TrimSpace(text[:open])
	loc := operatorPattern.FindStringSubmatchIndex(head)
	if loc == nil {
		return 0, "", verdictPass
	}

	prefix := head[:loc[0]]
	for _, tok := range strings.Fields(prefix) {
		if !typeTokenPattern.MatchString(tok) || statementWords[tok] {
			return 0, "", verdictPass
		}
	}

	closeAt := matchParen(text, open)
	if closeAt < 0 || !validMethodTail(strings.TrimSpace(text[closeAt+1:])) {
		return 0, "", verdictPass
	}

	name := "operator " + head[loc[2]:loc[3]]
	return methodCategory(name, hasWord(prefix, "public")), name, verdictAccept
}

// looksLikeStatement applies the call/statement heuristic to a declaration
// whose signature segment ends at the first balanced parenthesis.
func looksLikeStatement(text, signature string) bool {
	return controlKeywordPattern.MatchString(signature) ||
		compoundOperatorPattern.MatchString(signature) ||
		memberCallPattern.MatchString(signature) ||
		constructionPattern.MatchString(signature) ||
		callStatementPattern.MatchString(text) ||
		bareCallPattern.MatchString(text)
}

func validMethodTail(rest string) bool {
	if rest == "" {
		return true
	}
	for _, prefix := range []string{"{", ";", "=>", ":", "where "} {
		if strings.HasPrefix(rest, prefix) {
			return true
		}
	}
	return false
}

func methodCategory(name string, public bool) Category {
	switch {
	case IsLifecycleMethod(name):
		return LifecycleMethod
	case public:
		return PublicMethod
	default:
		return PrivateMethod
	}
}

// typedMemberName accepts "modifiers Type Name" with no parentheses or
// assignment and returns Name.
func typedMemberName(prefix string) (string, bool) {
	if prefix == "" || strings.ContainsAny(prefix, "()=;{}") {
		return "", false
	}
	tokens := strings.Fields(prefix)
	if len(tokens) < 2 {
		return "", false
	}
	for _, tok := range tokens {
		if !typeTokenPattern.MatchString(tok) || statementWords[tok] {
			return "", false
		}
	}
	if len(stripModifiers(tokens)) < 2 {
		return "", false
	}

	// Indexers: public int this[int i]
	if strings.Contains(prefix, "this[") {
		return "this", true
	}

	name := tokens[len(tokens)-1]
	if !identPattern.MatchString(name) {
		return "", false
	}
	return strings.TrimPrefix(name, "@"), true
}

// fieldHead is the text before the first declarator terminator.
func fieldHead(text string) string {
	if i := strings.IndexAny(text, "=;{("); i >= 0 {
		return text[:i]
	}
	return text
}

// fieldName is the identifier immediately preceding the first =, ;, { or (,
// or the end of the text.
func fieldName(text string) string {
	return lastIdent(fieldHead(text))
}

func lastIdent(text string) string {
	m := trailingIdent.FindStringSubmatch(text)
	if m == nil {
		return UnknownName
	}
	return strings.TrimPrefix(m[1], "@")
}

func stripModifiers(tokens []string) []string {
	for len(tokens) > 0 && memberModifiers[tokens[0]] {
		tokens = tokens[1:]
	}
	return tokens
}

func hasWord(text, word string) bool {
	for _, f := range strings.Fields(text) {
		if f == word {
			return true
		}
	}
	return false
}

// matchParen returns the index of the ')' closing the '(' at open, or -1.
func matchParen(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// trimGenericSuffix removes a trailing generic parameter list: "Get<T, U>" → "Get".
func trimGenericSuffix(head string) string {
	if !strings.HasSuffix(head, ">") {
		return head
	}
	depth := 0
	for i := len(head) - 1; i >= 0; i-- {
		switch head[i] {
		case '>':
			depth++
		case '<':
			depth--
			if depth == 0 {
				return strings.TrimSpace(head[:i])
			}
		}
	}
	return head
}
