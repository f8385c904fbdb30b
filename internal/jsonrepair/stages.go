package jsonrepair

import (
	"regexp"
	"strings"
)

var (
	codeFence     = regexp.MustCompile("(?i)^\\s*```(?:json)?\\s*|\\s*```\\s*$")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	singleQuoted  = regexp.MustCompile(`:\s*'([^']*)'`)
	letter        = regexp.MustCompile(`[A-Za-z\p{Han}]`)
	plainNumber   = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\d*\.?\d+)(?:[eE][+-]?\d+)?$`)
)

// StripCodeFence removes a surrounding markdown fence (```json ... ```).
func StripCodeFence(text string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(text, ""))
}

// SliceOuter cuts text down to the outermost object, discarding prose the
// model put around it. With allowArray, an array that opens before the first
// object is preferred instead. Text without a matching pair is returned as is.
func SliceOuter(text string, allowArray bool) string {
	return SliceCandidates(text, allowArray)[0]
}

// SliceCandidates returns every outer slice worth decoding, preferred first.
// With allowArray and a '[' before the first '{', that is the array slice
// followed by the object slice, since a bracket in the leading prose makes
// the array slice undecodable. The result is never empty.
func SliceCandidates(text string, allowArray bool) []string {
	obj, hasObj := sliceBetween(text, '{', '}')

	var out []string
	if allowArray {
		firstBrace := strings.IndexByte(text, '{')
		firstBracket := strings.IndexByte(text, '[')
		if firstBracket != -1 && (firstBrace == -1 || firstBracket < firstBrace) {
			if arr, ok := sliceBetween(text, '[', ']'); ok {
				out = append(out, arr)
			}
		}
	}
	if hasObj && (len(out) == 0 || out[0] != obj) {
		out = append(out, obj)
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

func sliceBetween(text string, open, close byte) (string, bool) {
	first := strings.IndexByte(text, open)
	last := strings.LastIndexByte(text, close)
	if first == -1 || last <= first {
		return "", false
	}
	return text[first : last+1], true
}

// StripTrailingCommas drops a comma that directly precedes } or ].
func StripTrailingCommas(text string) string {
	return trailingComma.ReplaceAllString(text, "$1")
}

// QuoteUnitValues wraps unquoted values such as 20g or 300mg in double
// quotes. Only the listed fields are touched. Values of numericFields that
// already read as plain numbers are left alone.
func QuoteUnitValues(text string, stringFields, numericFields []string) string {
	return applyFieldRules(text, compileFieldRules(stringFields, numericFields))
}

type fieldRule struct {
	re      *regexp.Regexp
	numeric bool
}

func compileFieldRules(stringFields, numericFields []string) []fieldRule {
	rules := make([]fieldRule, 0, len(stringFields)+len(numericFields))
	for _, f := range stringFields {
		rules = append(rules, fieldRule{re: fieldPattern(f)})
	}
	for _, f := range numericFields {
		rules = append(rules, fieldRule{re: fieldPattern(f), numeric: true})
	}
	return rules
}

func fieldPattern(field string) *regexp.Regexp {
	return regexp.MustCompile(`("` + regexp.QuoteMeta(field) + `"\s*:\s*)([^,}\]\s][^,}\]]*)`)
}

func applyFieldRules(text string, rules []fieldRule) string {
	for _, r := range rules {
		text = replaceSubmatches(r.re, text, func(groups []string) string {
			prefix, raw := groups[1], strings.TrimSpace(groups[2])
			if strings.ContainsAny(raw[:1], "\"'[{") {
				return groups[0]
			}
			if r.numeric && plainNumber.MatchString(raw) {
				return groups[0]
			}
			if letter.MatchString(raw) {
				return prefix + `"` + strings.ReplaceAll(raw, `"`, `\"`) + `"`
			}
			return groups[0]
		})
	}
	return text
}

// SingleToDoubleQuotes converts `: 'value'` into `: "value"`, escaping any
// double quote inside the value.
func SingleToDoubleQuotes(text string) string {
	return replaceSubmatches(singleQuoted, text, func(groups []string) string {
		return `: "` + strings.ReplaceAll(groups[1], `"`, `\"`) + `"`
	})
}

// replaceSubmatches is ReplaceAllStringFunc with access to capture groups.
func replaceSubmatches(re *regexp.Regexp, text string, fn func(groups []string) string) string {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		groups := make([]string, len(m)/2)
		for i := range groups {
			if m[2*i] >= 0 {
				groups[i] = text[m[2*i]:m[2*i+1]]
			}
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(fn(groups))
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}
