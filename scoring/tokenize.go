package scoring

import (
	"regexp"
	"strings"
)

var (
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlTags     = regexp.MustCompile(`<[^>]+>`)
	tokenRunes   = regexp.MustCompile(`[a-z0-9$'-]+`)
	onlyDigits   = regexp.MustCompile(`^[0-9]+$`)
)

// Tokenize normalizes text into the token sequence the model is trained on:
// HTML comments and tags are stripped, the text is lowercased, and maximal
// runs of letters, digits, hyphen, dollar and apostrophe are extracted in
// input order. Tokens made up entirely of digits are dropped.
func Tokenize(text string) []string {
	text = htmlComments.ReplaceAllString(text, " ")
	text = htmlTags.ReplaceAllString(text, " ")

	var tokens []string
	for _, token := range tokenRunes.FindAllString(strings.ToLower(text), -1) {
		if onlyDigits.MatchString(token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}
