// Package tokens provides token counting for canonical conversations.
//
// Translators only ever use the approximation in this package: it is a
// character heuristic, not a tokenizer, and may differ from the provider's
// billing count. Counter offers an exact tiktoken count for callers that
// want one, such as the CLI.
package tokens

import (
	"unicode/utf8"

	"github.com/tjfontaine/polyglot-agent/internal/domain"
)

// CharsPerToken is the divisor used by the approximation.
const CharsPerToken = 4

// Estimate returns ceil(characters / CharsPerToken), counting runes.
func Estimate(text string) int {
	return (utf8.RuneCountInString(text) + CharsPerToken - 1) / CharsPerToken
}

// EstimateContents approximates the token count of the text parts of a
// conversation. It is deterministic and does not depend on prior calls.
func EstimateContents(contents []domain.Content) *domain.CountTokensResponse {
	return &domain.CountTokensResponse{
		TotalTokens: Estimate(domain.ExtractText(contents)),
	}
}
