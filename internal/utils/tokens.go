package utils

// EstimateTokens approximates the token count of text as one token per four
// bytes, rounded up. The empty string has zero tokens.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
