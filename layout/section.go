package layout

import "unicode"

// Classify returns the section key of an entry - the uppercase leading
// character of its topic - and whether that key is an ASCII letter. The
// letter test is deliberately not locale aware: anything outside A-Z,
// digits, punctuation and non-Latin scripts alike, falls into the single
// "symbols" class.
func Classify(e Entry) (key rune, letter bool) {
	for _, r := range e.Topic {
		key = unicode.ToUpper(r)
		break
	}
	return key, key >= 'A' && key <= 'Z'
}
