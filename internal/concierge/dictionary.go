package concierge

import "strings"

// Dictionary maps a lower-case word to the search terms it stands for.
type Dictionary map[string][]string

// DefaultDictionary covers common Indonesian food words and their English
// catalog names.
var DefaultDictionary = Dictionary{
	"ayam":    {"chicken", "ayam"},
	"daging":  {"beef", "meat", "daging"},
	"ikan":    {"fish", "salmon", "ikan"},
	"telur":   {"egg", "eggs", "telur"},
	"nasi":    {"rice", "nasi"},
	"pasta":   {"pasta", "spaghetti"},
	"sayur":   {"vegetable", "spinach", "sayur"},
	"buah":    {"fruit", "banana", "buah"},
	"salmon":  {"salmon"},
	"pisang":  {"banana", "pisang"},
	"alpukat": {"avocado", "alpukat"},
	"bawang":  {"garlic", "onion", "bawang"},
	"tomat":   {"tomato", "tomat"},
}

// Lookup returns the terms of every dictionary word in utterance, in order
// of appearance and without repeats.
func (d Dictionary) Lookup(utterance string) []string {
	var terms []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(utterance)) {
		for _, term := range d[word] {
			if !seen[term] {
				seen[term] = true
				terms = append(terms, term)
			}
		}
	}
	return terms
}
