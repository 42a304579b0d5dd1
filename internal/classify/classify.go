// Package classify routes free-text item names to a category.
package classify

import (
	"sort"
	"strings"
	"unicode"

	"packlist/internal/model"
)

// Result is where an item should go. IsNew means Category is not yet in the
// category order and must be appended before the item is created.
type Result struct {
	Name     string
	Category string
	IsNew    bool
}

type Classifier interface {
	Classify(text string, categories []string) Result
}

var builtinKeywords = map[string][]string{
	"Clothes":     {"shirt", "t-shirt", "pants", "jeans", "shorts", "sock", "socks", "underwear", "jacket", "coat", "sweater", "hoodie", "dress", "skirt", "hat", "cap", "shoes", "sneakers", "boots", "sandals", "swimsuit", "pajamas", "belt", "scarf", "gloves"},
	"Toiletries":  {"toothbrush", "toothpaste", "floss", "razor", "shampoo", "conditioner", "soap", "deodorant", "sunscreen", "lotion", "comb", "brush", "makeup", "perfume", "medication", "medicine", "vitamins", "contacts", "glasses"},
	"Electronics": {"phone", "charger", "cable", "laptop", "tablet", "headphones", "earbuds", "camera", "adapter", "powerbank", "battery", "batteries", "kindle", "watch"},
	"Documents":   {"passport", "visa", "id", "license", "ticket", "tickets", "boarding", "insurance", "itinerary", "reservation", "wallet", "cash", "card"},
}

// Keyword matches words of the item name against per-category keyword lists.
// A "Category: name" prefix picks the category explicitly.
type Keyword struct {
	keywords map[string][]string
}

// NewKeyword merges extra keywords over the built-in table.
func NewKeyword(extra map[string][]string) *Keyword {
	kw := make(map[string][]string, len(builtinKeywords)+len(extra))
	for c, words := range builtinKeywords {
		kw[c] = append([]string(nil), words...)
	}
	for c, words := range extra {
		for known := range kw {
			if strings.EqualFold(known, c) {
				c = known
				break
			}
		}
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				kw[c] = append(kw[c], w)
			}
		}
	}
	return &Keyword{keywords: kw}
}

func (k *Keyword) Classify(text string, categories []string) Result {
	text = strings.TrimSpace(text)
	if cat, name, ok := strings.Cut(text, ":"); ok && strings.TrimSpace(cat) != "" && strings.TrimSpace(name) != "" {
		cat, name = strings.TrimSpace(cat), strings.TrimSpace(name)
		if existing, found := lookupFold(categories, cat); found {
			return Result{Name: name, Category: existing}
		}
		if !strings.EqualFold(cat, model.Uncategorized) {
			return Result{Name: name, Category: cat, IsNew: true}
		}
		text = name
	}

	words := tokenize(text)
	best, bestScore := "", 0
	// Deterministic tie-break: category order, then name.
	cands := append([]string(nil), categories...)
	var extra []string
	for c := range k.keywords {
		if _, ok := lookupFold(categories, c); !ok {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	for _, c := range append(cands, extra...) {
		score := 0
		for _, kw := range k.keywordsFor(c) {
			if words[kw] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if best == "" {
		return Result{Name: text, Category: model.Uncategorized}
	}
	if existing, ok := lookupFold(categories, best); ok {
		return Result{Name: text, Category: existing}
	}
	return Result{Name: text, Category: best, IsNew: true}
}

func (k *Keyword) keywordsFor(category string) []string {
	for c, words := range k.keywords {
		if strings.EqualFold(c, category) {
			return words
		}
	}
	return nil
}

func lookupFold(xs []string, s string) (string, bool) {
	for _, x := range xs {
		if strings.EqualFold(x, s) {
			return x, true
		}
	}
	return "", false
}

func tokenize(s string) map[string]bool {
	out := map[string]bool{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		out[f] = true
	}
	return out
}
