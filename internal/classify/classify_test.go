package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"packlist/internal/model"
)

func TestKeyword_Classify(t *testing.T) {
	order := model.DefaultSettings().Categories
	k := NewKeyword(map[string][]string{"electronics": {"Drone"}, "Camping": {"tent"}})

	cases := []struct {
		text string
		want Result
	}{
		{"Phone charger", Result{Name: "Phone charger", Category: "Electronics"}},
		{"travel toothbrush", Result{Name: "travel toothbrush", Category: "Toiletries"}},
		{"drone", Result{Name: "drone", Category: "Electronics"}},
		{"two-person tent", Result{Name: "two-person tent", Category: "Camping", IsNew: true}},
		{"misc: snacks", Result{Name: "snacks", Category: "Misc"}},
		{"Beach: towel", Result{Name: "towel", Category: "Beach", IsNew: true}},
		{"lucky rock", Result{Name: "lucky rock", Category: model.Uncategorized}},
		{"Uncategorized: rock", Result{Name: "rock", Category: model.Uncategorized}},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, k.Classify(tc.text, order))
		})
	}
}

func TestKeyword_DeletedCategoryIsNew(t *testing.T) {
	k := NewKeyword(nil)
	got := k.Classify("passport", []string{"Clothes"})
	assert.Equal(t, Result{Name: "passport", Category: "Documents", IsNew: true}, got)
}
