package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupItems_StaleCategoryFallsToUncategorized(t *testing.T) {
	now := time.Now().UTC()
	items := []Item{
		{ID: "a", Name: "shirt", Category: "Clothes", Order: 1, CreatedAt: now},
		{ID: "b", Name: "socks", Category: "Clothes", Order: 0, CreatedAt: now},
		{ID: "c", Name: "ticket", Category: "Gone", Order: 0, CreatedAt: now},
	}

	groups := GroupItems(items, []string{"Clothes", "Docs"})
	require.Len(t, groups, 3)
	assert.Equal(t, "Clothes", groups[0].Name)
	assert.Equal(t, []string{"b", "a"}, ids(groups[0].Items))
	assert.Equal(t, "Docs", groups[1].Name)
	assert.Empty(t, groups[1].Items)
	assert.Equal(t, Uncategorized, groups[2].Name)
	assert.Equal(t, []string{"c"}, ids(groups[2].Items))
}

func TestGroupItems_NoUncategorizedWhenEmpty(t *testing.T) {
	groups := GroupItems([]Item{{ID: "a", Category: "Docs"}}, []string{"Docs"})
	require.Len(t, groups, 1)
	assert.Equal(t, "Docs", groups[0].Name)
}

func TestGroupKey(t *testing.T) {
	order := []string{"Clothes", "Docs"}
	assert.Equal(t, "Docs", GroupKey("Docs", order))
	assert.Equal(t, Uncategorized, GroupKey("Removed", order))
}

func TestVisibleOnTrip(t *testing.T) {
	plain := Item{ID: "a"}
	biz := Item{ID: "b", TripTypes: []string{"Business"}}
	assert.True(t, VisibleOnTrip(plain, "Leisure"))
	assert.True(t, VisibleOnTrip(biz, "business"))
	assert.False(t, VisibleOnTrip(biz, "Leisure"))
	assert.True(t, VisibleOnTrip(biz, ""))
}

func TestCloneItems_IsDeep(t *testing.T) {
	src := []Item{{ID: "a", TripTypes: []string{"Leisure"}}}
	dst := CloneItems(src)
	dst[0].TripTypes[0] = "Business"
	dst[0].Name = "changed"
	assert.Equal(t, "Leisure", src[0].TripTypes[0])
	assert.Empty(t, src[0].Name)
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
