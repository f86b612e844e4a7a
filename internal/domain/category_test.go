package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenCategoriesBothRelations(t *testing.T) {
	roots := []CategoryNode{
		{
			Code: "a", Name: "Root A",
			Categories: []CategoryNode{
				{
					Code: "b", Name: "Child B",
					Subcategories: []CategoryNode{
						{Code: "c", Name: "Grandchild C"},
					},
				},
			},
			Subcategories: []CategoryNode{
				{
					Code: "d", Name: "Child D",
					Categories: []CategoryNode{
						{Code: "e", Name: "Grandchild E"},
					},
				},
			},
		},
		{Code: "f", Name: "Root F"},
	}

	got := FlattenCategories(roots)

	assert.Equal(t, []Category{
		{Code: "a", Name: "Root A"},
		{Code: "b", Name: "Child B"},
		{Code: "c", Name: "Grandchild C"},
		{Code: "d", Name: "Child D"},
		{Code: "e", Name: "Grandchild E"},
		{Code: "f", Name: "Root F"},
	}, got)

	// Every code appears exactly once, carrying its own node's name.
	seen := make(map[string]string)
	for _, cat := range got {
		_, dup := seen[cat.Code]
		assert.False(t, dup, "code %s flattened twice", cat.Code)
		seen[cat.Code] = cat.Name
	}
	assert.Equal(t, "Grandchild C", seen["c"])
}

func TestFlattenCategoriesEmpty(t *testing.T) {
	assert.Empty(t, FlattenCategories(nil))
}
