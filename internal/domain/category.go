package domain

// CategoryNode is one entry of the nested per-store catalog document.
// Children may hang off either the "categories" or the "subcategories"
// relation, and a node may legally carry both.
type CategoryNode struct {
	Code          string         `json:"code"`
	Name          string         `json:"name"`
	Categories    []CategoryNode `json:"categories,omitempty"`
	Subcategories []CategoryNode `json:"subcategories,omitempty"`
}

// Category is one flattened catalog category.
type Category struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// FlattenCategories walks the catalog document roots in pre-order and returns
// every reachable node as a flat ordered list, recursing into both child
// relations. The upstream document is assumed acyclic; a cyclic document would
// not terminate.
func FlattenCategories(roots []CategoryNode) []Category {
	var out []Category
	for _, root := range roots {
		out = flattenCategory(root, out)
	}
	return out
}

func flattenCategory(node CategoryNode, out []Category) []Category {
	out = append(out, Category{Code: node.Code, Name: node.Name})
	for _, child := range node.Categories {
		out = flattenCategory(child, out)
	}
	for _, child := range node.Subcategories {
		out = flattenCategory(child, out)
	}
	return out
}
