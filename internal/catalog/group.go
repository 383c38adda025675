package catalog

import "strings"

// Presentation is one size of a grouped product.
type Presentation struct {
	Presentation string `json:"presentation"`
	Code         string `json:"code"`
	Stock        int    `json:"stock"`
}

// Product is a display entry: every accepted row sharing a name and image,
// with one Presentation per distinct size.
type Product struct {
	Class         string         `json:"class"`
	Name          string         `json:"name"`
	Image         string         `json:"image"`
	Presentations []Presentation `json:"presentations"`
}

// GroupKey identifies a product: lowercased cleaned name plus image name,
// compared exactly.
type GroupKey struct {
	Name  string
	Image string
}

// KeyOf returns the grouping key for d.
func KeyOf(d Draft) GroupKey {
	return GroupKey{Name: strings.ToLower(d.Name), Image: d.Image}
}

// productSet is an insertion-ordered map from GroupKey to Product.
type productSet struct {
	index    map[GroupKey]int
	products []Product
}

func newProductSet(capacity int) *productSet {
	return &productSet{
		index:    make(map[GroupKey]int, capacity),
		products: make([]Product, 0, capacity),
	}
}

// get returns the product for key, creating it from d on first sight.
func (s *productSet) get(key GroupKey, d Draft) *Product {
	if i, ok := s.index[key]; ok {
		return &s.products[i]
	}
	s.index[key] = len(s.products)
	s.products = append(s.products, Product{
		Class:         d.Class,
		Name:          d.Name,
		Image:         d.Image,
		Presentations: []Presentation{},
	})
	return &s.products[len(s.products)-1]
}

// add merges d into p. A repeated size keeps the max stock; its code moves
// only on a strict improvement, so ties keep the earlier row's code.
func (p *Product) add(d Draft) {
	for i := range p.Presentations {
		existing := &p.Presentations[i]
		if existing.Presentation != d.Presentation {
			continue
		}
		if d.Stock > existing.Stock {
			existing.Code = d.Code
			existing.Stock = d.Stock
		}
		return
	}
	p.Presentations = append(p.Presentations, Presentation{
		Presentation: d.Presentation,
		Code:         d.Code,
		Stock:        d.Stock,
	})
}

// Group consolidates drafts into products. Products appear in the order
// their key was first seen; presentations in the order their size was
// first seen within the product.
func Group(drafts []Draft) []Product {
	set := newProductSet(len(drafts))
	for _, d := range drafts {
		set.get(KeyOf(d), d).add(d)
	}
	return set.products
}
