package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FilterScope - страница, для которой запрашиваются опции фильтров.
type FilterScope string

const (
	ScopeHome     FilterScope = "home"
	ScopeListings FilterScope = "listings"
)

// ParseFilterScope возвращает ScopeListings для пустого значения.
func ParseFilterScope(s string) (FilterScope, bool) {
	switch FilterScope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeListings:
		return ScopeListings, true
	case ScopeHome:
		return ScopeHome, true
	}
	return "", false
}

// FilterOption - один вариант выпадающего списка.
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// PriceBucket - именованный диапазон цен. Границы могут отсутствовать.
type PriceBucket struct {
	Label string   `json:"label"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
}

// FilterGroup - перечисления, которыми заполняются элементы фильтров.
type FilterGroup struct {
	Types        []FilterOption `json:"types"`
	Cities       []FilterOption `json:"cities"`
	PriceBuckets []PriceBucket  `json:"priceBuckets"`
	Bedrooms     []FilterOption `json:"bedrooms"`
	Bathrooms    []FilterOption `json:"bathrooms"`
	Furnished    []FilterOption `json:"furnished"`
	PetsAllowed  []FilterOption `json:"petsAllowed"`
}

// EmptyFilterGroup - пустые (но не nil) списки: фильтры работают, но не заполнены.
func EmptyFilterGroup() FilterGroup {
	return FilterGroup{
		Types:        []FilterOption{},
		Cities:       []FilterOption{},
		PriceBuckets: []PriceBucket{},
		Bedrooms:     []FilterOption{},
		Bathrooms:    []FilterOption{},
		Furnished:    []FilterOption{},
		PetsAllowed:  []FilterOption{},
	}
}

// Normalized заменяет nil-списки пустыми.
func (g FilterGroup) Normalized() FilterGroup {
	out := g
	if out.Types == nil {
		out.Types = []FilterOption{}
	}
	if out.Cities == nil {
		out.Cities = []FilterOption{}
	}
	if out.PriceBuckets == nil {
		out.PriceBuckets = []PriceBucket{}
	}
	if out.Bedrooms == nil {
		out.Bedrooms = []FilterOption{}
	}
	if out.Bathrooms == nil {
		out.Bathrooms = []FilterOption{}
	}
	if out.Furnished == nil {
		out.Furnished = []FilterOption{}
	}
	if out.PetsAllowed == nil {
		out.PetsAllowed = []FilterOption{}
	}
	return out
}

// PriceBucketFor ищет бакет, у которого обе границы строго совпадают с фильтрами
// (включая случай, когда обе отсутствуют).
func PriceBucketFor(f Filters, buckets []PriceBucket) (PriceBucket, bool) {
	for _, b := range buckets {
		if sameBound(f.MinPrice, b.Min) && sameBound(f.MaxPrice, b.Max) {
			return b, true
		}
	}
	return PriceBucket{}, false
}

// FindPriceBucket ищет бакет по подписи.
func FindPriceBucket(label string, buckets []PriceBucket) (PriceBucket, bool) {
	for _, b := range buckets {
		if b.Label == label {
			return b, true
		}
	}
	return PriceBucket{}, false
}

// PricePatch задает обе границы цены сразу из выбранного бакета.
func PricePatch(b PriceBucket) FilterPatch {
	return FilterPatch{
		MinPrice: PatchField[float64]{Set: true, Value: clonePtr(b.Min)},
		MaxPrice: PatchField[float64]{Set: true, Value: clonePtr(b.Max)},
	}
}

func sameBound(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// DefaultCitySuggestions - сколько городов показывать в подсказке.
const DefaultCitySuggestions = 5

// SuggestCities возвращает города, подпись которых начинается с введенного текста,
// затем те, что его содержат. Сравнение без учета регистра и диакритики.
func SuggestCities(cities []FilterOption, input string, limit int) []FilterOption {
	q := foldForSearch(input)
	if q == "" {
		return []FilterOption{}
	}
	if limit <= 0 {
		limit = DefaultCitySuggestions
	}

	var starts, contains []FilterOption
	for _, c := range cities {
		label := foldForSearch(c.Label)
		switch {
		case strings.HasPrefix(label, q):
			starts = append(starts, c)
		case strings.Contains(label, q):
			contains = append(contains, c)
		}
	}

	result := append(starts, contains...)
	if len(result) > limit {
		result = result[:limit]
	}
	if result == nil {
		return []FilterOption{}
	}
	return result
}

// foldForSearch: NFD -> убрать диакритику -> NFC -> case folding.
func foldForSearch(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		stripped = strings.TrimSpace(s)
	}
	// Caser хранит состояние, поэтому создается на каждый вызов
	return cases.Fold().String(stripped)
}
