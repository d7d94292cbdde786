package querystring

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
)

func TestEncode_DefaultState(t *testing.T) {
	values := Encode(domain.DefaultQueryState())

	assert.Equal(t, url.Values{"page": {"0"}, "size": {"12"}}, values)
	assert.Equal(t, "page=0&size=12", EncodeString(domain.DefaultQueryState()))
}

func TestEncode_FullState(t *testing.T) {
	state := domain.DefaultQueryState()
	state.FreeText = "  studio near park "
	state.Filters = domain.Filters{
		PropertyType: domain.Ptr("apartment"),
		City:         domain.Ptr("Sofia"),
		MinPrice:     domain.Ptr(500.0),
		MaxPrice:     domain.Ptr(1250.5),
		BedroomsMin:  domain.Ptr(2),
		Furnished:    domain.Ptr(domain.Yes),
	}
	state.Page = 3
	state.PageSize = 24
	state.ViewMode = domain.ViewMap
	state.MapBounds = &domain.MapBounds{North: 1, South: 0, East: 1, West: 0}

	values := Encode(state)

	assert.Equal(t, "studio near park", values.Get("q"))
	assert.Equal(t, "apartment", values.Get("type"))
	assert.Equal(t, "Sofia", values.Get("city"))
	assert.Equal(t, "500", values.Get("minPrice"))
	assert.Equal(t, "1250.5", values.Get("maxPrice"))
	assert.Equal(t, "2", values.Get("bedroomsMin"))
	assert.Equal(t, "yes", values.Get("furnished"))
	assert.Equal(t, "3", values.Get("page"))
	assert.Equal(t, "24", values.Get("size"))
	assert.Equal(t, "map", values.Get("view"))
	// границы карты в URL не пишутся
	assert.False(t, values.Has("north"))
}

func TestDecode_Defaults(t *testing.T) {
	testCases := []struct {
		name     string
		rawQuery string
		check    func(t *testing.T, s domain.QueryState)
	}{
		{
			name:     "Empty query gives default state",
			rawQuery: "",
			check: func(t *testing.T, s domain.QueryState) {
				assert.Equal(t, domain.DefaultQueryState(), s)
			},
		},
		{
			name:     "Non-numeric page falls back to zero",
			rawQuery: "page=abc&size=24",
			check: func(t *testing.T, s domain.QueryState) {
				assert.Equal(t, 0, s.Page)
				assert.Equal(t, 24, s.PageSize)
			},
		},
		{
			name:     "Negative page falls back to zero",
			rawQuery: "page=-4",
			check: func(t *testing.T, s domain.QueryState) {
				assert.Equal(t, 0, s.Page)
			},
		},
		{
			name:     "Size outside allowed set falls back to default",
			rawQuery: "size=13",
			check: func(t *testing.T, s domain.QueryState) {
				assert.Equal(t, domain.DefaultPageSize, s.PageSize)
			},
		},
		{
			name:     "Unknown view is list",
			rawQuery: "view=grid",
			check: func(t *testing.T, s domain.QueryState) {
				assert.Equal(t, domain.ViewList, s.ViewMode)
			},
		},
		{
			name:     "Bad numbers in filters are dropped",
			rawQuery: "minPrice=cheap&maxPrice=900&bedroomsMin=1.5",
			check: func(t *testing.T, s domain.QueryState) {
				assert.Nil(t, s.Filters.MinPrice)
				require.NotNil(t, s.Filters.MaxPrice)
				assert.Equal(t, 900.0, *s.Filters.MaxPrice)
				assert.Nil(t, s.Filters.BedroomsMin)
			},
		},
		{
			name:     "Inverted price range drops both bounds",
			rawQuery: "minPrice=1000&maxPrice=500",
			check: func(t *testing.T, s domain.QueryState) {
				assert.Nil(t, s.Filters.MinPrice)
				assert.Nil(t, s.Filters.MaxPrice)
			},
		},
		{
			name:     "Furnished outside yes/no is dropped",
			rawQuery: "furnished=maybe&petsAllowed=NO",
			check: func(t *testing.T, s domain.QueryState) {
				assert.Nil(t, s.Filters.Furnished)
				require.NotNil(t, s.Filters.PetsAllowed)
				assert.Equal(t, domain.No, *s.Filters.PetsAllowed)
			},
		},
		{
			name:     "Leading question mark is accepted",
			rawQuery: "?q=loft&view=map",
			check: func(t *testing.T, s domain.QueryState) {
				assert.Equal(t, "loft", s.FreeText)
				assert.Equal(t, domain.ViewMap, s.ViewMode)
			},
		},
		{
			name:     "Map bounds are never decoded",
			rawQuery: "view=map&north=1&south=0&east=1&west=0",
			check: func(t *testing.T, s domain.QueryState) {
				assert.Nil(t, s.MapBounds)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, DecodeString(tc.rawQuery))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	states := []domain.QueryState{
		domain.DefaultQueryState(),
		{
			FreeText: "sea view",
			Filters: domain.Filters{
				City:          domain.Ptr("Varna"),
				MinPrice:      domain.Ptr(0.0),
				AreaMin:       domain.Ptr(40.25),
				AreaMax:       domain.Ptr(80.0),
				BathroomsMin:  domain.Ptr(1),
				PetsAllowed:   domain.Ptr(domain.Yes),
				AvailableFrom: domain.Ptr("2026-03-01"),
			},
			Page:     7,
			PageSize: 48,
			ViewMode: domain.ViewMap,
		},
		{
			FreeText: "a&b=c ?",
			Page:     1,
			PageSize: 24,
			ViewMode: domain.ViewList,
		},
	}

	for _, s := range states {
		decoded := DecodeString(EncodeString(s))
		assert.Equal(t, s, decoded)
		// повторное кодирование дает ту же строку
		assert.Equal(t, EncodeString(s), EncodeString(decoded))
	}
}

func TestRoundTrip_SingleFieldSweep(t *testing.T) {
	filterCases := map[string]domain.Filters{
		"type":              {PropertyType: domain.Ptr("apartment")},
		"city with spaces":  {City: domain.Ptr("Veliko Tarnovo")},
		"min price zero":    {MinPrice: domain.Ptr(0.0)},
		"min price frac":    {MinPrice: domain.Ptr(999.99)},
		"max price":         {MaxPrice: domain.Ptr(1500.0)},
		"max price zero":    {MaxPrice: domain.Ptr(0.0)},
		"equal price range": {MinPrice: domain.Ptr(800.0), MaxPrice: domain.Ptr(800.0)},
		"bedrooms zero":     {BedroomsMin: domain.Ptr(0)},
		"bedrooms":          {BedroomsMin: domain.Ptr(3)},
		"bathrooms":         {BathroomsMin: domain.Ptr(2)},
		"furnished yes":     {Furnished: domain.Ptr(domain.Yes)},
		"furnished no":      {Furnished: domain.Ptr(domain.No)},
		"pets yes":          {PetsAllowed: domain.Ptr(domain.Yes)},
		"pets no":           {PetsAllowed: domain.Ptr(domain.No)},
		"area min frac":     {AreaMin: domain.Ptr(0.5)},
		"area max":          {AreaMax: domain.Ptr(120.125)},
		"area zero":         {AreaMin: domain.Ptr(0.0), AreaMax: domain.Ptr(0.0)},
		"available from":    {AvailableFrom: domain.Ptr("2026-12-31")},
	}

	for name, filters := range filterCases {
		for _, size := range domain.PageSizes {
			for _, view := range []domain.ViewMode{domain.ViewList, domain.ViewMap} {
				s := domain.DefaultQueryState()
				s.Filters = filters
				s.PageSize = size
				s.ViewMode = view
				s.Page = 2

				encoded := EncodeString(s)
				assert.Equal(t, s, DecodeString(encoded), "%s size=%d view=%s: %s", name, size, view, encoded)
			}
		}
	}

	for _, text := range []string{"loft", "  ", "ул. Витоша", "100% new+shiny", "a=b&c"} {
		s := domain.DefaultQueryState()
		s.FreeText = strings.TrimSpace(text)
		assert.Equal(t, s, DecodeString(EncodeString(s)), "free text %q", text)
	}

	for _, page := range []int{0, 1, 99, 100000} {
		s := domain.DefaultQueryState()
		s.Page = page
		assert.Equal(t, s, DecodeString(EncodeString(s)), "page %d", page)
	}
}

func TestToAPIParams(t *testing.T) {
	t.Run("List mode has no view and no bounds", func(t *testing.T) {
		state := domain.DefaultQueryState()
		state.MapBounds = &domain.MapBounds{North: 1, South: 0, East: 1, West: 0}

		params := ToAPIParams(state)

		assert.Equal(t, url.Values{"page": {"0"}, "size": {"12"}}, params)
	})

	t.Run("Map mode with bounds adds four keys", func(t *testing.T) {
		state := domain.DefaultQueryState()
		state.ViewMode = domain.ViewMap
		state.MapBounds = &domain.MapBounds{North: 42.75, South: 42.5, East: 23.5, West: -0.125}

		params := ToAPIParams(state)

		assert.False(t, params.Has("view"))
		assert.Equal(t, "42.75", params.Get("north"))
		assert.Equal(t, "42.5", params.Get("south"))
		assert.Equal(t, "23.5", params.Get("east"))
		assert.Equal(t, "-0.125", params.Get("west"))
	})

	t.Run("Map mode without bounds is unscoped", func(t *testing.T) {
		state := domain.DefaultQueryState()
		state.ViewMode = domain.ViewMap

		params := ToAPIParams(state)

		assert.False(t, params.Has("north"))
		assert.Equal(t, "0", params.Get("page"))
	})
}
