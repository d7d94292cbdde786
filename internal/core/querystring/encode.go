// Package querystring - двусторонняя связь между состоянием поиска и плоскими
// строковыми параметрами: навигационным URL и параметрами запроса к API.
package querystring

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
)

// Encode строит навигационное представление состояния.
// page и size пишутся всегда, view=map - только для карты, mapBounds не сохраняется.
func Encode(s domain.QueryState) url.Values {
	values := url.Values{}

	if q := strings.TrimSpace(s.FreeText); q != "" {
		values.Set(domain.ParamQuery, q)
	}
	for key, value := range domain.ToRequestParams(s.Filters) {
		values.Set(key, value)
	}

	page := s.Page
	if page < 0 {
		page = 0
	}
	size := s.PageSize
	if !domain.IsAllowedPageSize(size) {
		size = domain.DefaultPageSize
	}
	values.Set(domain.ParamPage, strconv.Itoa(page))
	values.Set(domain.ParamSize, strconv.Itoa(size))

	if s.ViewMode == domain.ViewMap {
		values.Set(domain.ParamView, string(domain.ViewMap))
	}

	return values
}

// EncodeString - Encode в виде строки запроса (ключи отсортированы).
func EncodeString(s domain.QueryState) string {
	return Encode(s).Encode()
}

// ToAPIParams - параметры GET /listings. Как Encode, но без view и с границами
// карты, если включен режим карты и границы известны.
func ToAPIParams(s domain.QueryState) url.Values {
	values := Encode(s)
	values.Del(domain.ParamView)

	if s.ViewMode == domain.ViewMap && s.MapBounds != nil && s.MapBounds.Valid() {
		b := s.MapBounds
		values.Set(domain.ParamNorth, domain.FormatNumber(b.North))
		values.Set(domain.ParamSouth, domain.FormatNumber(b.South))
		values.Set(domain.ParamEast, domain.FormatNumber(b.East))
		values.Set(domain.ParamWest, domain.FormatNumber(b.West))
	}

	return values
}
