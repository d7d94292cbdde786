package querystring

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
)

// Decode - обратное к Encode. Никогда не возвращает ошибку: нечитаемые числа
// становятся "не задано", неизвестный view - списком, неразрешенный size - размером по умолчанию.
func Decode(values url.Values) domain.QueryState {
	state := domain.DefaultQueryState()

	state.FreeText = strings.TrimSpace(values.Get(domain.ParamQuery))
	state.Filters = decodeFilters(values)

	if page, ok := parseInt(values.Get(domain.ParamPage)); ok && page >= 0 {
		state.Page = page
	}
	if size, ok := parseInt(values.Get(domain.ParamSize)); ok && domain.IsAllowedPageSize(size) {
		state.PageSize = size
	}
	state.ViewMode = domain.ParseViewMode(values.Get(domain.ParamView))

	return state
}

// DecodeString разбирает строку запроса (с "?" или без). Битые пары пропускаются.
func DecodeString(rawQuery string) domain.QueryState {
	values, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if values == nil {
		values = url.Values{}
	}
	return Decode(values)
}

func decodeFilters(values url.Values) domain.Filters {
	f := domain.Filters{
		PropertyType:  optString(values, domain.ParamType),
		City:          optString(values, domain.ParamCity),
		MinPrice:      optFloat(values, domain.ParamMinPrice),
		MaxPrice:      optFloat(values, domain.ParamMaxPrice),
		BedroomsMin:   optInt(values, domain.ParamBedroomsMin),
		BathroomsMin:  optInt(values, domain.ParamBathroomsMin),
		Furnished:     optYesNo(values, domain.ParamFurnished),
		PetsAllowed:   optYesNo(values, domain.ParamPetsAllowed),
		AreaMin:       optFloat(values, domain.ParamAreaMin),
		AreaMax:       optFloat(values, domain.ParamAreaMax),
		AvailableFrom: optString(values, domain.ParamAvailableFrom),
	}
	// Canonical отбросит отрицательные числа, NaN, кривые даты и перевернутые диапазоны
	return f.Canonical()
}

func optString(values url.Values, key string) *string {
	s := strings.TrimSpace(values.Get(key))
	if s == "" {
		return nil
	}
	return &s
}

func optFloat(values url.Values, key string) *float64 {
	s := strings.TrimSpace(values.Get(key))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func optInt(values url.Values, key string) *int {
	v, ok := parseInt(values.Get(key))
	if !ok {
		return nil
	}
	return &v
}

func optYesNo(values url.Values, key string) *domain.YesNo {
	yn, ok := domain.ParseYesNo(values.Get(key))
	if !ok {
		return nil
	}
	return &yn
}

func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
