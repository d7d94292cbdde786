package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// YesNo - двузначный домен для furnished / petsAllowed.
type YesNo string

const (
	Yes YesNo = "yes"
	No  YesNo = "no"
)

// ParseYesNo принимает только "yes" и "no" (без учета регистра).
func ParseYesNo(s string) (YesNo, bool) {
	switch YesNo(strings.ToLower(strings.TrimSpace(s))) {
	case Yes:
		return Yes, true
	case No:
		return No, true
	}
	return "", false
}

// Ключи параметров. Одинаковые для URL и для запроса к API.
const (
	ParamQuery         = "q"
	ParamType          = "type"
	ParamCity          = "city"
	ParamMinPrice      = "minPrice"
	ParamMaxPrice      = "maxPrice"
	ParamBedroomsMin   = "bedroomsMin"
	ParamBathroomsMin  = "bathroomsMin"
	ParamFurnished     = "furnished"
	ParamPetsAllowed   = "petsAllowed"
	ParamAreaMin       = "areaMin"
	ParamAreaMax       = "areaMax"
	ParamAvailableFrom = "availableFrom"
	ParamNorth         = "north"
	ParamSouth         = "south"
	ParamEast          = "east"
	ParamWest          = "west"
	ParamPage          = "page"
	ParamSize          = "size"
	ParamView          = "view"
)

// DateLayout - формат availableFrom (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Filters - набор фильтров поиска. Значение неизменяемое: при изменении
// создается новый Filters. nil означает "фильтр не задан".
type Filters struct {
	PropertyType  *string  `json:"type,omitempty"`
	City          *string  `json:"city,omitempty"`
	MinPrice      *float64 `json:"minPrice,omitempty"`
	MaxPrice      *float64 `json:"maxPrice,omitempty"`
	BedroomsMin   *int     `json:"bedroomsMin,omitempty"`
	BathroomsMin  *int     `json:"bathroomsMin,omitempty"`
	Furnished     *YesNo   `json:"furnished,omitempty"`
	PetsAllowed   *YesNo   `json:"petsAllowed,omitempty"`
	AreaMin       *float64 `json:"areaMin,omitempty"`
	AreaMax       *float64 `json:"areaMax,omitempty"`
	AvailableFrom *string  `json:"availableFrom,omitempty"`
}

// IsEmpty - true, если не задан ни один фильтр.
func (f Filters) IsEmpty() bool {
	return f == (Filters{})
}

// Clone возвращает копию, не разделяющую указатели с исходным значением.
func (f Filters) Clone() Filters {
	return Filters{
		PropertyType:  clonePtr(f.PropertyType),
		City:          clonePtr(f.City),
		MinPrice:      clonePtr(f.MinPrice),
		MaxPrice:      clonePtr(f.MaxPrice),
		BedroomsMin:   clonePtr(f.BedroomsMin),
		BathroomsMin:  clonePtr(f.BathroomsMin),
		Furnished:     clonePtr(f.Furnished),
		PetsAllowed:   clonePtr(f.PetsAllowed),
		AreaMin:       clonePtr(f.AreaMin),
		AreaMax:       clonePtr(f.AreaMax),
		AvailableFrom: clonePtr(f.AvailableFrom),
	}
}

// Validate проверяет, что каждое заданное поле лежит в своем домене.
func (f Filters) Validate() error {
	var errs []error
	check := func(field string, ok bool, value any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s=%v", ErrInvalidFilter, field, value))
		}
	}

	if f.PropertyType != nil {
		check(ParamType, strings.TrimSpace(*f.PropertyType) != "", *f.PropertyType)
	}
	if f.City != nil {
		check(ParamCity, strings.TrimSpace(*f.City) != "", *f.City)
	}
	if f.MinPrice != nil {
		check(ParamMinPrice, validAmount(*f.MinPrice), *f.MinPrice)
	}
	if f.MaxPrice != nil {
		check(ParamMaxPrice, validAmount(*f.MaxPrice), *f.MaxPrice)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		errs = append(errs, fmt.Errorf("%w: minPrice %v > maxPrice %v", ErrInvalidFilter, *f.MinPrice, *f.MaxPrice))
	}
	if f.BedroomsMin != nil {
		check(ParamBedroomsMin, *f.BedroomsMin >= 0, *f.BedroomsMin)
	}
	if f.BathroomsMin != nil {
		check(ParamBathroomsMin, *f.BathroomsMin >= 0, *f.BathroomsMin)
	}
	if f.Furnished != nil {
		_, ok := ParseYesNo(string(*f.Furnished))
		check(ParamFurnished, ok, *f.Furnished)
	}
	if f.PetsAllowed != nil {
		_, ok := ParseYesNo(string(*f.PetsAllowed))
		check(ParamPetsAllowed, ok, *f.PetsAllowed)
	}
	if f.AreaMin != nil {
		check(ParamAreaMin, validAmount(*f.AreaMin), *f.AreaMin)
	}
	if f.AreaMax != nil {
		check(ParamAreaMax, validAmount(*f.AreaMax), *f.AreaMax)
	}
	if f.AreaMin != nil && f.AreaMax != nil && *f.AreaMin > *f.AreaMax {
		errs = append(errs, fmt.Errorf("%w: areaMin %v > areaMax %v", ErrInvalidFilter, *f.AreaMin, *f.AreaMax))
	}
	if f.AvailableFrom != nil {
		check(ParamAvailableFrom, validDate(*f.AvailableFrom), *f.AvailableFrom)
	}

	return errors.Join(errs...)
}

// Canonical приводит фильтры к канонической форме: строки обрезаются,
// пустые и невалидные значения удаляются, перевернутые диапазоны
// (min > max) удаляются целиком.
func (f Filters) Canonical() Filters {
	out := Filters{
		PropertyType:  canonicalString(f.PropertyType),
		City:          canonicalString(f.City),
		MinPrice:      canonicalAmount(f.MinPrice),
		MaxPrice:      canonicalAmount(f.MaxPrice),
		BedroomsMin:   canonicalCount(f.BedroomsMin),
		BathroomsMin:  canonicalCount(f.BathroomsMin),
		Furnished:     canonicalYesNo(f.Furnished),
		PetsAllowed:   canonicalYesNo(f.PetsAllowed),
		AreaMin:       canonicalAmount(f.AreaMin),
		AreaMax:       canonicalAmount(f.AreaMax),
		AvailableFrom: canonicalDate(f.AvailableFrom),
	}
	if out.MinPrice != nil && out.MaxPrice != nil && *out.MinPrice > *out.MaxPrice {
		out.MinPrice, out.MaxPrice = nil, nil
	}
	if out.AreaMin != nil && out.AreaMax != nil && *out.AreaMin > *out.AreaMax {
		out.AreaMin, out.AreaMax = nil, nil
	}
	return out
}

// ToRequestParams возвращает только заданные и валидные поля.
// Числа сериализуются как обычная десятичная запись, min и max - отдельные ключи.
func ToRequestParams(f Filters) map[string]string {
	c := f.Canonical()
	params := make(map[string]string)

	putString := func(key string, v *string) {
		if v != nil {
			params[key] = *v
		}
	}
	putFloat := func(key string, v *float64) {
		if v != nil {
			params[key] = FormatNumber(*v)
		}
	}
	putInt := func(key string, v *int) {
		if v != nil {
			params[key] = strconv.Itoa(*v)
		}
	}
	putYesNo := func(key string, v *YesNo) {
		if v != nil {
			params[key] = string(*v)
		}
	}

	putString(ParamType, c.PropertyType)
	putString(ParamCity, c.City)
	putFloat(ParamMinPrice, c.MinPrice)
	putFloat(ParamMaxPrice, c.MaxPrice)
	putInt(ParamBedroomsMin, c.BedroomsMin)
	putInt(ParamBathroomsMin, c.BathroomsMin)
	putYesNo(ParamFurnished, c.Furnished)
	putYesNo(ParamPetsAllowed, c.PetsAllowed)
	putFloat(ParamAreaMin, c.AreaMin)
	putFloat(ParamAreaMax, c.AreaMax)
	putString(ParamAvailableFrom, c.AvailableFrom)

	return params
}

// FormatNumber пишет число без экспоненты и лишних нулей: 1000, 12.5.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func validDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func canonicalString(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

func canonicalAmount(v *float64) *float64 {
	if v == nil || !validAmount(*v) {
		return nil
	}
	n := *v
	return &n
}

func canonicalCount(v *int) *int {
	if v == nil || *v < 0 {
		return nil
	}
	n := *v
	return &n
}

func canonicalYesNo(v *YesNo) *YesNo {
	if v == nil {
		return nil
	}
	yn, ok := ParseYesNo(string(*v))
	if !ok {
		return nil
	}
	return &yn
}

func canonicalDate(v *string) *string {
	s := canonicalString(v)
	if s == nil || !validDate(*s) {
		return nil
	}
	return s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr - хелпер для литералов в тестах и адаптерах.
func Ptr[T any](v T) *T {
	return &v
}
