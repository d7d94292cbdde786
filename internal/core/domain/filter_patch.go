package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PatchField различает "поле не упомянуто" (Set == false)
// и "поле очищено" (Set == true, Value == nil).
type PatchField[T any] struct {
	Set   bool
	Value *T
}

// SetTo - поле задается значением.
func SetTo[T any](v T) PatchField[T] {
	return PatchField[T]{Set: true, Value: &v}
}

// Clear - поле удаляется из фильтров.
func Clear[T any]() PatchField[T] {
	return PatchField[T]{Set: true}
}

func (p PatchField[T]) apply(base *T) *T {
	if !p.Set {
		return base
	}
	return p.Value
}

// FilterPatch - частичное изменение фильтров.
type FilterPatch struct {
	PropertyType  PatchField[string]
	City          PatchField[string]
	MinPrice      PatchField[float64]
	MaxPrice      PatchField[float64]
	BedroomsMin   PatchField[int]
	BathroomsMin  PatchField[int]
	Furnished     PatchField[YesNo]
	PetsAllowed   PatchField[YesNo]
	AreaMin       PatchField[float64]
	AreaMax       PatchField[float64]
	AvailableFrom PatchField[string]
}

// Merge перезаписывает только упомянутые в patch ключи.
// Очищенное поле (или пустая строка) удаляется, а не заменяется "пустым" значением.
func Merge(base Filters, patch FilterPatch) Filters {
	merged := Filters{
		PropertyType:  patch.PropertyType.apply(base.PropertyType),
		City:          patch.City.apply(base.City),
		MinPrice:      patch.MinPrice.apply(base.MinPrice),
		MaxPrice:      patch.MaxPrice.apply(base.MaxPrice),
		BedroomsMin:   patch.BedroomsMin.apply(base.BedroomsMin),
		BathroomsMin:  patch.BathroomsMin.apply(base.BathroomsMin),
		Furnished:     patch.Furnished.apply(base.Furnished),
		PetsAllowed:   patch.PetsAllowed.apply(base.PetsAllowed),
		AreaMin:       patch.AreaMin.apply(base.AreaMin),
		AreaMax:       patch.AreaMax.apply(base.AreaMax),
		AvailableFrom: patch.AvailableFrom.apply(base.AvailableFrom),
	}
	// пустые строки считаются очисткой поля
	merged.PropertyType = canonicalString(merged.PropertyType)
	merged.City = canonicalString(merged.City)
	merged.AvailableFrom = canonicalString(merged.AvailableFrom)
	return merged.Clone()
}

// ParseFilterInput - строгий разбор значений из элементов формы (все значения - строки).
// Пустая строка означает "не задано". Невалидные значения отклоняются с ошибкой по полю.
func ParseFilterInput(values map[string]string) (Filters, error) {
	full := make(map[string]string, len(filterKeys))
	for key, value := range values {
		full[key] = value
	}
	for _, key := range filterKeys {
		if _, ok := full[key]; !ok {
			full[key] = ""
		}
	}
	patch, err := ParseFilterPatch(full)
	if err != nil {
		return Filters{}, err
	}
	filters := Merge(Filters{}, patch)
	if err := filters.Validate(); err != nil {
		return Filters{}, err
	}
	return filters, nil
}

// ParseFilterPatch разбирает частичный ввод: присутствующий ключ с "" очищает поле,
// отсутствующий ключ оставляет поле без изменений.
func ParseFilterPatch(values map[string]string) (FilterPatch, error) {
	var (
		patch FilterPatch
		errs  []error
	)

	for key := range values {
		if !isFilterKey(key) {
			errs = append(errs, fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, key))
		}
	}

	stringField := func(key string) PatchField[string] {
		raw, ok := values[key]
		if !ok {
			return PatchField[string]{}
		}
		if s := strings.TrimSpace(raw); s != "" {
			return SetTo(s)
		}
		return Clear[string]()
	}

	amountField := func(key string) PatchField[float64] {
		raw, ok := values[key]
		if !ok {
			return PatchField[float64]{}
		}
		s := strings.TrimSpace(raw)
		if s == "" {
			return Clear[float64]()
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || !validAmount(v) {
			errs = append(errs, fmt.Errorf("%w: %s must be a non-negative number, got %q", ErrInvalidFilter, key, raw))
			return PatchField[float64]{}
		}
		return SetTo(v)
	}

	countField := func(key string) PatchField[int] {
		raw, ok := values[key]
		if !ok {
			return PatchField[int]{}
		}
		s := strings.TrimSpace(raw)
		if s == "" {
			return Clear[int]()
		}
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be a non-negative integer, got %q", ErrInvalidFilter, key, raw))
			return PatchField[int]{}
		}
		return SetTo(v)
	}

	yesNoField := func(key string) PatchField[YesNo] {
		raw, ok := values[key]
		if !ok {
			return PatchField[YesNo]{}
		}
		if strings.TrimSpace(raw) == "" {
			return Clear[YesNo]()
		}
		yn, valid := ParseYesNo(raw)
		if !valid {
			errs = append(errs, fmt.Errorf("%w: %s must be yes or no, got %q", ErrInvalidFilter, key, raw))
			return PatchField[YesNo]{}
		}
		return SetTo(yn)
	}

	patch.PropertyType = stringField(ParamType)
	patch.City = stringField(ParamCity)
	patch.MinPrice = amountField(ParamMinPrice)
	patch.MaxPrice = amountField(ParamMaxPrice)
	patch.BedroomsMin = countField(ParamBedroomsMin)
	patch.BathroomsMin = countField(ParamBathroomsMin)
	patch.Furnished = yesNoField(ParamFurnished)
	patch.PetsAllowed = yesNoField(ParamPetsAllowed)
	patch.AreaMin = amountField(ParamAreaMin)
	patch.AreaMax = amountField(ParamAreaMax)
	patch.AvailableFrom = stringField(ParamAvailableFrom)

	if v := patch.AvailableFrom.Value; v != nil && !validDate(*v) {
		errs = append(errs, fmt.Errorf("%w: %s must be a YYYY-MM-DD date, got %q", ErrInvalidFilter, ParamAvailableFrom, *v))
	}

	if err := errors.Join(errs...); err != nil {
		return FilterPatch{}, err
	}
	return patch, nil
}

var filterKeys = []string{
	ParamType, ParamCity, ParamMinPrice, ParamMaxPrice, ParamBedroomsMin, ParamBathroomsMin,
	ParamFurnished, ParamPetsAllowed, ParamAreaMin, ParamAreaMax, ParamAvailableFrom,
}

func isFilterKey(key string) bool {
	for _, k := range filterKeys {
		if k == key {
			return true
		}
	}
	return false
}
