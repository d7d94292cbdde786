package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Listing - объявление в том виде, в каком его вернул сервер.
// Ядро знает только id и координаты (для карты); остальное передается
// презентеру без изменений.
type Listing struct {
	ID    string
	Lat   *float64
	Lon   *float64
	Title string
	City  string
	Image string
	Price string

	raw json.RawMessage
}

type listingProbe struct {
	ID           json.RawMessage `json:"id"`
	Lat          json.RawMessage `json:"lat"`
	Lon          json.RawMessage `json:"lon"`
	Title        json.RawMessage `json:"title"`
	City         json.RawMessage `json:"city"`
	Image        json.RawMessage `json:"image"`
	Price        json.RawMessage `json:"price"`
	DisplayPrice json.RawMessage `json:"displayPrice"`
}

// UnmarshalJSON сохраняет исходный JSON и вытаскивает известные поля.
// id может прийти строкой или числом. Поле неожиданного типа считается
// отсутствующим: одно кривое объявление не должно ронять всю страницу.
func (l *Listing) UnmarshalJSON(data []byte) error {
	var probe listingProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("failed to decode listing: %w", err)
	}

	id, _ := scalarToString(probe.ID)
	price, _ := scalarToString(probe.Price)
	if display := stringField(probe.DisplayPrice); display != "" {
		price = display
	}

	*l = Listing{
		ID:    id,
		Lat:   numberField(probe.Lat),
		Lon:   numberField(probe.Lon),
		Title: stringField(probe.Title),
		City:  stringField(probe.City),
		Image: stringField(probe.Image),
		Price: price,
		raw:   append(json.RawMessage(nil), data...),
	}
	return nil
}

// MarshalJSON отдает исходный JSON сервера, если он есть.
func (l Listing) MarshalJSON() ([]byte, error) {
	if len(l.raw) > 0 {
		return l.raw, nil
	}
	out := map[string]any{"id": l.ID}
	if l.Lat != nil {
		out["lat"] = *l.Lat
	}
	if l.Lon != nil {
		out["lon"] = *l.Lon
	}
	if l.Title != "" {
		out["title"] = l.Title
	}
	if l.City != "" {
		out["city"] = l.City
	}
	if l.Image != "" {
		out["image"] = l.Image
	}
	if l.Price != "" {
		out["price"] = l.Price
	}
	return json.Marshal(out)
}

// Geocoded - есть ли у объявления обе координаты.
func (l Listing) Geocoded() bool {
	return l.Lat != nil && l.Lon != nil
}

// ListingsPage - ответ GET /listings.
type ListingsPage struct {
	Items []Listing
	Total int
}

func scalarToString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}

func stringField(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// numberField возвращает nil для всего, что не JSON-число (в том числе "52.1").
func numberField(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return &f
}
