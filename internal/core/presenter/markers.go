package presenter

import (
	"math"
	"sort"

	"github.com/mmcloughlin/geohash"
	"github.com/twpayne/go-geom"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
)

const (
	// MarkerClusterThreshold - сколько отдельных маркеров показывать без группировки.
	MarkerClusterThreshold = 50
	// clusterGridCells - примерное число ячеек по каждой оси видимой области.
	clusterGridCells    = 8
	maxGeohashPrecision = 12
	// fitPadding - запас вокруг точек при подгонке карты (5%).
	fitPadding = 0.05
)

// MapMarker - одиночное объявление (Count == 1) или кластер.
type MapMarker struct {
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	Count      int      `json:"count"`
	ListingID  string   `json:"listingId,omitempty"`
	Title      string   `json:"title,omitempty"`
	Price      string   `json:"price,omitempty"`
	Geohash    string   `json:"geohash,omitempty"`
	ListingIDs []string `json:"listingIds,omitempty"`
}

// MapView - данные для виджета карты.
type MapView struct {
	Markers   []MapMarker       `json:"markers"`
	Clustered bool              `json:"clustered"`
	FitBounds *domain.MapBounds `json:"fitBounds,omitempty"`
}

// BuildMap оставляет только объявления с координатами. Если их больше порога,
// они группируются по ячейкам geohash; точность подбирается по размеру области.
func BuildMap(items []domain.Listing, visible *domain.MapBounds) MapView {
	geocoded := make([]domain.Listing, 0, len(items))
	for _, it := range items {
		if it.Geocoded() && validCoord(*it.Lat, *it.Lon) {
			geocoded = append(geocoded, it)
		}
	}

	view := MapView{
		Markers:   make([]MapMarker, 0, len(geocoded)),
		FitBounds: fitBounds(geocoded),
	}
	if len(geocoded) <= MarkerClusterThreshold {
		for _, it := range geocoded {
			view.Markers = append(view.Markers, singleMarker(it))
		}
		return view
	}

	area := visible
	if area == nil {
		area = view.FitBounds
	}
	view.Markers = clusterMarkers(geocoded, ClusterPrecision(*area))
	view.Clustered = true
	return view
}

func singleMarker(it domain.Listing) MapMarker {
	return MapMarker{
		Lat:       *it.Lat,
		Lon:       *it.Lon,
		Count:     1,
		ListingID: it.ID,
		Title:     it.Title,
		Price:     it.Price,
	}
}

type cluster struct {
	hash    string
	members []domain.Listing
	sumLat  float64
	sumLon  float64
}

func clusterMarkers(items []domain.Listing, precision uint) []MapMarker {
	byHash := make(map[string]*cluster)
	for _, it := range items {
		h := geohash.EncodeWithPrecision(*it.Lat, *it.Lon, precision)
		c, ok := byHash[h]
		if !ok {
			c = &cluster{hash: h}
			byHash[h] = c
		}
		c.members = append(c.members, it)
		c.sumLat += *it.Lat
		c.sumLon += *it.Lon
	}

	clusters := make([]*cluster, 0, len(byHash))
	for _, c := range byHash {
		clusters = append(clusters, c)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].hash < clusters[j].hash })

	markers := make([]MapMarker, 0, len(clusters))
	for _, c := range clusters {
		if len(c.members) == 1 {
			markers = append(markers, singleMarker(c.members[0]))
			continue
		}
		ids := make([]string, len(c.members))
		for i, m := range c.members {
			ids[i] = m.ID
		}
		n := float64(len(c.members))
		markers = append(markers, MapMarker{
			Lat:        c.sumLat / n,
			Lon:        c.sumLon / n,
			Count:      len(c.members),
			Geohash:    c.hash,
			ListingIDs: ids,
		})
	}
	return markers
}

// ClusterPrecision - самая мелкая точность geohash, при которой область
// покрывается примерно clusterGridCells ячейками по каждой оси.
func ClusterPrecision(area domain.MapBounds) uint {
	latSpan := math.Abs(area.North - area.South)
	lonSpan := area.East - area.West
	if lonSpan < 0 {
		// область через антимеридиан
		lonSpan += 360
	}

	precision := uint(1)
	for p := uint(1); p <= maxGeohashPrecision; p++ {
		cellLat, cellLon := geohashCellSize(p)
		if cellLat < latSpan/clusterGridCells || cellLon < lonSpan/clusterGridCells {
			break
		}
		precision = p
	}
	return precision
}

// geohashCellSize - размеры ячейки в градусах: биты чередуются, начиная с долготы.
func geohashCellSize(precision uint) (lat, lon float64) {
	bits := 5 * precision
	lonBits := (bits + 1) / 2
	latBits := bits / 2
	return 180 / math.Exp2(float64(latBits)), 360 / math.Exp2(float64(lonBits))
}

// fitBounds - охват всех точек (x - долгота, y - широта) с запасом fitPadding.
func fitBounds(items []domain.Listing) *domain.MapBounds {
	if len(items) == 0 {
		return nil
	}
	flat := make([]float64, 0, 2*len(items))
	for _, it := range items {
		flat = append(flat, *it.Lon, *it.Lat)
	}
	box := geom.NewMultiPointFlat(geom.XY, flat).Bounds()

	west, east := box.Min(0), box.Max(0)
	south, north := box.Min(1), box.Max(1)
	padLon := (east - west) * fitPadding
	padLat := (north - south) * fitPadding

	return &domain.MapBounds{
		North: math.Min(90, north+padLat),
		South: math.Max(-90, south-padLat),
		East:  math.Min(180, east+padLon),
		West:  math.Max(-180, west-padLon),
	}
}

func validCoord(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
