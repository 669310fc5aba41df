package domain

import (
	"fmt"
	"math"
)

// Category classifies a heritage record. The numeric code is only exposed at
// the storage and seed boundaries.
type Category string

const (
	CategoryTangible   Category = "di_san_van_hoa_vat_the"
	CategoryIntangible Category = "di_san_van_hoa_phi_vat_the"
	CategoryNatural    Category = "di_san_thien_nhien"
)

var categoryCodes = map[Category]int{
	CategoryTangible:   1,
	CategoryIntangible: 2,
	CategoryNatural:    3,
}

// Code returns the numeric category code (1..3), or 0 for unknown values.
func (c Category) Code() int { return categoryCodes[c] }

// ParseCategory accepts a category name and an optional numeric code (0 = absent).
// When both are present they must agree.
func ParseCategory(name string, code int) (Category, error) {
	c := Category(name)
	want, ok := categoryCodes[c]
	if !ok {
		return "", Invalid("unknown heritage category %q", name)
	}
	if code != 0 && code != want {
		return "", Invalid("category code %d does not match category %q", code, name)
	}
	return c, nil
}

// ProtectionLevel is the recognition level of a heritage record.
type ProtectionLevel string

const (
	LevelProvincial        ProtectionLevel = "cap_tinh"
	LevelNational          ProtectionLevel = "cap_quoc_gia"
	LevelSpecialNational   ProtectionLevel = "cap_dac_biet"
	LevelWorldHeritage     ProtectionLevel = "di_san_the_gioi"
	LevelRepresentativeICH ProtectionLevel = "ds_phi_vat_the_dai_dien"
	LevelMemoryOfTheWorld  ProtectionLevel = "ky_uc_the_gioi"
	LevelBiosphereReserve  ProtectionLevel = "khu_du_tru_sinh_quyen"
	LevelGlobalGeopark     ProtectionLevel = "cong_vien_dia_chat_toan_cau"
)

var levelCodes = map[ProtectionLevel]int{
	LevelProvincial:        1,
	LevelNational:          2,
	LevelSpecialNational:   3,
	LevelWorldHeritage:     4,
	LevelRepresentativeICH: 5,
	LevelMemoryOfTheWorld:  6,
	LevelBiosphereReserve:  7,
	LevelGlobalGeopark:     8,
}

// Code returns the numeric level code (1..8), or 0 for unknown values.
func (l ProtectionLevel) Code() int { return levelCodes[l] }

// ParseProtectionLevel mirrors ParseCategory for protection levels.
func ParseProtectionLevel(name string, code int) (ProtectionLevel, error) {
	l := ProtectionLevel(name)
	want, ok := levelCodes[l]
	if !ok {
		return "", Invalid("unknown protection level %q", name)
	}
	if code != 0 && code != want {
		return "", Invalid("level code %d does not match level %q", code, name)
	}
	return l, nil
}

// Image is a picture with attribution.
type Image struct {
	URL     string `json:"url" yaml:"url"`
	Credit  string `json:"credit,omitempty" yaml:"credit"`
	Caption string `json:"caption,omitempty" yaml:"caption"`
}

// GeoPoint is a [longitude, latitude] pair.
type GeoPoint struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// NewGeoPoint builds a point from raw coordinates. It returns nil unless the
// input is exactly two finite numbers within range.
func NewGeoPoint(coords []float64) *GeoPoint {
	if len(coords) != 2 {
		return nil
	}
	lng, lat := coords[0], coords[1]
	for _, v := range coords {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
	}
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return nil
	}
	return &GeoPoint{Lng: lng, Lat: lat}
}

// HeritageRecord is a cultural or natural heritage entity.
type HeritageRecord struct {
	HID       string          `json:"hid"`
	WardCode  string          `json:"wardCodename"`
	Name      string          `json:"name"`
	Category  Category        `json:"type"`
	Level     ProtectionLevel `json:"level"`
	Image     *Image          `json:"img,omitempty"`
	Gallery   []Image         `json:"photoLibrary,omitempty"`
	Summary   string          `json:"summary,omitempty"`
	History   string          `json:"history,omitempty"`
	Narrative string          `json:"heritage,omitempty"`
	WikiLink  string          `json:"wikiLink,omitempty"`
	MapLink   string          `json:"googleMapLink,omitempty"`
	Location  *GeoPoint       `json:"coordinate,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
}

// Normalize clears optional values that would break storage invariants:
// an image without URL and an out-of-range location.
func (h *HeritageRecord) Normalize() {
	if h.Image != nil && h.Image.URL == "" {
		h.Image = nil
	}
	if h.Location != nil {
		h.Location = NewGeoPoint([]float64{h.Location.Lng, h.Location.Lat})
	}
	gallery := h.Gallery[:0]
	for _, img := range h.Gallery {
		if img.URL != "" {
			gallery = append(gallery, img)
		}
	}
	h.Gallery = gallery
}

// Validate checks required fields and enum membership.
func (h HeritageRecord) Validate() error {
	switch {
	case h.HID == "":
		return Invalid("heritage hid is required")
	case h.WardCode == "":
		return Invalid("heritage %s: ward codename is required", h.HID)
	case h.Name == "":
		return Invalid("heritage %s: name is required", h.HID)
	}
	if h.Category.Code() == 0 {
		return Invalid("heritage %s: unknown category %q", h.HID, h.Category)
	}
	if h.Level.Code() == 0 {
		return Invalid("heritage %s: unknown level %q", h.HID, h.Level)
	}
	return nil
}

// ImageURL returns the primary image URL or "".
func (h HeritageRecord) ImageURL() string {
	if h.Image == nil {
		return ""
	}
	return h.Image.URL
}

// CandidateFilter restricts which records may seed questions.
type CandidateFilter struct {
	RequireImage   bool
	RequireSummary bool
}

// Matches reports whether a record passes the filter.
func (f CandidateFilter) Matches(h HeritageRecord) bool {
	if f.RequireImage && h.ImageURL() == "" {
		return false
	}
	if f.RequireSummary && h.Summary == "" {
		return false
	}
	return true
}

func (f CandidateFilter) String() string {
	return fmt.Sprintf("image=%t summary=%t", f.RequireImage, f.RequireSummary)
}
