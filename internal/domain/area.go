package domain

// Province is a top-level administrative area as published by the reference service.
type Province struct {
	Code     int    `json:"code"`
	Name     string `json:"name"`
	Codename string `json:"codename"`
}

// Ward is a fine-grained area joined to its province by numeric code.
type Ward struct {
	Codename     string `json:"codename"`
	ProvinceCode int    `json:"province_code"`
}

// AreaMap maps ward codenames to province codenames.
type AreaMap struct {
	Provinces      []Province        `json:"provinces"`
	WardToProvince map[string]string `json:"wardToProvince"`
}

// BuildAreaMap joins wards to provinces. Wards whose province code is unknown
// are dropped.
func BuildAreaMap(provinces []Province, wards []Ward) AreaMap {
	byCode := make(map[int]string, len(provinces))
	for _, p := range provinces {
		byCode[p.Code] = p.Codename
	}
	wardMap := make(map[string]string, len(wards))
	for _, w := range wards {
		if codename, ok := byCode[w.ProvinceCode]; ok {
			wardMap[w.Codename] = codename
		}
	}
	return AreaMap{Provinces: provinces, WardToProvince: wardMap}
}

// Empty reports whether the map cannot be used for grading.
func (m AreaMap) Empty() bool {
	return len(m.Provinces) == 0 || len(m.WardToProvince) == 0
}

// ProvinceCodename returns the province codename for a ward.
func (m AreaMap) ProvinceCodename(ward string) (string, bool) {
	codename, ok := m.WardToProvince[ward]
	return codename, ok
}

// ProvinceOf resolves a ward to its full province entry.
func (m AreaMap) ProvinceOf(ward string) (Province, bool) {
	codename, ok := m.WardToProvince[ward]
	if !ok {
		return Province{}, false
	}
	for _, p := range m.Provinces {
		if p.Codename == codename {
			return p, true
		}
	}
	return Province{}, false
}

// OtherProvinces returns every province except the one named.
func (m AreaMap) OtherProvinces(codename string) []Province {
	out := make([]Province, 0, len(m.Provinces))
	for _, p := range m.Provinces {
		if p.Codename != codename {
			out = append(out, p)
		}
	}
	return out
}
