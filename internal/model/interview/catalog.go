package interview

// Catalog lists the choices offered by the profile form. Values outside the
// catalog are still accepted for position and company.
type Catalog struct {
	Levels    []Level  `json:"levels"`
	Positions []string `json:"positions"`
	Companies []string `json:"companies"`
	Defaults  Profile  `json:"defaults"`
}

// Seed provides the default form options.
func Seed() Catalog {
	return Catalog{
		Levels:    []Level{Junior, Mid, Senior},
		Positions: []string{"Data Scientist", "Data engineer", "ML Engineer", "BI Analyst", "Financial Analyst"},
		Companies: []string{"Amazon", "Meta", "Udemy", "365 Company", "Nestle", "LinkedIn", "Spotify"},
		Defaults:  DefaultProfile(),
	}
}

// Store exposes the form options for HTTP handlers and terminal shells.
type Store interface {
	Options() Catalog
}

// MemoryStore implements Store with an in-memory catalog.
type MemoryStore struct {
	catalog Catalog
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied catalog.
func NewMemoryStore(catalog Catalog) *MemoryStore {
	return &MemoryStore{catalog: cloneCatalog(catalog)}
}

// Options returns a copy of the catalog.
func (s *MemoryStore) Options() Catalog {
	return cloneCatalog(s.catalog)
}

func cloneCatalog(c Catalog) Catalog {
	return Catalog{
		Levels:    append([]Level(nil), c.Levels...),
		Positions: append([]string(nil), c.Positions...),
		Companies: append([]string(nil), c.Companies...),
		Defaults:  c.Defaults,
	}
}
