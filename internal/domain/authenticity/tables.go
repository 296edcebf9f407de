package authenticity

// Misspelling lists known typo variants of a brand name.
type Misspelling struct {
	Brand string   `mapstructure:"brand" json:"brand"`
	Typos []string `mapstructure:"typos" json:"typos"`
}

// PatternRule is a category-specific contradiction: a brand or category that
// should never co-occur with a label. Empty Brand or Category matches any.
type PatternRule struct {
	Name     string `mapstructure:"name" json:"name"`
	Category string `mapstructure:"category" json:"category,omitempty"`
	Brand    string `mapstructure:"brand" json:"brand,omitempty"`
	Label    string `mapstructure:"label" json:"label"`
	Reason   string `mapstructure:"reason" json:"reason"`
}

// Tables are the static heuristics the detector applies. They are copied on
// construction.
type Tables struct {
	CategoryBrands    map[string][]string `mapstructure:"category_brands" json:"category_brands"`
	Watermarks        []string            `mapstructure:"watermarks" json:"watermarks"`
	Misspellings      []Misspelling       `mapstructure:"misspellings" json:"misspellings"`
	SuspiciousPhrases []string            `mapstructure:"suspicious_phrases" json:"suspicious_phrases"`
	CategoryPatterns  []PatternRule       `mapstructure:"category_patterns" json:"category_patterns"`
}

// Fixed weights of the detector's checks.
const (
	AppleMissingExtra      = 15
	BrandMismatchWeight    = 50
	MultipleLogosWeight    = 35
	MultipleLogosThreshold = 2
	WatermarkWeight        = 70
	VeryLowOCRWeight       = 30
	LowOCRWeight           = 15
	VeryLowOCRConfidence   = 0.5
	LowOCRConfidence       = 0.7
	MisspellingWeight      = 50
	SuspiciousTextWeight   = 35
	CategoryPatternWeight  = 60
	SpoofWeight            = 40
	patternLabelMinScore   = 0.5
)

// DefaultTables returns the built-in heuristics.
func DefaultTables() Tables {
	return Tables{
		CategoryBrands: map[string][]string{
			"Smartphones":    {"Apple", "Samsung", "Google", "OnePlus", "Xiaomi"},
			"Electronics":    {"Apple", "Samsung", "Sony", "Bose", "JBL"},
			"Luxury Watches": {"Rolex", "Omega", "Cartier", "Tag Heuer", "Patek Philippe"},
			"Handbags":       {"Louis Vuitton", "Gucci", "Chanel", "Prada", "Hermes"},
			"Footwear":       {"Nike", "Adidas", "Puma", "New Balance"},
			"Cosmetics":      {"Chanel", "Dior", "L'Oreal", "MAC"},
		},
		Watermarks: []string{
			"shutterstock", "gettyimages", "getty images", "istockphoto", "istock",
			"alamy", "dreamstime", "depositphotos", "123rf", "adobe stock", "stock photo",
			"http://", "https://", "www.",
		},
		Misspellings: []Misspelling{
			{Brand: "Apple", Typos: []string{"appel", "aple", "applle"}},
			{Brand: "Samsung", Typos: []string{"samsang", "samsumg", "sumsung"}},
			{Brand: "Nike", Typos: []string{"nikey", "nkie", "niike"}},
			{Brand: "Adidas", Typos: []string{"adidass", "addidas", "abibas"}},
			{Brand: "Gucci", Typos: []string{"guci", "gucchi"}},
			{Brand: "Rolex", Typos: []string{"rolx", "rollex", "rolecs"}},
			{Brand: "Louis Vuitton", Typos: []string{"louis vuiton", "luis vuitton", "louis vitton"}},
			{Brand: "Chanel", Typos: []string{"channel paris", "chanell"}},
		},
		SuspiciousPhrases: []string{
			"made in chaina", "orignal", "orginal", "genuine replica", "replica",
			"aaa quality", "1:1 copy", "high copy", "super copy", "mirror quality",
		},
		CategoryPatterns: []PatternRule{
			{Name: "apple-android", Brand: "Apple", Label: "android", Reason: "Apple branding on an Android device"},
			{Name: "luxury-watch-plastic", Category: "Luxury Watches", Label: "plastic", Reason: "luxury watch made of plastic"},
			{Name: "luxury-watch-digital", Category: "Luxury Watches", Label: "digital clock", Reason: "digital display on a mechanical luxury watch"},
			{Name: "handbag-plastic", Category: "Handbags", Label: "plastic", Reason: "designer handbag made of plastic"},
			{Name: "pharma-candy", Category: "Pharmaceuticals", Label: "candy", Reason: "medicine resembling confectionery"},
		},
	}
}

func (t Tables) clone() Tables {
	out := Tables{
		CategoryBrands:    make(map[string][]string, len(t.CategoryBrands)),
		Watermarks:        append([]string(nil), t.Watermarks...),
		Misspellings:      make([]Misspelling, len(t.Misspellings)),
		SuspiciousPhrases: append([]string(nil), t.SuspiciousPhrases...),
		CategoryPatterns:  append([]PatternRule(nil), t.CategoryPatterns...),
	}
	for k, v := range t.CategoryBrands {
		out.CategoryBrands[k] = append([]string(nil), v...)
	}
	for i, m := range t.Misspellings {
		out.Misspellings[i] = Misspelling{Brand: m.Brand, Typos: append([]string(nil), m.Typos...)}
	}
	return out
}

//Personal.AI order the ending
