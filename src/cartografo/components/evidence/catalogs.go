package evidence

// Catalogs holds the pattern catalogs for the three evidence tiers plus the
// exclusion list. They are plain data so deployments can extend them from
// configuration without touching the extractor or classifier control flow.
type Catalogs struct {
	// Explicit tier: unambiguous origin markers.
	CountryMarkers []string
	LocalCodes     []string
	Provinces      []string

	// Cultural tier: voseo conjugations, lunfardo, cultural nouns.
	VoseoPhrases []string
	Slang        []string
	Culture      []string

	// Contextual tier: timezone/schedule patterns and weaker regional terms.
	TimePatterns []string // regular expressions, matched against folded text
	ContextTerms []string

	// Markers that point away from Argentina. A hit here with no explicit
	// marker suppresses classification.
	Exclusions []string
}

// DefaultCatalogs returns the built-in detection catalogs.
func DefaultCatalogs() Catalogs {
	return Catalogs{
		CountryMarkers: []string{"argentina", "argentino", "argentinos", "argenta"},
		LocalCodes: []string{
			"MZA", "COR", "ROS", "MDQ", "BRC", "SLA", "TUC", "NQN",
			"USH", "JUJ", "SFN", "CTC", "LRJ", "FSA", "SGO",
		},
		Provinces: []string{
			"Buenos Aires", "Córdoba", "Santa Fe", "Mendoza", "Tucumán",
			"Salta", "Entre Ríos", "Misiones", "Chaco", "Corrientes",
			"Santiago del Estero", "Jujuy", "Neuquén", "Río Negro",
			"Formosa", "Chubut", "San Luis", "Catamarca", "La Rioja",
			"San Juan", "Santa Cruz", "Tierra del Fuego", "La Pampa",
		},
		VoseoPhrases: []string{
			"vos tenés", "vos sabés", "vos querés", "vos podés",
			"vos andás", "vos venís", "vos hacés", "vos decís",
			"vos sos", "vos estás", "che vos", "vos che",
		},
		Slang: []string{
			"che", "boludo", "gil", "flaco", "bárbaro", "copado",
			"zarpado", "laburo", "guita", "bondi", "subte", "quilombo",
		},
		Culture: []string{
			"mate", "asado", "empanadas", "choripán", "milanesas",
			"alfajores", "dulce de leche", "maradona", "messi", "tango",
			"folklore", "cuarteto", "chamamé", "locro", "zamba",
			"vendimia", "aconcagua", "bariloche", "ushuaia", "obelisco",
		},
		TimePatterns: []string{
			`\b\d{1,2}\s?hs\b`,
			`\bhora argentina\b`,
			`\butc-3\b`,
			`\bart\b`,
		},
		ContextTerms: []string{
			"patagonia", "cuyo", "noa", "litoral", "pampa",
			"luna park", "river", "boca juniors",
		},
		Exclusions: []string{
			"españa", "méxico", "chile", "colombia", "perú", "uruguay",
			"bolivia", "venezuela", "ecuador", "paraguay", "brasil",
			"madrid", "barcelona", "cdmx", "bogotá", "lima",
		},
	}
}
