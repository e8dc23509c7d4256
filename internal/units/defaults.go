package units

var (
	lengthUnits = []string{"centimetre", "foot", "inch", "metre", "millimetre", "yard"}
	weightUnits = []string{"gram", "kilogram", "microgram", "milligram", "ounce", "pound", "ton"}
	volumeUnits = []string{
		"centilitre", "cubic foot", "cubic inch", "cup", "decilitre", "fluid ounce",
		"gallon", "imperial gallon", "litre", "microlitre", "millilitre", "pint", "quart",
	}
)

// DefaultSpec returns the built-in catalog for product-listing
// measurements. Each call returns a fresh copy.
func DefaultSpec() CatalogSpec {
	entities := map[string][]string{
		"width":                         lengthUnits,
		"depth":                         lengthUnits,
		"height":                        lengthUnits,
		"item_weight":                   weightUnits,
		"maximum_weight_recommendation": weightUnits,
		"voltage":                       {"kilovolt", "millivolt", "volt"},
		"wattage":                       {"kilowatt", "watt"},
		"item_volume":                   volumeUnits,
	}

	aliases := map[string]string{
		"cm": "centimetre", "centimetre": "centimetre",
		"ft": "foot", "foot": "foot",
		"in": "inch", "inch": "inch",
		"m": "metre", "metre": "metre",
		"mm": "millimetre", "millimetre": "millimetre",
		"yd": "yard", "yard": "yard",

		"g": "gram", "gram": "gram",
		"kg": "kilogram", "kilogram": "kilogram",
		"µg": "microgram", "microgram": "microgram",
		"mg": "milligram", "milligram": "milligram",
		"oz": "ounce", "ounce": "ounce",
		"lb": "pound", "pound": "pound",
		"ton": "ton",

		"kv": "kilovolt", "kilovolt": "kilovolt",
		"mv": "millivolt", "millivolt": "millivolt",
		"v": "volt", "volt": "volt",

		"kw": "kilowatt", "kilowatt": "kilowatt",
		"w": "watt", "watt": "watt",

		"cl": "centilitre", "centilitre": "centilitre",
		"cu ft": "cubic foot", "cubic foot": "cubic foot",
		"cu in": "cubic inch", "cubic inch": "cubic inch",
		"cup": "cup",
		"dl": "decilitre", "decilitre": "decilitre",
		"fl oz": "fluid ounce", "fluid ounce": "fluid ounce",
		"gal": "gallon", "gallon": "gallon",
		"imp gal": "imperial gallon", "imperial gallon": "imperial gallon",
		"l": "litre", "litre": "litre",
		"µl": "microlitre", "microlitre": "microlitre",
		"ml": "millilitre", "millilitre": "millilitre",
		"pt": "pint", "pint": "pint",
		"qt": "quart", "quart": "quart",
	}

	spec := CatalogSpec{
		Entities: make(map[string][]string, len(entities)),
		Aliases:  aliases,
	}

	// The allow-list is every unit some entity accepts.
	seen := make(map[string]struct{})
	for entity, list := range entities {
		spec.Entities[entity] = append([]string(nil), list...)
		for _, unit := range list {
			seen[unit] = struct{}{}
		}
	}
	spec.Allowed = sortedKeys(seen)

	return spec
}
