package models

// Product is a wine or grape product referenced by production and
// commercialization rows. (Name, Category) is its natural key.
type Product struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Production is the yearly production volume of a product, in liters.
type Production struct {
	ID        int64 `json:"id"`
	Year      int   `json:"year"`
	Quantity  int64 `json:"quantity"`
	ProductID int64 `json:"product_id"`
}

// Processing is the yearly volume of grapes processed, in kilograms.
type Processing struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Quantity    int64  `json:"quantity"`
	Year        int    `json:"year"`
}

// Commercialization is the yearly volume of a product sold in the domestic market.
type Commercialization struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	Year      int   `json:"year"`
}

// Importation is the yearly import volume (kg) and value (US$) from one country.
type Importation struct {
	ID       int64  `json:"id"`
	Country  string `json:"country"`
	Category string `json:"category"`
	Weight   int64  `json:"weight"`
	Value    int64  `json:"value"`
	Year     int    `json:"year"`
}

// Exportation is the yearly export volume (kg) and value (US$) to one country.
type Exportation struct {
	ID       int64  `json:"id"`
	Country  string `json:"country"`
	Category string `json:"category"`
	Weight   int64  `json:"weight"`
	Value    int64  `json:"value"`
	Year     int    `json:"year"`
}
