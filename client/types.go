package client

import "time"

// Product is a wine or grape product.
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

// Commercialization is the yearly domestic sales volume of a product.
type Commercialization struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	Year      int   `json:"year"`
}

// Trade is one importation or exportation row: volume (kg) and value (US$)
// exchanged with a country in a year.
type Trade struct {
	ID       int64  `json:"id"`
	Country  string `json:"country"`
	Category string `json:"category"`
	Weight   int64  `json:"weight"`
	Value    int64  `json:"value"`
	Year     int    `json:"year"`
}

// Pagination describes the window a list call returned.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// Page is one page of records from a table.
type Page[T any] struct {
	Records    []T
	Pagination Pagination
}

// ListOptions controls pagination and filtering for list calls.
// Filters map a column (or column_min / column_max, or product_name) to a value.
type ListOptions struct {
	Limit   int
	Offset  int
	Filters map[string]string
}

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	SchemaVersion int     `json:"schema_version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// IngestResult summarizes one scraper in an ingestion run.
type IngestResult struct {
	Domain           string `json:"domain"`
	Parsed           int    `json:"parsed"`
	Inserted         int    `json:"inserted"`
	Skipped          int    `json:"skipped"`
	Unresolved       int    `json:"unresolved"`
	ProductsInserted int    `json:"products_inserted"`
}

// IngestReport describes the most recent ingestion run.
type IngestReport struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Results    []IngestResult `json:"results"`
	Failed     string         `json:"failed,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// StatsResponse holds per-table row counts.
type StatsResponse struct {
	Tables        map[string]int `json:"tables"`
	Total         int            `json:"total"`
	Ingestion     string         `json:"ingestion,omitempty"`
	LastIngestion *IngestReport  `json:"last_ingestion,omitempty"`
}

// User is an account as returned by the API.
type User struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Type        string     `json:"type"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for exchanging a password for a fresh API key.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Credentials pairs a user with a newly issued API key. The key is only
// ever returned here.
type Credentials struct {
	User   *User  `json:"user"`
	APIKey string `json:"api_key"`
}
