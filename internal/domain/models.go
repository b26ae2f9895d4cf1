package domain

// Product is a catalog entry. Stock is mutated only through sale apply,
// sale reversal and explicit restock. Money is carried as integer cents.
type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	Image      string `json:"image,omitempty"`
}

// SaleEvent is one recorded sale. PriceCents and TotalCents are captured at
// sale time and never re-read from the catalog. Date is the observation day
// (ISO calendar date) the sale is attributed to; Time is presentation only.
type SaleEvent struct {
	ID         int64  `json:"id"`
	ProductID  int64  `json:"product_id"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
	TotalCents int64  `json:"total_cents"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

// HistoryRecord seals one calendar day. At most one record exists per date
// and a record is never mutated after creation.
type HistoryRecord struct {
	Date       string      `json:"date"`
	TotalCents int64       `json:"total_cents"`
	Sales      []SaleEvent `json:"sales"`
}

type ProductCreateRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	Image      string `json:"image,omitempty"`
}

type ProductUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	PriceCents *int64  `json:"price_cents,omitempty"`
	Image      *string `json:"image,omitempty"`
}

type RestockRequest struct {
	Qty int `json:"qty"`
}

type RecordSaleRequest struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type ReverseSalesRequest struct {
	IDs []int64 `json:"ids"`
}

type CurrentDayResponse struct {
	Date       string      `json:"date"`
	TotalCents int64       `json:"total_cents"`
	Sales      []SaleEvent `json:"sales"`
}

type HistoryResponse struct {
	Records []HistoryRecord `json:"records"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}
