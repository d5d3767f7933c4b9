package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Types in this file mirror the remote API's JSON, so their tags follow its
// camelCase naming rather than ours.

type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

type ProductVariant struct {
	ID    int              `json:"id"`
	Size  string           `json:"size,omitempty"`
	Color string           `json:"color,omitempty"`
	Stock int              `json:"stock"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

type Product struct {
	ID          int              `json:"id"`
	Title       string           `json:"title"`
	Price       decimal.Decimal  `json:"price"`
	Description string           `json:"description"`
	Category    Category         `json:"category"`
	Images      []string         `json:"images"`
	Stock       *int             `json:"stock,omitempty"`
	Ratings     *float64         `json:"ratings,omitempty"`
	Reviews     *int             `json:"reviews,omitempty"`
	Variants    []ProductVariant `json:"variants,omitempty"`
}

// Variant returns the variant with the given id.
func (p Product) Variant(id int) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return ProductVariant{}, false
}

// ProductPatch is a partial product update; nil fields are left untouched.
type ProductPatch struct {
	Title       *string          `json:"title,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Description *string          `json:"description,omitempty"`
	CategoryID  *int             `json:"categoryId,omitempty"`
	Images      []string         `json:"images,omitempty"`
}

type User struct {
	ID     int    `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// Merge overlays the non-empty fields of updated onto u.
func (u User) Merge(updated User) User {
	if updated.ID != 0 {
		u.ID = updated.ID
	}
	if updated.Email != "" {
		u.Email = updated.Email
	}
	if updated.Name != "" {
		u.Name = updated.Name
	}
	if updated.Role != "" {
		u.Role = updated.Role
	}
	if updated.Avatar != "" {
		u.Avatar = updated.Avatar
	}
	return u
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type ProfileUpdate struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

type UserPreferences struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
}

type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	ZipCode string `json:"zipCode"`
}

type PaymentMethod struct {
	Type       string `json:"type"`
	LastFour   string `json:"lastFour,omitempty"`
	ExpiryDate string `json:"expiryDate,omitempty"`
}

type OrderItem struct {
	ID        int             `json:"id"`
	ProductID int             `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Product   Product         `json:"product"`
	Variant   *ProductVariant `json:"variant,omitempty"`
}

type Order struct {
	ID              int              `json:"id"`
	UserID          int              `json:"userId"`
	Items           []OrderItem      `json:"items"`
	Status          string           `json:"status"`
	Total           decimal.Decimal  `json:"total"`
	Shipping        decimal.Decimal  `json:"shipping"`
	Tax             decimal.Decimal  `json:"tax"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
	PaymentMethod   *PaymentMethod   `json:"paymentMethod,omitempty"`
}

type AmountByPeriod struct {
	Period string          `json:"period"`
	Amount decimal.Decimal `json:"amount"`
}

type CountByStatus struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type AdminStats struct {
	Revenue struct {
		Total     decimal.Decimal  `json:"total"`
		Growth    float64          `json:"growth"`
		Breakdown []AmountByPeriod `json:"breakdown"`
	} `json:"revenue"`
	Orders struct {
		Total     int             `json:"total"`
		Growth    float64         `json:"growth"`
		Breakdown []CountByStatus `json:"breakdown"`
	} `json:"orders"`
	Customers struct {
		Total  int     `json:"total"`
		Growth float64 `json:"growth"`
		Active int     `json:"active"`
		New    int     `json:"new"`
	} `json:"customers"`
	Inventory struct {
		Total      int `json:"total"`
		LowStock   int `json:"lowStock"`
		OutOfStock int `json:"outOfStock"`
	} `json:"inventory"`
}

type InventoryProduct struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Stock         int    `json:"stock"`
	ReorderPoint  int    `json:"reorderPoint"`
	LastRestocked string `json:"lastRestocked"`
}

type InventoryStats struct {
	Products []InventoryProduct `json:"products"`
	Summary  struct {
		TotalProducts   int     `json:"totalProducts"`
		LowStock        int     `json:"lowStock"`
		OutOfStock      int     `json:"outOfStock"`
		AverageTurnover float64 `json:"averageTurnover"`
	} `json:"summary"`
}

type ForecastFactor struct {
	Name   string  `json:"name"`
	Impact float64 `json:"impact"`
}

type SalesForecast struct {
	Period           string           `json:"period"`
	PredictedRevenue decimal.Decimal  `json:"predictedRevenue"`
	PredictedOrders  int              `json:"predictedOrders"`
	Confidence       float64          `json:"confidence"`
	Factors          []ForecastFactor `json:"factors"`
}

type SegmentTrait struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type CustomerSegment struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Size              int             `json:"size"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	PurchaseFrequency float64         `json:"purchaseFrequency"`
	Characteristics   []SegmentTrait  `json:"characteristics"`
}

// BatchUpdate changes one product or order; Changes is forwarded verbatim.
type BatchUpdate struct {
	ID      int            `json:"id" validate:"required,gt=0"`
	Changes map[string]any `json:"changes" validate:"required"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	Success   bool             `json:"success"`
	Processed int              `json:"processed"`
	Failed    int              `json:"failed"`
	Errors    []ImportRowError `json:"errors,omitempty"`
}

type ExportFilters struct {
	Category string
	MinStock *int
	MaxStock *int
	DateFrom string
	DateTo   string
}
