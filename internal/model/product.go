package model

import (
	"database/sql/driver"
	"encoding/json"
	"log"
	"time"
)

type Product struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	Price         float64   `json:"price" db:"price"`
	Category      string    `json:"category" db:"category"`
	StockQuantity int       `json:"stock_quantity" db:"stock_quantity"`
	CreatedBy     string    `json:"created_by" db:"created_by"`
	CreatedByName *string   `json:"created_by_name,omitempty" db:"created_by_name"`
	Images        ImageList `json:"images" db:"images"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ProductImage describes one stored image file belonging to a product.
type ProductImage struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
}

// ImageList is the product image sequence as persisted in the JSONB
// images column. Stored rows may predate this service, so Scan never
// fails: anything that is not a JSON array of descriptors reads back as
// an empty list.
type ImageList []ProductImage

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(ImageList{})
	}
	return json.Marshal(l)
}

func (l *ImageList) Scan(value interface{}) error {
	*l = ImageList{}
	if value == nil {
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		log.Printf("Warning: unexpected images column type %T, treating as empty", value)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}

	var images []ProductImage
	if err := json.Unmarshal(raw, &images); err != nil {
		log.Printf("Warning: malformed images JSON, treating as empty: %v", err)
		return nil
	}
	if images != nil {
		*l = images
	}
	return nil
}

// Paths returns the storage paths of every descriptor in the list.
func (l ImageList) Paths() []string {
	paths := make([]string, 0, len(l))
	for _, img := range l {
		paths = append(paths, img.Path)
	}
	return paths
}

type ProductData struct {
	Name          string    `json:"name" validate:"required"`
	Description   string    `json:"description" validate:"required"`
	Price         float64   `json:"price" validate:"gte=0"`
	Category      string    `json:"category" validate:"required"`
	StockQuantity int       `json:"stock_quantity" validate:"gte=0"`
	CreatedBy     string    `json:"created_by,omitempty"`
	Images        ImageList `json:"images"`
}

type ProductFilter struct {
	Category string
	Search   string
}

type DashboardStats struct {
	TotalUsers        int `json:"totalUsers"`
	TotalProducts     int `json:"totalProducts"`
	TotalAdmins       int `json:"totalAdmins"`
	TotalRegularUsers int `json:"totalRegularUsers"`
}

type DashboardResponse struct {
	Stats          DashboardStats `json:"stats"`
	RecentUsers    []*User        `json:"recentUsers"`
	RecentProducts []*Product     `json:"recentProducts"`
}
