package product

import (
	"time"

	"github.com/lib/pq"
)

type Product struct {
	ID          string         `json:"id" db:"product_id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description" db:"description"`
	Price       int            `json:"price" db:"price"`
	Currency    string         `json:"currency" db:"currency"`
	ImageURL    string         `json:"imageUrl" db:"image_url"`
	Colors      pq.StringArray `json:"colors" db:"colors"`
	Sizes       pq.StringArray `json:"sizes" db:"sizes"`
	Views       int            `json:"views" db:"views"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" db:"updated_at"`
	Version     int            `json:"-" db:"version"`
}

type ProductNew struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       int      `json:"price" validate:"gte=0"`
	Currency    string   `json:"currency" validate:"required,len=3"`
	ImageURL    string   `json:"imageUrl" validate:"omitempty,url"`
	Colors      []string `json:"colors"`
	Sizes       []string `json:"sizes"`
}
