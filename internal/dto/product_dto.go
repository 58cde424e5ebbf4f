package dto

import "github.com/shopspring/decimal"

// ProductFilter is bound from the query string of GET /v1/products.
type ProductFilter struct {
	Name     string `form:"name"`
	Barcode  string `form:"barcode"`
	Category string `form:"category"`
	Status   string `form:"status,default=active"` // active | inactive | all
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type VolumeResponse struct {
	ID              string          `json:"id"`
	Size            string          `json:"size"`
	Unit            string          `json:"unit"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	Barcode         string          `json:"barcode"`
}

type ProductResponse struct {
	ID             string           `json:"id"`
	SKU            string           `json:"sku"`
	Barcode        string           `json:"barcode"`
	Name           string           `json:"name"`
	Brand          string           `json:"brand"`
	Category       string           `json:"category"`
	RetailPrice    decimal.Decimal  `json:"retail_price"`
	WholesalePrice decimal.Decimal  `json:"wholesale_price"`
	Stock          int              `json:"stock"`
	MinStock       int              `json:"min_stock"`
	Status         string           `json:"status"`
	Volumes        []VolumeResponse `json:"volumes,omitempty"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
