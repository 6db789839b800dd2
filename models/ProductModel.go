package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CategoryElectronics = "Electronics"
	CategoryClothing    = "Clothing"
	CategoryBooks       = "Books"
	CategoryHomeGarden  = "Home & Garden"
	CategorySports      = "Sports"
	CategoryToys        = "Toys"
	CategoryFood        = "Food"
	CategoryOther       = "Other"
)

// Categories is the closed set of values accepted for Product.Category.
// now is the clock MarshalJSON derives isAvailable from.
var now = time.Now

var Categories = []string{
	CategoryElectronics,
	CategoryClothing,
	CategoryBooks,
	CategoryHomeGarden,
	CategorySports,
	CategoryToys,
	CategoryFood,
	CategoryOther,
}

// Dimensions are expressed in centimetres.
type Dimensions struct {
	Length float64 `bson:"length" json:"length"`
	Width  float64 `bson:"width" json:"width"`
	Height float64 `bson:"height" json:"height"`
}

func (d Dimensions) Volume() float64 {
	return d.Length * d.Width * d.Height
}

type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description" json:"description"`
	Price           float64            `bson:"price" json:"price"`
	Category        string             `bson:"category" json:"category"`
	Brand           string             `bson:"brand" json:"brand"`
	Stock           int                `bson:"stock" json:"stock"`
	SKU             string             `bson:"sku" json:"sku"`
	Weight          float64            `bson:"weight" json:"weight"`
	Dimensions      Dimensions         `bson:"dimensions" json:"dimensions"`
	ReleaseDate     time.Time          `bson:"releaseDate" json:"releaseDate"`
	DiscontinueDate *time.Time         `bson:"discontinueDate,omitempty" json:"discontinueDate,omitempty"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	Tags            []string           `bson:"tags" json:"tags"`
	CreatedBy       primitive.ObjectID `bson:"createdBy" json:"-"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Owner is filled by reads that join the users collection.
	Owner *Owner `bson:"owner,omitempty" json:"-"`
}

// IsAvailable reports whether the product can be sold at now.
func (p *Product) IsAvailable(now time.Time) bool {
	if !p.IsActive || p.Stock <= 0 {
		return false
	}
	return p.DiscontinueDate == nil || p.DiscontinueDate.After(now)
}

// MarshalJSON adds the derived fields and replaces createdBy with the
// populated owner when one was joined.
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	var createdBy any = p.CreatedBy
	if p.Owner != nil {
		createdBy = p.Owner
	}
	return json.Marshal(struct {
		product
		CreatedBy   any     `json:"createdBy"`
		Volume      float64 `json:"volume"`
		IsAvailable bool    `json:"isAvailable"`
	}{
		product:     product(p),
		CreatedBy:   createdBy,
		Volume:      p.Dimensions.Volume(),
		IsAvailable: p.IsAvailable(now()),
	})
}

// ProductPatch holds the updatable product fields. A nil field is left untouched.
type ProductPatch struct {
	Name            *string
	Description     *string
	Price           *float64
	Category        *string
	Brand           *string
	Stock           *int
	SKU             *string
	Weight          *float64
	Dimensions      *Dimensions
	ReleaseDate     *time.Time
	DiscontinueDate *time.Time
	IsActive        *bool
	Tags            *[]string

	// ClearDiscontinueDate removes a stored discontinue date.
	ClearDiscontinueDate bool
}

// NewProduct builds a product owned by createdBy from a create patch.
func NewProduct(p ProductPatch, createdBy primitive.ObjectID) *Product {
	product := &Product{IsActive: true, Tags: []string{}, CreatedBy: createdBy}
	p.Apply(product)
	return product
}

// Apply copies every set field of p onto product.
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Brand != nil {
		product.Brand = *p.Brand
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
	if p.SKU != nil {
		product.SKU = *p.SKU
	}
	if p.Weight != nil {
		product.Weight = *p.Weight
	}
	if p.Dimensions != nil {
		product.Dimensions = *p.Dimensions
	}
	if p.ReleaseDate != nil {
		product.ReleaseDate = *p.ReleaseDate
	}
	if p.DiscontinueDate != nil {
		d := *p.DiscontinueDate
		product.DiscontinueDate = &d
	}
	if p.ClearDiscontinueDate {
		product.DiscontinueDate = nil
	}
	if p.IsActive != nil {
		product.IsActive = *p.IsActive
	}
	if p.Tags != nil {
		product.Tags = append([]string(nil), (*p.Tags)...)
	}
}
