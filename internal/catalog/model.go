package catalog

// Product is one catalog entry. Ids are decimal strings assigned in
// insertion order; the JSON field names match the public wire format.
type Product struct {
	ID          string  `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	Name        string  `gorm:"column:name;size:320;not null" json:"name"`
	Price       float64 `gorm:"column:price;not null" json:"price"`
	Rating      int     `gorm:"column:rating;not null" json:"rating"`
	Category    string  `gorm:"column:category;size:190;not null" json:"category"`
	AgeRange    string  `gorm:"column:age_range;size:190;not null" json:"ageRange"`
	Description string  `gorm:"column:description;not null" json:"description"`
	Material    string  `gorm:"column:material;size:190;not null" json:"material"`
	InStock     bool    `gorm:"column:in_stock;not null" json:"inStock"`
	Image       string  `gorm:"column:image;size:512;not null" json:"image"`
}

// TableName exposes the table backing catalog products.
func (Product) TableName() string {
	return "products"
}

// ProductInput carries the attributes for a new product; the id is assigned
// by the service.
type ProductInput struct {
	Name        string
	Price       float64
	Rating      int
	Category    string
	AgeRange    string
	Description string
	Material    string
	InStock     bool
	Image       string
}

// ProductPatch carries a partial update; nil fields keep their stored value.
type ProductPatch struct {
	Name        *string
	Price       *float64
	Rating      *int
	Category    *string
	AgeRange    *string
	Description *string
	Material    *string
	InStock     *bool
	Image       *string
}
