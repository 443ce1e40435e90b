package model

// Parent is the top-level tenant: the brand or franchise group that owns a
// data partition. It is the only record that is not itself tenant-scoped.
type Parent struct {
	BaseEntity
	Name      string `json:"name" gorm:"type:varchar(200);not null"`
	BrandName string `json:"brand_name,omitempty" gorm:"type:varchar(100)"`
	LogoURL   string `json:"logo_url,omitempty" gorm:"type:varchar(500)"`
	IsActive  bool   `json:"is_active" gorm:"default:true"`

	Stores    []Store    `json:"stores,omitempty" gorm:"foreignKey:ParentID"`
	Customers []Customer `json:"customers,omitempty" gorm:"foreignKey:ParentID"`
	Campaigns []Campaign `json:"campaigns,omitempty" gorm:"foreignKey:ParentID"`
	Segments  []Segment  `json:"segments,omitempty" gorm:"foreignKey:ParentID"`
	Journeys  []Journey  `json:"journeys,omitempty" gorm:"foreignKey:ParentID"`
}

func (Parent) TableName() string { return "parents" }
