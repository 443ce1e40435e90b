package model

// Store is a physical service-center location under a Parent.
type Store struct {
	TenantEntity
	Name        string `json:"name" gorm:"type:varchar(200);not null"`
	StoreNumber string `json:"store_number,omitempty" gorm:"type:varchar(100);index"`
	Address     string `json:"address,omitempty" gorm:"type:varchar(200)"`
	City        string `json:"city,omitempty" gorm:"type:varchar(100)"`
	State       string `json:"state,omitempty" gorm:"type:varchar(50)"`
	ZipCode     string `json:"zip_code,omitempty" gorm:"type:varchar(20)"`
	Phone       string `json:"phone,omitempty" gorm:"type:varchar(50)"`
	Email       string `json:"email,omitempty" gorm:"type:varchar(200)"`
	IsActive    bool   `json:"is_active" gorm:"default:true"`

	Visits []Visit `json:"visits,omitempty" gorm:"foreignKey:StoreID"`
}

func (Store) TableName() string { return "stores" }
