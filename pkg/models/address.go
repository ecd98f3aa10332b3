package models

import (
	"time"
)

type Address struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"type:varchar(100)" json:"name"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone"`
	Line      string    `gorm:"type:varchar(255);not null" json:"line"`
	City      string    `gorm:"type:varchar(100);not null" json:"city"`
	State     string    `gorm:"type:varchar(100)" json:"state"`
	Country   string    `gorm:"type:varchar(100)" json:"country"`
	Pincode   string    `gorm:"type:varchar(12);not null" json:"pincode"`
	Landmark  string    `gorm:"type:varchar(255)" json:"landmark"`
	IsDefault bool      `gorm:"not null;default:false" json:"is_default"`
	Deleted   bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Address) TableName() string {
	return "addresses"
}

// Snapshot copies the deliverable fields so an order keeps them even if the
// address is edited or deleted later.
func (a Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		AddressID: a.ID,
		Name:      a.Name,
		Phone:     a.Phone,
		Line:      a.Line,
		City:      a.City,
		State:     a.State,
		Country:   a.Country,
		Pincode:   a.Pincode,
		Landmark:  a.Landmark,
	}
}

type AddressSnapshot struct {
	AddressID uint   `json:"address_id"`
	Name      string `gorm:"type:varchar(100)" json:"name"`
	Phone     string `gorm:"type:varchar(20)" json:"phone"`
	Line      string `gorm:"type:varchar(255)" json:"line"`
	City      string `gorm:"type:varchar(100)" json:"city"`
	State     string `gorm:"type:varchar(100)" json:"state"`
	Country   string `gorm:"type:varchar(100)" json:"country"`
	Pincode   string `gorm:"type:varchar(12)" json:"pincode"`
	Landmark  string `gorm:"type:varchar(255)" json:"landmark"`
}
