package domain

import "time"

type Contact struct {
	ID        ContactID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName  string    `gorm:"type:text;not null" json:"fullName"`
	Email     string    `gorm:"type:text;not null" json:"email"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (Contact) TableName() string { return "contacts" }
