package domain

import "time"

type AuthType string

const (
	AuthTypeManual   AuthType = "manual"
	AuthTypeExternal AuthType = "external"
)

type SocialLinks struct {
	Instagram string `gorm:"column:instagram;type:text;not null;default:''" json:"instagram"`
	LinkedIn  string `gorm:"column:linkedin;type:text;not null;default:''" json:"linkedin"`
	GitHub    string `gorm:"column:github;type:text;not null;default:''" json:"github"`
	Website   string `gorm:"column:website;type:text;not null;default:''" json:"website"`
}

// User is an account. PasswordHash is nil for externally authenticated users,
// EmailVerificationToken is nil once the address has been verified.
type User struct {
	ID                     UserID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name                   string      `gorm:"type:text;not null" json:"name"`
	Email                  string      `gorm:"type:text;not null;uniqueIndex:ux_users_email" json:"email"`
	Username               *string     `gorm:"type:text;uniqueIndex:ux_users_username" json:"username,omitempty"`
	PasswordHash           *string     `gorm:"column:password;type:text" json:"-"`
	IsVerified             bool        `gorm:"not null;default:false" json:"isVerified"`
	EmailVerificationToken *string     `gorm:"type:text" json:"-"`
	AuthType               AuthType    `gorm:"type:text;not null" json:"authType"`
	GoogleID               *string     `gorm:"type:text;uniqueIndex:ux_users_google_id" json:"-"`
	DOB                    *time.Time  `gorm:"type:date" json:"dob,omitempty"`
	ProfileImg             string      `gorm:"type:text;not null;default:''" json:"profileImg"`
	Bio                    string      `gorm:"type:text;not null;default:''" json:"bio"`
	SocialLinks            SocialLinks `gorm:"embedded;embeddedPrefix:social_" json:"socialLinks"`
	CreatedAt              time.Time   `gorm:"not null" json:"createdAt"`
	UpdatedAt              time.Time   `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// HasPassword reports whether the user can sign in with a password.
func (u *User) HasPassword() bool {
	return u.AuthType == AuthTypeManual && u.PasswordHash != nil && *u.PasswordHash != ""
}

// Principal is the identity carried by a bearer token.
type Principal struct {
	UserID UserID
	Email  string
}
