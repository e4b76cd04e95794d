package models

import "time"

type User struct {
	ID                   int        `gorm:"primary_key;autoIncrement" json:"id"`
	Username             string     `gorm:"unique;not null;index" json:"username"`
	PasswordHash         string     `gorm:"not null" json:"-"` // json:"-" prevents password from being exposed in API
	Email                string     `gorm:"not null;index" json:"email"`
	Avatar               string     `json:"avatar"`
	FirstName            string     `json:"first_name"`
	LastName             string     `json:"last_name"`
	ResetPasswordToken   string     `gorm:"index" json:"-"` // token for password reset
	ResetPasswordExpires *time.Time `json:"-"`
	IsAdmin              bool       `gorm:"default:false" json:"is_admin"`
}

type Campground struct {
	ID          uint      `gorm:"primary_key"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"not null;index" json:"name"`
	Image       string    `json:"image"` // hosted image URL
	Price       string    `json:"price"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `json:"location"` // formatted address from the geocoder
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Rating      float64   `json:"rating"` // average of review ratings
	// author snapshot; a later username change does not propagate
	AuthorID       int    `gorm:"not null;index" json:"author_id"`
	AuthorUsername string `gorm:"not null" json:"author_username"`

	Comments []Comment `json:"comments,omitempty"`
	Reviews  []Review  `json:"reviews,omitempty"`
}

type Comment struct {
	ID             uint      `gorm:"primary_key"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	CampgroundID   uint      `gorm:"not null;index" json:"campground_id"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	AuthorID       int       `gorm:"not null;index" json:"author_id"`
	AuthorUsername string    `gorm:"not null" json:"author_username"`
}

type Review struct {
	ID             uint      `gorm:"primary_key"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	CampgroundID   uint      `gorm:"not null;index" json:"campground_id"`
	Body           string    `gorm:"type:text" json:"body"`
	Rating         int       `gorm:"not null" json:"rating"`
	AuthorID       int       `gorm:"not null;index" json:"author_id"`
	AuthorUsername string    `gorm:"not null" json:"author_username"`
}

// OwnerID and AdminOverride drive the ownership middleware: a mutation is
// allowed when the caller authored the entity, or when the caller is an
// admin and the entity type permits the override. Reviews may only be
// touched by their exact author.

func (c Campground) OwnerID() int        { return c.AuthorID }
func (c Campground) AdminOverride() bool { return true }

func (c Comment) OwnerID() int        { return c.AuthorID }
func (c Comment) AdminOverride() bool { return true }

func (r Review) OwnerID() int        { return r.AuthorID }
func (r Review) AdminOverride() bool { return false }
