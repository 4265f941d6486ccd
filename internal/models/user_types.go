package models

import "time"

// User is an account mirrored from the hosted auth service.
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"full_name"`
	IsAdmin      bool       `json:"isAdmin" db:"is_admin"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	LastSignInAt *time.Time `json:"lastSignInAt" db:"last_sign_in_at"`
}

// Profile is the model for the 'profiles' table. ID equals the user ID.
type Profile struct {
	ID          string    `json:"id" db:"id"`
	FullName    string    `json:"fullName" db:"full_name"`
	PhoneNumber string    `json:"phoneNumber" db:"phone_number"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Address is a saved shipping address. At most one per user is default.
type Address struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"userId" db:"user_id"`
	Label         string    `json:"label" db:"label" binding:"max=64"`
	RecipientName string    `json:"recipientName" db:"recipient_name" binding:"required,max=255"`
	Phone         string    `json:"phone" db:"phone" binding:"max=32"`
	AddressLine   string    `json:"addressLine" db:"address_line" binding:"required,max=512"`
	City          string    `json:"city" db:"city" binding:"required,max=128"`
	PostalCode    string    `json:"postalCode" db:"postal_code" binding:"required,max=16"`
	IsDefault     bool      `json:"isDefault" db:"is_default"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID  string
	Email   string
	Name    string
	IsAdmin bool
}
