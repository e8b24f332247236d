// Package model defines the data structures used throughout the application.
package model

import "time"

// Role classifies an account. It is set at registration (defaulting to
// patient) and is not meant to change afterwards — no operation mutates it.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Account is the persisted identity record: credentials plus profile.
//
// PasswordHash is empty for accounts created through Google sign-in that
// never set a password; such accounts cannot log in with a password and the
// login path tells the caller to use Google instead.
//
// ResetToken/ResetTokenExpiry are only populated during an active password
// recovery window and are cleared in the same write that stores the new
// password hash, so there is no state where both the old token and the new
// password validate.
//
// GoogleID, when set, is unique: one Google subject maps to at most one
// account.
type Account struct {
	ID           string `json:"user_id"       db:"id"`
	FullName     string `json:"full_name"     db:"full_name"`
	Email        string `json:"email"         db:"email"`
	PasswordHash string `json:"-"             db:"password_hash"`
	Role         Role   `json:"role"          db:"role"`

	// Common optional profile fields.
	Phone       string `json:"phone,omitempty"         db:"phone"`
	Address     string `json:"address,omitempty"       db:"address"`
	DateOfBirth string `json:"date_of_birth,omitempty" db:"date_of_birth"`

	// Patient-only.
	BloodGroup string `json:"blood_group,omitempty" db:"blood_group"`
	Age        int    `json:"age,omitempty"         db:"age"`
	Gender     string `json:"gender,omitempty"      db:"gender"`

	// Doctor-only.
	Education       string  `json:"education,omitempty"        db:"education"`
	Experience      int     `json:"experience,omitempty"       db:"experience"`
	LicenseNumber   string  `json:"license_number,omitempty"   db:"license_number"`
	ConsultationFee float64 `json:"consultation_fee,omitempty" db:"consultation_fee"`
	Bio             string  `json:"bio,omitempty"              db:"bio"`
	AvailableHours  string  `json:"available_hours,omitempty"  db:"available_hours"`

	// ProfilePicture is an inline data URI (data:<type>;base64,<bytes>),
	// opaque to this service.
	ProfilePicture string `json:"profile_picture,omitempty" db:"profile_picture"`

	GoogleID         string    `json:"-" db:"google_id"`
	ResetToken       string    `json:"-" db:"reset_token"`
	ResetTokenExpiry time.Time `json:"-" db:"reset_token_expiry"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasPassword reports whether the account can authenticate with a password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// Profile is the sanitized projection of an Account returned to callers.
// It never carries the password hash or reset-token fields, regardless of
// account state.
type Profile struct {
	ID              string    `json:"user_id"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	Role            Role      `json:"role"`
	Phone           string    `json:"phone,omitempty"`
	Address         string    `json:"address,omitempty"`
	DateOfBirth     string    `json:"date_of_birth,omitempty"`
	Gender          string    `json:"gender,omitempty"`
	Age             int       `json:"age,omitempty"`
	BloodGroup      string    `json:"blood_group,omitempty"`
	Education       string    `json:"education,omitempty"`
	Experience      int       `json:"experience,omitempty"`
	LicenseNumber   string    `json:"license_number,omitempty"`
	ConsultationFee float64   `json:"consultation_fee,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	AvailableHours  string    `json:"available_hours,omitempty"`
	ProfilePicture  string    `json:"profile_picture,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Sanitize returns the caller-facing projection of the account.
func (a *Account) Sanitize() Profile {
	return Profile{
		ID:              a.ID,
		FullName:        a.FullName,
		Email:           a.Email,
		Role:            a.Role,
		Phone:           a.Phone,
		Address:         a.Address,
		DateOfBirth:     a.DateOfBirth,
		Gender:          a.Gender,
		Age:             a.Age,
		BloodGroup:      a.BloodGroup,
		Education:       a.Education,
		Experience:      a.Experience,
		LicenseNumber:   a.LicenseNumber,
		ConsultationFee: a.ConsultationFee,
		Bio:             a.Bio,
		AvailableHours:  a.AvailableHours,
		ProfilePicture:  a.ProfilePicture,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// ProfilePatch is a partial profile update. Pointer fields distinguish
// "not present in the patch" (nil, leave untouched) from "set to the zero
// value" — omitted fields are never nulled.
type ProfilePatch struct {
	FullName    *string `json:"full_name"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	DateOfBirth *string `json:"date_of_birth"`

	BloodGroup *string `json:"blood_group"`
	Age        *int    `json:"age"`
	Gender     *string `json:"gender"`

	Education       *string  `json:"education"`
	Experience      *int     `json:"experience"`
	LicenseNumber   *string  `json:"license_number"`
	ConsultationFee *float64 `json:"consultation_fee"`
	Bio             *string  `json:"bio"`
	AvailableHours  *string  `json:"available_hours"`
}

// ApplyPatch applies the present fields of p to the account. Common fields
// apply to any role; role-specific fields apply only when the account's
// role matches, no matter what the patch contains. A patient's patch can
// name education all it wants — the field stays untouched.
func (a *Account) ApplyPatch(p *ProfilePatch) {
	if p.FullName != nil {
		a.FullName = *p.FullName
	}
	if p.Phone != nil {
		a.Phone = *p.Phone
	}
	if p.Address != nil {
		a.Address = *p.Address
	}
	if p.DateOfBirth != nil {
		a.DateOfBirth = *p.DateOfBirth
	}

	switch a.Role {
	case RolePatient:
		if p.BloodGroup != nil {
			a.BloodGroup = *p.BloodGroup
		}
		if p.Age != nil {
			a.Age = *p.Age
		}
		if p.Gender != nil {
			a.Gender = *p.Gender
		}
	case RoleDoctor:
		if p.Education != nil {
			a.Education = *p.Education
		}
		if p.Experience != nil {
			a.Experience = *p.Experience
		}
		if p.LicenseNumber != nil {
			a.LicenseNumber = *p.LicenseNumber
		}
		if p.ConsultationFee != nil {
			a.ConsultationFee = *p.ConsultationFee
		}
		if p.Bio != nil {
			a.Bio = *p.Bio
		}
		if p.AvailableHours != nil {
			a.AvailableHours = *p.AvailableHours
		}
	}
}
