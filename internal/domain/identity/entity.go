package identity

import "time"

// User is an authenticated principal.
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:254" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsStaff      bool      `gorm:"not null" json:"is_staff"`
	IsSuperuser  bool      `gorm:"not null" json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// IsPrivileged reports whether the principal carries the admin flags that
// force its profile to the Admin role.
func (u *User) IsPrivileged() bool {
	return u.IsStaff || u.IsSuperuser
}

// Profile holds the role and account flags of exactly one User.
type Profile struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Role      Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	Approved  bool      `gorm:"not null" json:"approved"`
	Banned    bool      `gorm:"not null" json:"banned"`
	NID       string    `gorm:"column:nid;size:50" json:"nid"`
	Phone     string    `gorm:"size:30" json:"phone"`
	Location  string    `gorm:"size:255" json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// IsEligibleInspector reports whether the profile may receive assignments.
func IsEligibleInspector(p *Profile) bool {
	return p != nil && p.Role == RoleInspector && p.Approved && !p.Banned
}
