package identity

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=Owner Inspector Admin owner inspector admin"`
	NID      string `json:"nid" validate:"max=50"`
	Phone    string `json:"phone" validate:"max=30"`
	Location string `json:"location" validate:"max=255"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateContactRequest struct {
	NID      string `json:"nid" validate:"max=50"`
	Phone    string `json:"phone" validate:"max=30"`
	Location string `json:"location" validate:"max=255"`
}

type RejectRequest struct {
	Confirm bool `json:"confirm"`
}

// ProfileView is the public shape of a profile.
type ProfileView struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Approved bool   `json:"approved"`
	Banned   bool   `json:"banned"`
	NID      string `json:"nid"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

func NewProfileView(p *Profile) ProfileView {
	v := ProfileView{
		ID:       p.ID,
		UserID:   p.UserID,
		Role:     p.Role,
		Approved: p.Approved,
		Banned:   p.Banned,
		NID:      p.NID,
		Phone:    p.Phone,
		Location: p.Location,
	}
	if p.User != nil {
		v.Username = p.User.Username
		v.Email = p.User.Email
	}
	return v
}

func NewProfileViews(ps []Profile) []ProfileView {
	out := make([]ProfileView, 0, len(ps))
	for i := range ps {
		out = append(out, NewProfileView(&ps[i]))
	}
	return out
}
