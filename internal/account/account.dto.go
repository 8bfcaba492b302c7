package account

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Account *Account `json:"account"`
	Token   string   `json:"token"`
}

// ProfileUpdate carries only the fields the caller wants merged; nil fields
// are left untouched on the stored record.
type ProfileUpdate struct {
	Name      *string   `json:"name,omitempty" validate:"omitempty,min=1,max=80"`
	Avatar    *string   `json:"avatar,omitempty"`
	Bio       *string   `json:"bio,omitempty" validate:"omitempty,max=500"`
	ShowPhone *bool     `json:"showPhone,omitempty"`
	Language  *Language `json:"language,omitempty" validate:"omitempty,oneof=en ar"`
}

func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Avatar == nil && u.Bio == nil && u.ShowPhone == nil && u.Language == nil
}

// Fields lists the supplied fields keyed by their stored names.
func (u ProfileUpdate) Fields() map[string]any {
	fields := make(map[string]any)
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Avatar != nil {
		fields["avatar"] = *u.Avatar
	}
	if u.Bio != nil {
		fields["bio"] = *u.Bio
	}
	if u.ShowPhone != nil {
		fields["showPhone"] = *u.ShowPhone
	}
	if u.Language != nil {
		fields["language"] = string(*u.Language)
	}
	return fields
}

func (u ProfileUpdate) Apply(a *Account) {
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Avatar != nil {
		a.Avatar = *u.Avatar
	}
	if u.Bio != nil {
		a.Bio = *u.Bio
	}
	if u.ShowPhone != nil {
		a.ShowPhone = *u.ShowPhone
	}
	if u.Language != nil {
		a.Language = *u.Language
	}
}

type FriendRequestBody struct {
	TargetID string `json:"targetId" validate:"required"`
}

// SearchResult pairs a scanned account with the caller's relation to it.
type SearchResult struct {
	Account *Account `json:"account"`
	State   Relation `json:"state"`
	Label   string   `json:"label"`
}
