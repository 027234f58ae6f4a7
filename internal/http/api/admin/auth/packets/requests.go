package packets

// body for registering. A masjid is created alongside the account; its code
// is derived from MasjidName when MasjidCode is empty.
type SignupRequest struct {
	Email      string  `json:"email" binding:"required,email"`
	Password   string  `json:"password" binding:"required,min=8"`
	Name       *string `json:"name"`
	MasjidName string  `json:"masjid_name" binding:"required"`
	MasjidCode string  `json:"masjid_code" binding:"omitempty,alphanum,min=3,max=32"`
}

// body for logging in
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateCurrentProfileRequest struct {
	Email string  `json:"email" binding:"required,email"`
	Name  *string `json:"name"`
}
