package admin

// CreateAdminRequest creates an admin account (first admin or by another admin)
type CreateAdminRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100" example:"Placement Officer"`
	Email    string `json:"email" validate:"required,email" example:"admin@nsec.ac.in"`
	Phone    string `json:"phone" validate:"omitempty,phone" example:"+919876543210"`
	Password string `json:"password" validate:"required,password" example:"Password123"`
}

// UpdateProfileRequest is a partial update of the caller's admin profile
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=2,max=100" example:"Placement Officer"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,phone" example:"+919876543210"`
}

// CreateFacultyRequest creates a faculty account owned by the caller
type CreateFacultyRequest struct {
	Name           string `json:"name" validate:"required,min=2,max=100" example:"Dr. Rao"`
	Email          string `json:"email" validate:"required,email" example:"rao@nsec.ac.in"`
	Phone          string `json:"phone" validate:"required,phone" example:"+919876543210"`
	Password       string `json:"password" validate:"required,password" example:"Password123"`
	Specialization string `json:"specialization" validate:"required,max=100" example:"Machine Learning"`
}

// UpdateFacultyRequest is a partial update of an owned faculty account
type UpdateFacultyRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=2,max=100" example:"Dr. Rao"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,phone" example:"+919876543210"`
	Specialization *string `json:"specialization,omitempty" validate:"omitempty,max=100" example:"Data Science"`
}

// ProfileUpdate holds the sanitized fields a repository should $set. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name           *string
	Phone          *string
	Specialization *string
}

// Empty reports whether no field is set.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Phone == nil && u.Specialization == nil
}

// ExistsResponse tells the client whether the first admin still needs to be created
type ExistsResponse struct {
	Exists bool `json:"exists" example:"true"`
}
