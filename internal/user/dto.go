package user

// PaginatedUsers is the admin listing payload.
type PaginatedUsers struct {
	Users []User     `json:"users"`
	Page  Pagination `json:"pagination"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// UpdateRolesRequest replaces a user's role set by role names.
type UpdateRolesRequest struct {
	Roles []string `json:"roles"`
}
