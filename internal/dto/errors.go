package dto

// BadRequestErr describes a 400 response.
type BadRequestErr struct {
	Error string `json:"error"`
}

// UnauthorizedErr describes a 401 response. For secure-channel failures the
// message is always the same flat string.
type UnauthorizedErr struct {
	Error string `json:"error"`
}

// InternalServerErr describes a 500 response.
type InternalServerErr struct {
	Error string `json:"error"`
}
