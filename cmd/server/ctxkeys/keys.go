// Package ctxkeys names the fiber Locals set by the auth middlewares.
package ctxkeys

const (
	UserIDKey    = "userID"
	UserEmailKey = "userEmail"
	UserRoleKey  = "userRole"
	ParentCtxKey = "parentCtx"
)
