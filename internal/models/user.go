package models

// User roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a storefront account.
type User struct {
	BaseModel
	Email        string `gorm:"uniqueIndex" json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"-"`
	Role         string `gorm:"default:customer" json:"role"`
	// Aggregate order statistics, maintained best-effort after checkout.
	OrdersCount int     `json:"orders_count"`
	TotalSpent  float64 `json:"total_spent"`
	Orders      []Order `json:"orders,omitempty"`
}

// FullName joins first and last name for display and notifications.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
