package models

// AdminSeed describes the single well-known admin account that must always exist.
// It cannot be created through registration; the identity service inserts it lazily
// the first time the users collection is read.
type AdminSeed struct {
	ID       string
	Name     string
	Email    string
	Password string
}

// DefaultAdminSeed is the prototype admin account.
var DefaultAdminSeed = AdminSeed{
	ID:       "admin-1",
	Name:     "Furamora Admin",
	Email:    "admin@furamora.com",
	Password: "admin123",
}

// User builds the stored record for the seed with empty profile fields.
func (a AdminSeed) User() User {
	return User{
		ID:       a.ID,
		Name:     a.Name,
		Email:    NormalizeEmail(a.Email),
		Password: a.Password,
		Role:     RoleAdmin,
		Active:   Bool(true),
		Pets:     []Pet{},
	}
}

// Matches reports whether u is the seeded admin (role admin with the well-known email).
func (a AdminSeed) Matches(u User) bool {
	return u.Role == RoleAdmin && u.Email == NormalizeEmail(a.Email)
}
