package model

type Customer struct {
	BaseModel
	Name  string  `db:"name" json:"name"`
	Email string  `db:"email" json:"email"`
	Phone *string `db:"phone" json:"phone"` // Nullable
}
