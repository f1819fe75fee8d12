package dto

type CreateCustomerInput struct {
	Name  string
	Email string
	Phone string // Optional
}

type UpdateCustomerInput struct {
	ID    string
	Name  *string
	Email *string
	Phone *string // Empty string clears the phone
}
