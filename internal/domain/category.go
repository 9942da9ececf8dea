package domain

type Category struct {
	ID   int32           `json:"id"`
	Name string          `json:"name"`
	Type TransactionType `json:"type"`
}

// CategoryInput is the create-category form
type CategoryInput struct {
	Name string          `json:"name"`
	Type TransactionType `json:"type"`
}

// Validate checks the category form before dispatch
func (in CategoryInput) Validate() error {
	v := &ValidationError{}
	validateName(v, "name", in.Name)
	if !in.Type.Valid() {
		v.Add("type", ErrInvalidType)
	}
	return v.OrNil()
}
