package model

// Identity is the profile record owned by the user service.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// Lookup is the result of an identity search by email.
type Lookup struct {
	Found    bool
	Identity Identity
}
