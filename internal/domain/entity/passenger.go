package entity

// PassengerRecord is a passenger on a single flight. Fetched on demand.
type PassengerRecord struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CheckedIn bool   `json:"checked_in"`
}

// FullName joins first and last name
func (p PassengerRecord) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
