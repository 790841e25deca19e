package entity

// Airport carries the time zone used to render schedule times in the
// airport's local time
type Airport struct {
	Code     string
	Name     string
	CityName string
	TzName   string
}
