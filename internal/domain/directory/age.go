package directory

import "time"

// CalculateAge returns whole years elapsed between birth and today. The
// year difference is decremented when today's (month, day) comes before the
// birthday's (month, day); day counts are never used.
func CalculateAge(birth, today time.Time) int {
	age := today.Year() - birth.Year()
	if today.Month() < birth.Month() || (today.Month() == birth.Month() && today.Day() < birth.Day()) {
		age--
	}
	return age
}
