package rules

// MinAge is the onboarding age floor.
const MinAge = 18

func AgeAllowed(age int) bool {
	return age >= MinAge
}
