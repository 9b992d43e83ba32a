package enums

import "fmt"

type PickupStatus string

const (
	PickupStatusNotPickedUp PickupStatus = "not_picked_up"
	PickupStatusPickedUp    PickupStatus = "picked_up"
)

var validPickupStatuses = []PickupStatus{
	PickupStatusNotPickedUp,
	PickupStatusPickedUp,
}

func (p PickupStatus) String() string {
	return string(p)
}

func (p PickupStatus) IsValid() bool {
	for _, candidate := range validPickupStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePickupStatus converts raw input into a PickupStatus.
func ParsePickupStatus(value string) (PickupStatus, error) {
	for _, candidate := range validPickupStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pickup status %q", value)
}
