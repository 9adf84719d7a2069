package profile

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
)

type Profile struct {
	Username  string  `redis:"username"`
	Color     string  `redis:"color"`
	AvatarUrl *string `redis:"avatar_url"`
}

type SetProfileParams struct {
	MemberId string
	Profile  Profile
}
