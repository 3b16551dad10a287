package session

import (
	"encoding/json"
	"maps"
)

// User is the identity returned by the auth API. Fields the console does not know
// about are kept in Attributes so they survive a decode/encode round trip.
type User struct {
	ID             string         `json:"id"`
	Email          string         `json:"email"`
	FullName       string         `json:"fullName"`
	IsBusinessUser bool           `json:"isBusinessUser"`
	IsAdmin        bool           `json:"isAdmin"`
	Attributes     map[string]any `json:"-"`
}

var knownUserFields = map[string]struct{}{
	"id": {}, "email": {}, "fullName": {}, "isBusinessUser": {}, "isAdmin": {},
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range knownUserFields {
		delete(raw, k)
	}
	if len(raw) > 0 {
		p.Attributes = raw
	}

	*u = User(p)
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Attributes)+len(knownUserFields))
	maps.Copy(out, u.Attributes)
	out["id"] = u.ID
	out["email"] = u.Email
	out["fullName"] = u.FullName
	out["isBusinessUser"] = u.IsBusinessUser
	out["isAdmin"] = u.IsAdmin
	return json.Marshal(out)
}

// clone copies the user including its attribute map.
func (u User) clone() *User {
	c := u
	if u.Attributes != nil {
		c.Attributes = maps.Clone(u.Attributes)
	}
	return &c
}
