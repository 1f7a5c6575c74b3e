package model

import "encoding/json"

// Profile is the admin identity cached alongside the bearer token.
type Profile struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ProfileFromLogin extracts the admin profile from a login response
// body. The server may nest it as "user" or "admin", at top level or
// under a "data" wrapper; when no object is present the profile is
// synthesized from loose top-level fields.
func ProfileFromLogin(body map[string]any, username string) Profile {
	sources := []map[string]any{body}
	if wrapped, ok := asMap(body["data"]); ok {
		sources = append(sources, wrapped)
	}

	for _, src := range sources {
		for _, key := range []string{"user", "admin"} {
			if m, ok := asMap(src[key]); ok {
				return profileFromMap(m, username)
			}
		}
	}

	p := Profile{
		Username: username,
		Role:     "Administrator",
		Name:     "Admin User",
	}
	for _, src := range sources {
		if p.ID == "" {
			p.ID = idOf(src)
		}
		if name := stringField(src, "name"); name != "" && p.Name == "Admin User" {
			p.Name = name
		}
	}
	return p
}

func profileFromMap(m map[string]any, username string) Profile {
	p := Profile{
		ID:       idOf(m),
		Name:     stringField(m, "name"),
		Username: stringField(m, "username"),
		Role:     stringField(m, "role"),
	}
	if p.Username == "" {
		p.Username = username
	}
	if p.Role == "" {
		p.Role = "Administrator"
	}
	if p.Name == "" {
		p.Name = p.Username
	}
	return p
}

// ParseProfile decodes a stored profile blob. Returns nil when the blob
// is empty or unreadable, which callers treat as "not logged in".
func ParseProfile(blob string) *Profile {
	if blob == "" {
		return nil
	}
	var p Profile
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		return nil
	}
	return &p
}

// Encode serializes the profile for persistent storage.
func (p Profile) Encode() string {
	data, _ := json.Marshal(p)
	return string(data)
}
