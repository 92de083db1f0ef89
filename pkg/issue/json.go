package issue

import "encoding/json"

// MarshalJSON renders the Error payload as its message, since
// error values do not serialize on their own.
func (i Issue) MarshalJSON() ([]byte, error) {
	type plain Issue
	return json.Marshal(struct {
		plain
		Error string `json:"error,omitempty"`
	}{
		plain: plain(i),
		Error: i.ErrorText(),
	})
}
