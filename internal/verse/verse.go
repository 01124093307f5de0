// Package verse obtains Bible-verse answers from the verse generation service.
// It owns the request, timeout, retry and response validation sequence; callers
// receive either a fully validated Response or a typed *Error.
package verse

import (
	"fmt"
	"strings"
)

// AnonymousUserID is sent when the caller has no authenticated identity.
const AnonymousUserID = "anonymous"

// Response is the four-field answer returned by the verse generation service.
type Response struct {
	Verse       string `json:"verse"`
	Reference   string `json:"reference"`
	Relevance   string `json:"relevance"`
	Explanation string `json:"explanation"`
}

// MissingFields lists the JSON names of fields that are empty or whitespace-only.
func (r Response) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"verse", r.Verse},
		{"reference", r.Reference},
		{"relevance", r.Relevance},
		{"explanation", r.Explanation},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Validate reports an error naming every missing field.
func (r Response) Validate() error {
	if missing := r.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("response is missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

type generateRequest struct {
	Question string `json:"question"`
	UserID   string `json:"userId"`
}

type generateResponse struct {
	Response *Response `json:"response"`
}
