package meeting

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Generator hands out a fresh room link per reservation.
type Generator struct {
	base string
	// newID is swapped in tests.
	newID func() string
}

func NewGenerator(baseURL string) (*Generator, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("meeting: parse base url: %w", err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, fmt.Errorf("meeting: base url must be absolute http(s), got %q", baseURL)
	}
	return &Generator{
		base:  strings.TrimRight(u.String(), "/"),
		newID: uuid.NewString,
	}, nil
}

func (g *Generator) NewMeetingReference() string {
	return g.base + "/" + g.newID()
}
