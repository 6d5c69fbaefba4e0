// Package streetview builds signed static street-view image URLs. The
// image fetch itself happens in the browser; the server only keeps the API
// key out of client code.
package streetview

import (
	"fmt"
	"net/url"
)

type Source struct {
	base string
	key  string
	size string
}

func New(base, key string) (*Source, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if base == "" {
		base = "https://maps.googleapis.com/maps/api/streetview"
	}
	return &Source{base: base, key: key, size: "600x400"}, nil
}

func (s *Source) ImageURL(address string) string {
	q := url.Values{}
	q.Set("size", s.size)
	q.Set("location", address)
	q.Set("key", s.key)
	return s.base + "?" + q.Encode()
}
