package utils

import (
	"errors"
	"net/http"
	"strconv"
)

var ErrInvalidQuery = errors.New("invalid query parameter")

// QueryInt reads a positive integer query parameter, returning def when it is absent.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, ErrInvalidQuery
	}
	return v, nil
}
