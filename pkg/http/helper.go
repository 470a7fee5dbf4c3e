package http

import (
	"net/http"
	"strconv"

	"wardq/pkg/config"
	apperrors "wardq/pkg/errors"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// RequesterID extracts the authenticated principal set by the identity
// collaborator. Identity itself is out of scope; the engine only needs a
// stable requester reference for ownership checks.
func RequesterID(r *http.Request) string {
	return r.Header.Get("X-Requester-ID")
}
