package handlers

import (
	"errors"
	"strconv"
)

const (
	maxPageLimit = 100
	// maxPage keeps (page-1)*limit far from overflowing the skip count.
	maxPage = 100000
)

var errInvalidPagination = errors.New("invalid pagination parameters")

func parsePaginationParams(pageStr, limitStr string) (int64, int64, error) {
	page := int64(1)
	limit := int64(20)

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return 0, 0, errInvalidPagination
		}
		page = min(p, maxPage)
	}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return 0, 0, errInvalidPagination
		}
		limit = l
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return page, limit, nil
}
