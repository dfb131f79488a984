package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParseValidateGte reads the named query parameter as an int32 and
// requires it to be at least min. A missing or invalid value answers
// 400 and returns false.
func ParseValidateGte(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, min int64) (int32, bool) {
	return parseIntParam(r, w, logger, key, func(v int64) bool { return v >= min })
}

// ParseValidateGt is like ParseValidateGte but requires the value to be
// strictly greater than min.
func ParseValidateGt(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, min int64) (int32, bool) {
	return parseIntParam(r, w, logger, key, func(v int64) bool { return v > min })
}

func parseIntParam(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, valid func(int64) bool) (int32, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("%s url parameter is required", key))
		return 0, false
	}
	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || !valid(value) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, raw))
		return 0, false
	}
	return int32(value), true
}
