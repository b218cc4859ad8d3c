// AngelaMos | 2026
// request.go

package core

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// DecodeAndValidate reads a JSON body into dst and validates it. On failure
// the 400 response has already been written and false is returned.
func DecodeAndValidate(
	w http.ResponseWriter,
	r *http.Request,
	v *validator.Validate,
	dst any,
) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			BadRequest(w, r, "request body is required")
			return false
		}
		BadRequest(w, r, "invalid request body")
		return false
	}

	if err := v.Struct(dst); err != nil {
		ValidationFailed(w, r, FormatValidationErrors(err))
		return false
	}

	return true
}
