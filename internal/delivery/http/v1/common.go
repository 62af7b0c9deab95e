package v1

import (
	"net/http"

	"mhargick-backend/internal/domain"
	"mhargick-backend/pkg/utils"

	"github.com/goccy/go-json"
)

// userFromRequest returns the authenticated user placed in context by the
// auth middleware, or nil for anonymous requests.
func userFromRequest(r *http.Request) *domain.User {
	user, _ := r.Context().Value(domain.UserContextKey).(*domain.User)
	return user
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// pageParams reads ?page= and ?limit= with sane bounds.
func pageParams(r *http.Request) (page, limit int) {
	page = utils.ParseInt(r.URL.Query().Get("page"), 1)
	limit = utils.ParseInt(r.URL.Query().Get("limit"), 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

type pagedResponse struct {
	Data       interface{}       `json:"data"`
	Pagination domain.Pagination `json:"pagination"`
}

func newPagedResponse(data interface{}, page, limit int, total int64) pagedResponse {
	return pagedResponse{Data: data, Pagination: domain.NewPagination(page, limit, total)}
}
