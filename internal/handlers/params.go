package handlers

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"carematch/internal/apperr"
	"carematch/internal/models"
)

const dateLayout = "2006-01-02"

// pageRequest reads ?page= and ?per_page=.
func pageRequest(c fiber.Ctx, defaultSize int) models.PageRequest {
	return models.PageRequest{
		Index: fiber.Query[int](c, "page", 1),
		Size:  fiber.Query[int](c, "per_page", defaultSize),
	}.Normalize()
}

// idParam parses a positive integer route parameter.
func idParam(c fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid " + name)
	}
	return id, nil
}

// optionalID parses an optional positive integer query parameter.
func optionalID(c fiber.Ctx, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperr.Validation("invalid " + name)
	}
	return &id, nil
}

// dateRange parses ?from= and ?to= as inclusive calendar dates and returns
// the half-open interval [from, to+1d).
func dateRange(c fiber.Ctx) (from, to *time.Time, err error) {
	if raw := c.Query("from"); raw != "" {
		t, perr := time.Parse(dateLayout, raw)
		if perr != nil {
			return nil, nil, apperr.Validation("from must be YYYY-MM-DD")
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, perr := time.Parse(dateLayout, raw)
		if perr != nil {
			return nil, nil, apperr.Validation("to must be YYYY-MM-DD")
		}
		if from != nil && t.Before(*from) {
			return nil, nil, apperr.Validation("invalid date range")
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	return from, to, nil
}

// requestFilter builds a request search from query parameters.
func requestFilter(c fiber.Ctx, defaultSize int) (models.RequestFilter, error) {
	f := models.RequestFilter{
		Title: c.Query("q"),
		Page:  pageRequest(c, defaultSize),
	}
	if raw := c.Query("status"); raw != "" {
		s, ok := models.ParseStatus(raw)
		if !ok {
			return f, apperr.Validation("unknown status")
		}
		f.Status = &s
	}
	var err error
	if f.CategoryID, err = optionalID(c, "category_id"); err != nil {
		return f, err
	}
	if f.From, f.To, err = dateRange(c); err != nil {
		return f, err
	}
	return f, nil
}

// bindJSON decodes the request body into v.
func bindJSON(c fiber.Ctx, v any) error {
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}
