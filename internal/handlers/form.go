package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yowaacademy/backend/internal/apperrors"
)

// multipartForm reads typed values from a parsed multipart form.
// The first conversion error is kept and later reads are no-ops.
type multipartForm struct {
	r   *http.Request
	err error
}

func newMultipartForm(r *http.Request) *multipartForm {
	return &multipartForm{r: r}
}

func (f *multipartForm) has(key string) bool {
	if f.r.MultipartForm == nil {
		return false
	}
	_, ok := f.r.MultipartForm.Value[key]
	if !ok {
		_, ok = f.r.MultipartForm.Value[key+"[]"]
	}
	return ok
}

func (f *multipartForm) string(key string) string {
	return f.r.FormValue(key)
}

func (f *multipartForm) stringPtr(key string) *string {
	if !f.has(key) {
		return nil
	}
	value := f.r.FormValue(key)
	return &value
}

// list accepts repeated fields, "key[]" fields, a JSON array or a comma list
func (f *multipartForm) list(key string) []string {
	if !f.has(key) {
		return nil
	}
	values := f.r.MultipartForm.Value[key]
	if len(values) == 0 {
		values = f.r.MultipartForm.Value[key+"[]"]
	}
	if len(values) != 1 {
		return trimAll(values)
	}

	raw := strings.TrimSpace(values[0])
	if strings.HasPrefix(raw, "[") {
		var items []any
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			f.fail(key)
			return nil
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			switch v := item.(type) {
			case string:
				out = append(out, v)
			case float64:
				out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
			default:
				f.fail(key)
				return nil
			}
		}
		return trimAll(out)
	}
	return trimAll(strings.Split(raw, ","))
}

func (f *multipartForm) ints(key string) []int {
	items := f.list(key)
	if items == nil {
		return nil
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			f.fail(key)
			return nil
		}
		out = append(out, n)
	}
	return out
}

func (f *multipartForm) intPtr(key string) *int {
	raw := strings.TrimSpace(f.r.FormValue(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		f.fail(key)
		return nil
	}
	return &n
}

func (f *multipartForm) boolPtr(key string) *bool {
	raw := strings.TrimSpace(f.r.FormValue(key))
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		f.fail(key)
		return nil
	}
	return &b
}

func (f *multipartForm) decimalPtr(key string) *decimal.Decimal {
	raw := strings.TrimSpace(f.r.FormValue(key))
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		f.fail(key)
		return nil
	}
	return &d
}

func (f *multipartForm) timePtr(key string) *time.Time {
	raw := strings.TrimSpace(f.r.FormValue(key))
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if t, err = time.Parse(time.DateOnly, raw); err != nil {
			f.fail(key)
			return nil
		}
	}
	return &t
}

func (f *multipartForm) fail(key string) {
	if f.err == nil {
		f.err = apperrors.Validation("invalid %s", key)
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
