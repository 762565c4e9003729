// Package request decodes the loosely typed bodies the frontend sends: ids
// arrive as numbers or strings, and a missing body means empty fields.
package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"oahelper-api/internal/api/respond"
	"oahelper-api/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const MsgInvalidJSON = "Invalid JSON input"

// Bind decodes the JSON body into dst. An empty body leaves dst untouched;
// a malformed one aborts with 400.
func Bind(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	respond.Abort(c, http.StatusBadRequest, MsgInvalidJSON)
	return false
}

// Ref is a user reference: a numeric id or an email, sent as a JSON string
// or number.
type Ref string

func (r *Ref) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = Ref(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = Ref(n.String())
	return nil
}

func (r Ref) String() string { return string(r) }

// Int decodes 12, "12" and "" alike. Values that are not integers decode to 0.
type Int int64

func (i *Int) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	*i = Int(parseInt(raw))
	return nil
}

func parseInt(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int64(f)
	}
	return 0
}

// Decimal decodes 3.5 and "3.5" alike. Valid is false when the field was
// absent, null or not a number.
type Decimal struct {
	decimal.Decimal
	Valid bool
}

func (d *Decimal) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	v, err := decimal.NewFromString(raw)
	if err != nil {
		*d = Decimal{}
		return nil
	}
	*d = Decimal{Decimal: v, Valid: true}
	return nil
}

// QueryInt reads an integer query parameter, 0 when absent or malformed.
func QueryInt(c *gin.Context, key string) int64 {
	return parseInt(c.Query(key))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("gmail", isGmail)
	return v
}

func isGmail(fl validator.FieldLevel) bool {
	return strings.HasSuffix(users.NormalizeEmail(fl.Field().String()), "@gmail.com")
}

// IsGmail reports whether email is a well formed @gmail.com address.
func IsGmail(email string) bool {
	return validate.Var(users.NormalizeEmail(email), "required,email,gmail") == nil
}

// IsEmail reports whether email is a well formed address of any domain.
func IsEmail(email string) bool {
	return validate.Var(users.NormalizeEmail(email), "required,email") == nil
}
