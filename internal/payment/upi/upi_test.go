package upi

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLink(t *testing.T) {
	p := Payee{VPA: "oahelper@upi", Name: "OA Helper"}
	link, err := p.Link(decimal.NewFromInt(199), "pro plan")
	require.NoError(t, err)
	assert.Equal(t, "upi://pay?pa=oahelper%40upi&pn=OA%20Helper&am=199.00&cu=INR&tn=pro%20plan", link)

	link, err = p.Link(decimal.RequireFromString("3.5"), "")
	require.NoError(t, err)
	assert.NotContains(t, link, "tn=")
	assert.Contains(t, link, "am=3.50")
}

func TestQR(t *testing.T) {
	png, err := Payee{VPA: "oahelper@upi", Name: "OAHelper"}.QR(decimal.NewFromInt(299), "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = Payee{}.QR(decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
