// Package upi builds UPI payment deep links and renders them as QR codes
// for the manual payment flow.
package upi

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
)

var ErrNotConfigured = errors.New("upi: payee address not configured")

type Payee struct {
	VPA  string
	Name string
}

// Link returns upi://pay?pa=..&pn=..&am=..&cu=INR&tn=..
func (p Payee) Link(amount decimal.Decimal, note string) (string, error) {
	if p.VPA == "" {
		return "", ErrNotConfigured
	}
	params := []string{
		"pa=" + url.QueryEscape(p.VPA),
		"pn=" + url.PathEscape(p.Name),
		"am=" + amount.StringFixed(2),
		"cu=INR",
	}
	if note = strings.TrimSpace(note); note != "" {
		params = append(params, "tn="+url.PathEscape(note))
	}
	return "upi://pay?" + strings.Join(params, "&"), nil
}

// QR renders the link as a 256px PNG.
func (p Payee) QR(amount decimal.Decimal, note string) ([]byte, error) {
	link, err := p.Link(amount, note)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode upi qr: %w", err)
	}
	return png, nil
}
