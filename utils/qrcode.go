package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// BillURL is the customer-facing bill page link encoded in the table QR code.
func BillURL(baseURL, tableID, token string) string {
	return fmt.Sprintf("%s/bill/%s?token=%s",
		strings.TrimRight(baseURL, "/"), url.PathEscape(tableID), url.QueryEscape(token))
}

// QRCodeURL returns an image URL from the external QR service that renders data.
func QRCodeURL(serviceURL, data string) string {
	q := url.Values{}
	q.Set("size", "300x300")
	q.Set("data", data)
	return serviceURL + "?" + q.Encode()
}
