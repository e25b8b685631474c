package booking

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"tourbook/models"
)

func sign(secret []byte, data string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// InvoicePayload returns bookingId|totalAmount|signature for the invoice QR code.
func InvoicePayload(secret []byte, b *models.Booking) string {
	data := fmt.Sprintf("%s|%.2f", b.ID.Hex(), b.TotalAmount)
	return data + "|" + sign(secret, data)
}

// VerifyInvoicePayload checks a scanned QR payload against the secret.
func VerifyInvoicePayload(secret []byte, payload string) bool {
	i := strings.LastIndexByte(payload, '|')
	if i <= 0 {
		return false
	}
	data, sig := payload[:i], payload[i+1:]
	if strings.Count(data, "|") != 1 {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(sign(secret, data)))
}

// RenderInvoice builds the PDF invoice for a booking.
func RenderInvoice(secret []byte, v *models.BookingView) ([]byte, error) {
	qrPNG, err := qrcode.Encode(InvoicePayload(secret, &v.Booking), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("generate QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Booking Invoice")
	pdf.Ln(12)

	tourTitle := v.Tour.Hex()
	if v.TourInfo != nil {
		tourTitle = v.TourInfo.Title
	}
	customer := ""
	switch {
	case v.GuestInfo != nil:
		customer = v.GuestInfo.Name + " (guest)"
	case v.UserInfo != nil:
		customer = v.UserInfo.Name
	}

	pdf.SetFont("Arial", "", 12)
	lines := []string{
		"Booking ID: " + v.ID.Hex(),
		"Tour: " + tourTitle,
		"Customer: " + customer,
		"Start date: " + v.StartDate.Format("2006-01-02"),
		fmt.Sprintf("People: %d", v.NumberOfPeople),
		fmt.Sprintf("Price per person: %.2f %s", v.Price, v.Currency),
		fmt.Sprintf("Total: %.2f %s", v.TotalAmount, v.Currency),
		"Status: " + v.Status,
		"Payment: " + v.PaymentMethod + " / " + v.PaymentStatus,
	}
	for _, line := range lines {
		pdf.Cell(0, 10, line)
		pdf.Ln(8)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 30, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render PDF: %w", err)
	}
	return buf.Bytes(), nil
}
