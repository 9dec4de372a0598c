package order

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"veloura/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

func invoiceSecret() []byte {
	if s := os.Getenv("INVOICE_HMAC_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("your-very-secret-key")
}

// GenerateQRPayload returns a signed payload: orderID|userID|timestamp|signature
func GenerateQRPayload(orderID, userID string) string {
	timestamp := time.Now().Unix()
	data := fmt.Sprintf("%s|%s|%d", orderID, userID, timestamp)

	h := hmac.New(sha256.New, invoiceSecret())
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))

	return fmt.Sprintf("%s|%s", data, sig)
}

// Invoice renders the order as a PDF with a signed QR code for pickup or
// support verification.
//
// GET /api/order/invoice/:orderId
func Invoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	o, err := loadOrder(ctx, ps.ByName("orderId"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if o.UserID != userID {
		utils.RespondWithError(w, http.StatusForbidden, "Not your order")
		return
	}

	qrPNG, err := qrcode.Encode(GenerateQRPayload(o.OrderID, o.UserID), qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Invoice "+o.OrderID)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Placed: "+o.CreatedAt.Format("02 Jan 2006 15:04"))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Payment: %s (%s)", o.PaymentMethod, o.PaymentStatus))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Ship to: %s, %s, %s %s", o.Address.Name, o.Address.Street, o.Address.City, o.Address.Pincode))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(90, 7, "Item", "1", 0, "", false, 0, "")
	pdf.CellFormat(25, 7, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Total", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range o.Items {
		pdf.CellFormat(90, 7, item.Name, "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", item.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", item.Price*float64(item.Quantity)), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	if o.CouponApplied != nil {
		pdf.CellFormat(150, 6, "Coupon "+o.CouponApplied.Code, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("-%.2f", o.CouponApplied.DiscountAmount), "", 1, "R", false, 0, "")
	}
	if o.DeliveryCharge > 0 {
		pdf.CellFormat(150, 6, "Delivery", "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", o.DeliveryCharge), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(150, 8, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", o.TotalAmount), "", 1, "R", false, 0, "")

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("order-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("order-qr", 10, pdf.GetY()+8, 40, 40, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to render invoice")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="invoice-`+o.OrderID+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
