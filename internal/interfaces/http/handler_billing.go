package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"ispagents/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

type BillingHandler struct {
	billing       *usecases.BillingUsecase
	profiles      *usecases.ProfileProvider
	paymentSecret string
}

func NewBillingHandler(billing *usecases.BillingUsecase, profiles *usecases.ProfileProvider, paymentSecret string) *BillingHandler {
	return &BillingHandler{billing: billing, profiles: profiles, paymentSecret: paymentSecret}
}

func (h *BillingHandler) ListInvoices(c *gin.Context) {
	invoices, err := h.billing.ListInvoices(getUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list invoices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var req struct {
		Plan   string `json:"plan"`
		Method string `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	invoice, err := h.billing.CreateSubscriptionInvoice(getUserID(c), req.Plan, req.Method)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

func (h *BillingHandler) GetInvoice(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}
	invoice, err := h.billing.GetInvoice(getUserID(c), id)
	if err != nil {
		if errors.Is(err, usecases.ErrInvoiceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load invoice"})
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// GetPixQRCode renders the invoice's PIX BR Code payload as a PNG the
// customer scans in their banking app.
func (h *BillingHandler) GetPixQRCode(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}
	invoice, err := h.billing.GetInvoice(getUserID(c), id)
	if err != nil || invoice == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		return
	}
	if invoice.PixPayload == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice has no PIX payload"})
		return
	}

	png, err := qrcode.Encode(invoice.PixPayload, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// HandlePaymentWebhook receives payment confirmations from the PSP.
// Authenticated by a shared secret header, not a user token.
func (h *BillingHandler) HandlePaymentWebhook(c *gin.Context) {
	secret := c.GetHeader("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.paymentSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook secret"})
		return
	}

	var payload struct {
		InvoiceID int    `json:"invoice_id"`
		Event     string `json:"event"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}
	if payload.Event != "payment.confirmed" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	invoice, err := h.billing.ConfirmPayment(payload.InvoiceID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	// The plan change must reach the access gates on the next request.
	h.profiles.Invalidate(invoice.UserID)
	c.JSON(http.StatusOK, gin.H{"status": "paid", "invoice_id": invoice.ID})
}
