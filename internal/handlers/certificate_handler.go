package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flexible-healthcare/training-service/internal/services"
	"github.com/flexible-healthcare/training-service/internal/utils"
)

type CertificateHandler struct {
	BaseHandler
	service services.CertificateService
}

func NewCertificateHandler(service services.CertificateService, logger utils.Logger) *CertificateHandler {
	return &CertificateHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListCertificates returns the caller's compliance records with derived status
// @Router /certificates [get]
func (h *CertificateHandler) ListCertificates(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	certificates, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, certificates)
}

// DownloadCertificate redirects to the stored file or streams a generated one
// @Router /certificates/{id}/document [get]
func (h *CertificateHandler) DownloadCertificate(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	doc, err := h.service.Document(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if doc.RedirectURL != "" {
		c.Redirect(http.StatusFound, doc.RedirectURL)
		return
	}

	attachment(c, doc.Filename)
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

// ExportCertificates returns every certificate as a spreadsheet
// @Router /certificates/export [get]
func (h *CertificateHandler) ExportCertificates(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting certificates")

	file, err := h.service.Export(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	attachment(c, file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
