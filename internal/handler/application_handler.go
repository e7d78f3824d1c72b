package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scholarship-intake-api/internal/dto"
	"github.com/noah-isme/scholarship-intake-api/internal/service"
	"github.com/noah-isme/scholarship-intake-api/pkg/export"
	appErrors "github.com/noah-isme/scholarship-intake-api/pkg/errors"
	"github.com/noah-isme/scholarship-intake-api/pkg/response"
)

type intakeService interface {
	ProcessBatch(ctx context.Context, raw []byte, overrideID int64) (*dto.BatchSummary, error)
	Submit(ctx context.Context, form map[string]string) (*dto.SubmitResult, error)
}

// ApplicationHandler exposes the application intake endpoints.
type ApplicationHandler struct {
	intake         intakeService
	maxUploadBytes int64
}

// NewApplicationHandler constructs ApplicationHandler.
func NewApplicationHandler(intake intakeService, maxUploadBytes int64) *ApplicationHandler {
	return &ApplicationHandler{intake: intake, maxUploadBytes: maxUploadBytes}
}

// BulkUpload godoc
// @Summary Bulk upload applications from CSV
// @Tags Applications
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param scholarship_id formData int false "Apply every row to this scholarship"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications/bulk [post]
func (h *ApplicationHandler) BulkUpload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.ErrMissingFile)
		return
	}

	var overrideID int64
	if raw := strings.TrimSpace(c.PostForm("scholarship_id")); raw != "" {
		overrideID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || overrideID <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid scholarship_id override"))
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read uploaded file"))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read uploaded file"))
		return
	}

	summary, err := h.intake.ProcessBatch(c.Request.Context(), raw, overrideID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Summary(c, summary)
}

// Submit godoc
// @Summary Submit a single application
// @Tags Applications
// @Accept x-www-form-urlencoded
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	form, err := formValues(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid form payload"))
		return
	}
	if len(form) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "no form fields supplied"))
		return
	}

	result, err := h.intake.Submit(c.Request.Context(), form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Template godoc
// @Summary Download the bulk upload CSV template
// @Tags Applications
// @Produce text/csv
// @Success 200 {string} string
// @Router /applications/bulk/template [get]
func (h *ApplicationHandler) Template(c *gin.Context) {
	exporter := export.NewCSVExporter()
	payload, err := exporter.Render(export.Dataset{
		Headers: service.TemplateHeaders,
		Rows: []map[string]string{{
			"full_name":      "Jane Applicant",
			"email_address":  "jane@example.com",
			"date_of_birth":  "2004-06-15",
			"scholarship_id": "1",
			"academic_level": "undergraduate",
			"gpa":            "3.7",
			"terms_agreed":   "true",
		}},
	})
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render template"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="applications_template.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// formValues flattens url-encoded or multipart form data into a simple
// key/value map; repeated keys keep their first value.
func formValues(c *gin.Context) (map[string]string, error) {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/form-data") {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		values := make(map[string]string, len(form.Value))
		for key, vals := range form.Value {
			if len(vals) > 0 {
				values[key] = vals[0]
			}
		}
		return values, nil
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	values := make(map[string]string, len(c.Request.PostForm))
	for key, vals := range c.Request.PostForm {
		if len(vals) > 0 {
			values[key] = vals[0]
		}
	}
	return values, nil
}
