package handlers

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "shoply/internal/errors"
	"shoply/internal/services"
)

// maxImportSize caps uploaded CSV files at 5 MiB.
const maxImportSize = 5 << 20

// ImportExportHandler handles CSV import and export of items. CSV parsing and
// encoding happen here; the service layer only deals with field maps.
type ImportExportHandler struct {
	importExportService services.ImportExportServicer
}

// NewImportExportHandler creates a new ImportExportHandler.
func NewImportExportHandler(importExportService services.ImportExportServicer) *ImportExportHandler {
	return &ImportExportHandler{importExportService: importExportService}
}

// ImportItems handles a CSV upload into a list.
// @Summary     Import items from CSV
// @Description Upload a CSV file of items into a list. Malformed rows are skipped and reported; the rest are imported. With override=true, rows matching an existing item name update it in place.
// @Tags        import-export
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       id       path     string true  "List ID"
// @Param       file     formData file   true  "CSV file"
// @Param       override formData bool   false "Update existing items by name"
// @Success     200 {object} services.ImportResult "Import result"
// @Failure     400 {object} ErrorResponse "Invalid file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "List not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lists/{id}/import [post]
func (h *ImportExportHandler) ImportItems(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	listID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidFile, "a CSV file upload is required"))
		return
	}
	if fileHeader.Size > maxImportSize {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidFile, "file exceeds the 5 MiB limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	rows, err := decodeCSV(file)
	if err != nil {
		respondWithError(c, err)
		return
	}

	override := c.PostForm("override") == "true"
	result, err := h.importExportService.ImportItems(userID, listID, rows, override)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// ExportItems handles exporting items as CSV.
// @Summary     Export items to CSV
// @Description Download the user's items as a CSV file, optionally for one list and optionally excluding bought items
// @Tags        import-export
// @Produce     text/csv
// @Security    BearerAuth
// @Param       list_id        query string false "Restrict to one list"
// @Param       include_bought query bool   false "Include already bought items (default true)"
// @Success     200 {string} string "CSV file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /items/export [get]
func (h *ImportExportHandler) ExportItems(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var listID *string
	if v := c.Query("list_id"); v != "" {
		listID = &v
	}
	includeBought := c.Query("include_bought") != "false"

	records, err := h.importExportService.ExportItems(userID, listID, includeBought)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="items.csv"`)

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write(services.ExportColumns); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	row := make([]string, len(services.ExportColumns))
	for _, record := range records {
		for i, column := range services.ExportColumns {
			row[i] = record[column]
		}
		if err := writer.Write(row); err != nil {
			respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
			return
		}
	}
	writer.Flush()
}

// decodeCSV reads a header-led CSV stream into one field map per data row.
func decodeCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidFile, "missing CSV header row")
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidFile, "malformed CSV: "+err.Error())
		}

		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
