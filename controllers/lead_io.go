package controller

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"leaddesk/models"
	"leaddesk/utils"
)

const (
	importMaxBytes  = 5 << 20
	importBatchSize = 100
	importMaxErrors = 20
	exportBatchSize = 500
)

// csvHeader is shared by export and import so an export can be re-imported.
var csvHeader = []string{
	"firstName", "lastName", "email", "phone", "company",
	"stage", "status", "source", "value", "notes", "createdAt",
}

// ImportRow is one CSV record; the enum columns arrive as free text and are
// checked by the lead_* validators.
type ImportRow struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,max=40"`
	Company   string `json:"company" validate:"max=200"`
	Stage     string `json:"stage" validate:"omitempty,lead_stage"`
	Status    string `json:"status" validate:"omitempty,lead_status"`
	Source    string `json:"source" validate:"omitempty,lead_source"`
	Value     string `json:"value" validate:"omitempty,numeric"`
	Notes     string `json:"notes"`
}

func (r ImportRow) lead() models.Lead {
	value, _ := strconv.ParseFloat(r.Value, 64)
	return models.Lead{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Company:   r.Company,
		Stage:     models.Stage(r.Stage),
		Status:    models.Status(r.Status),
		Source:    models.Source(r.Source),
		Value:     value,
		Notes:     r.Notes,
	}
}

// ImportResponse summarizes a CSV import.
type ImportResponse struct {
	Message   string   `json:"message"`
	TotalRows int      `json:"total_rows"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// ExportLeads streams every lead matching the list filters as CSV, in the
// list sort order and without pagination
func (lc *LeadController) ExportLeads(c *fiber.Ctx) error {
	filter, sort, _ := listParams(c)
	// The stream writer runs after the handler returns and the fiber.Ctx has
	// been recycled, so only captured values may be used inside it.
	ctx := c.UserContext()
	log := lc.requestLog(c)
	db := lc.DB

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename=leads_export_"+time.Now().Format("20060102")+".csv")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		writer := csv.NewWriter(w)
		if err := writer.Write(csvHeader); err != nil {
			log.WithError(err).Error("Failed to write CSV header")
			return
		}

		rows := 0
		err := models.EachLead(ctx, db, filter, sort, exportBatchSize, func(l models.Lead) error {
			rows++
			return writer.Write(leadRecord(l))
		})
		writer.Flush()
		if err == nil {
			err = writer.Error()
		}
		if err != nil {
			lc.observe("export", "error")
			log.WithError(err).Error("Lead export aborted")
			return
		}
		lc.observe("export", "ok")
		log.WithField("rows", rows).Info("Leads exported")
	}))
	return nil
}

func leadRecord(l models.Lead) []string {
	return []string{
		l.FirstName,
		l.LastName,
		l.Email,
		l.Phone,
		l.Company,
		string(l.Stage),
		string(l.Status),
		string(l.Source),
		strconv.FormatFloat(l.Value, 'f', -1, 64),
		l.Notes,
		l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ImportLeads creates leads from an uploaded CSV file. Invalid rows are
// skipped and reported; valid rows are inserted together in one transaction.
func (lc *LeadController) ImportLeads(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File upload error", nil)
	}
	if file.Size > importMaxBytes {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File too large (max 5MB)", nil)
	}

	src, err := file.Open()
	if err != nil {
		return lc.fail(c, "import", err)
	}
	defer src.Close()

	rows, rowErrs, total, err := parseImport(src)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	leads := make([]models.Lead, 0, len(rows))
	for _, r := range rows {
		leads = append(leads, r.lead())
	}
	if len(leads) > 0 {
		if err := lc.DB.WithContext(c.UserContext()).CreateInBatches(&leads, importBatchSize).Error; err != nil {
			return lc.fail(c, "import", err)
		}
	}

	lc.observe("import", "ok")
	lc.requestLog(c).WithFields(map[string]interface{}{
		"total_rows": total,
		"imported":   len(leads),
	}).Info("Leads imported")

	if len(rowErrs) > importMaxErrors {
		rowErrs = append(rowErrs[:importMaxErrors], fmt.Sprintf("... %d more", len(rowErrs)-importMaxErrors))
	}
	return c.JSON(ImportResponse{
		Message:   "Leads imported successfully",
		TotalRows: total,
		Imported:  len(leads),
		Skipped:   total - len(leads),
		Errors:    rowErrs,
	})
}

// parseImport reads a header row naming the columns, then validates every
// record against ImportRow. Unknown columns are ignored.
func parseImport(r io.Reader) ([]ImportRow, []string, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, 0, fmt.Errorf("csv file must have a header and at least one row")
	}
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to parse csv file: %v", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"firstName", "lastName", "email", "phone"} {
		if _, ok := col[required]; !ok {
			return nil, nil, 0, fmt.Errorf("csv header is missing column %q", required)
		}
	}

	var (
		rows  []ImportRow
		errs  []string
		total int
	)
	lineNo := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNo++
		if err != nil {
			return nil, nil, 0, fmt.Errorf("failed to parse csv file: %v", err)
		}
		total++

		get := func(name string) string {
			if i, ok := col[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}
		row := ImportRow{
			FirstName: get("firstName"),
			LastName:  get("lastName"),
			Email:     get("email"),
			Phone:     get("phone"),
			Company:   get("company"),
			Stage:     get("stage"),
			Status:    get("status"),
			Source:    get("source"),
			Value:     get("value"),
			Notes:     get("notes"),
		}
		if err := utils.ValidateStruct(row); err != nil {
			errs = append(errs, fmt.Sprintf("line %d: %v", lineNo, err))
			continue
		}
		rows = append(rows, row)
	}

	if total == 0 {
		return nil, nil, 0, fmt.Errorf("csv file must have a header and at least one row")
	}
	return rows, errs, total, nil
}
