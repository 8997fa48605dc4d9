package controller

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"leaddesk/middleware"
	"leaddesk/models"
	"leaddesk/utils"
)

const msgLeadNotFound = "Lead not found"

// OperationObserver receives one event per lead store operation.
type OperationObserver interface {
	ObserveLeadOperation(operation, outcome string)
}

type LeadController struct {
	DB      *gorm.DB
	Logger  logrus.FieldLogger
	Metrics OperationObserver
}

func NewLeadController(db *gorm.DB, logger logrus.FieldLogger, metrics OperationObserver) *LeadController {
	return &LeadController{
		DB:      db,
		Logger:  logger,
		Metrics: metrics,
	}
}

// CreateLeadInput is the create payload. Enum fields left empty take their
// defaults; unknown enum values are rejected while decoding.
type CreateLeadInput struct {
	FirstName string        `json:"firstName" validate:"required,max=100"`
	LastName  string        `json:"lastName" validate:"required,max=100"`
	Email     string        `json:"email" validate:"required,email"`
	Phone     string        `json:"phone" validate:"required,max=40"`
	Company   string        `json:"company" validate:"max=200"`
	Stage     models.Stage  `json:"stage" validate:"omitempty,lead_stage"`
	Status    models.Status `json:"status" validate:"omitempty,lead_status"`
	Source    models.Source `json:"source" validate:"omitempty,lead_source"`
	Value     float64       `json:"value"`
	Notes     string        `json:"notes"`
}

func (in CreateLeadInput) lead() models.Lead {
	return models.Lead{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Company:   in.Company,
		Stage:     in.Stage,
		Status:    in.Status,
		Source:    in.Source,
		Value:     in.Value,
		Notes:     in.Notes,
	}
}

// ListLeadsResponse is the GET /leads body.
type ListLeadsResponse struct {
	Leads      []models.Lead     `json:"leads"`
	Pagination models.Pagination `json:"pagination"`
}

// LeadResponse is the create/update body.
type LeadResponse struct {
	Message string       `json:"message"`
	Lead    *models.Lead `json:"lead"`
}

// listParams reads the filter, sort and page query parameters shared by the
// list and export endpoints.
func listParams(c *fiber.Ctx) (models.LeadFilter, models.LeadSort, models.PageRequest) {
	filter := models.LeadFilter{
		Search: c.Query("search"),
		Stage:  c.Query("stage"),
		Status: c.Query("status"),
		Source: c.Query("source"),
	}
	sort := models.NewLeadSort(c.Query("sortBy"), c.Query("sortOrder"))
	page := models.NewPageRequest(
		utils.QueryInt(c, "page", models.DefaultPage),
		utils.QueryInt(c, "limit", models.DefaultLimit),
	)
	return filter, sort, page
}

// GetLeads returns a filtered, sorted page of leads with pagination metadata
func (lc *LeadController) GetLeads(c *fiber.Ctx) error {
	filter, sort, page := listParams(c)

	result, err := models.FindLeads(c.UserContext(), lc.DB, filter, sort, page)
	if err != nil {
		return lc.fail(c, "list", err)
	}
	lc.observe("list", "ok")

	return c.JSON(ListLeadsResponse{
		Leads:      result.Leads,
		Pagination: result.Pagination,
	})
}

// GetLeadByID returns a single lead
func (lc *LeadController) GetLeadByID(c *fiber.Ctx) error {
	lead, err := lc.findLead(c)
	if err != nil {
		return lc.fail(c, "get", err)
	}
	lc.observe("get", "ok")
	return c.JSON(lead)
}

// CreateLead validates and stores a new lead
func (lc *LeadController) CreateLead(c *fiber.Ctx) error {
	var input CreateLeadInput
	if err := c.BodyParser(&input); err != nil {
		return lc.fail(c, "create", badBody(err))
	}
	if err := utils.ValidateStruct(input); err != nil {
		return lc.fail(c, "create", err)
	}

	lead := input.lead()
	if err := lc.DB.WithContext(c.UserContext()).Create(&lead).Error; err != nil {
		return lc.fail(c, "create", err)
	}

	lc.observe("create", "ok")
	lc.requestLog(c).WithField("lead_id", lead.ID).Info("Lead created")

	return c.Status(fiber.StatusCreated).JSON(LeadResponse{
		Message: "Lead created successfully",
		Lead:    &lead,
	})
}

// UpdateLead applies every field present in the body, including zero values
func (lc *LeadController) UpdateLead(c *fiber.Ctx) error {
	var patch models.LeadPatch
	if err := c.BodyParser(&patch); err != nil {
		return lc.fail(c, "update", badBody(err))
	}
	if err := utils.ValidateStruct(patch); err != nil {
		return lc.fail(c, "update", err)
	}

	lead, err := lc.findLead(c)
	if err != nil {
		return lc.fail(c, "update", err)
	}

	patch.Apply(lead)
	if err := models.UpdateLead(c.UserContext(), lc.DB, lead); err != nil {
		return lc.fail(c, "update", err)
	}

	lc.observe("update", "ok")
	lc.requestLog(c).WithField("lead_id", lead.ID).Info("Lead updated")

	return c.JSON(LeadResponse{
		Message: "Lead updated successfully",
		Lead:    lead,
	})
}

// DeleteLead permanently removes a lead
func (lc *LeadController) DeleteLead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return lc.fail(c, "delete", models.ErrLeadNotFound)
	}

	result := lc.DB.WithContext(c.UserContext()).Delete(&models.Lead{}, "id = ?", id)
	if result.Error != nil {
		return lc.fail(c, "delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return lc.fail(c, "delete", models.ErrLeadNotFound)
	}

	lc.observe("delete", "ok")
	lc.requestLog(c).WithField("lead_id", id).Info("Lead deleted")

	return c.JSON(utils.MessageResponse("Lead deleted successfully", "", nil))
}

// GetAnalytics returns the summary counters and breakdowns over all leads
func (lc *LeadController) GetAnalytics(c *fiber.Ctx) error {
	analytics, err := models.ComputeLeadAnalytics(c.UserContext(), lc.DB)
	if err != nil {
		return lc.fail(c, "analytics", err)
	}
	lc.observe("analytics", "ok")
	return c.JSON(analytics)
}

// LeadNotFound answers any /leads/<segment> that is not a lead id.
func (lc *LeadController) LeadNotFound(c *fiber.Ctx) error {
	return utils.ErrorResponse(c, fiber.StatusNotFound, msgLeadNotFound, nil)
}

func (lc *LeadController) findLead(c *fiber.Ctx) (*models.Lead, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, models.ErrLeadNotFound
	}

	var lead models.Lead
	if err := lc.DB.WithContext(c.UserContext()).First(&lead, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrLeadNotFound
		}
		return nil, err
	}
	return &lead, nil
}

// fail maps an error onto the response taxonomy: not found 404, invalid
// input 400, anything else 500 (logged and reported).
func (lc *LeadController) fail(c *fiber.Ctx, operation string, err error) error {
	switch {
	case errors.Is(err, models.ErrLeadNotFound):
		lc.observe(operation, "not_found")
		return utils.ErrorResponse(c, fiber.StatusNotFound, msgLeadNotFound, nil)
	case errors.Is(err, models.ErrInvalidLead):
		lc.observe(operation, "invalid")
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), err)
	default:
		lc.observe(operation, "error")
		fields := map[string]interface{}{
			"operation": operation,
			"path":      c.Path(),
		}
		if caller, ok := middleware.CallerFromContext(c.UserContext()); ok {
			fields["user_id"] = caller.UserID
		}
		utils.LogError(lc.Logger, "lead_store", err, fields)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, err.Error(), nil)
	}
}

func (lc *LeadController) requestLog(c *fiber.Ctx) logrus.FieldLogger {
	log := lc.Logger.WithField("path", c.Path())
	if caller, ok := middleware.CallerFromContext(c.UserContext()); ok {
		log = log.WithField("user_id", caller.UserID)
	}
	return log
}

func (lc *LeadController) observe(operation, outcome string) {
	if lc.Metrics != nil {
		lc.Metrics.ObserveLeadOperation(operation, outcome)
	}
}

// badBody classifies a body decoding failure as invalid input.
func badBody(err error) error {
	if errors.Is(err, models.ErrInvalidLead) {
		return err
	}
	return fmt.Errorf("%w: invalid request body: %v", models.ErrInvalidLead, err)
}
