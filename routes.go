package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/soddigital/financeiro_backend/models"
	"github.com/soddigital/financeiro_backend/utils"
)

func respondError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return
	}
	c.JSON(utils.HTTPStatus(err), gin.H{"error": err.Error()})
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) int {
	v, _ := strconv.Atoi(c.Query(name))
	return v
}

func registerRegistryRoutes(api *gin.RouterGroup) {
	api.GET("/companies", func(c *gin.Context) {
		records, err := models.ListCompanies(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": records})
	})
	api.GET("/companies/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		record, err := models.GetCompany(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.POST("/companies", func(c *gin.Context) {
		var input models.NewCompany
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.CreateCompany(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": record})
	})
	api.PUT("/companies/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewCompany
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.UpdateCompany(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.DELETE("/companies/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		if err := models.DeleteCompany(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "deleted": true}})
	})

	api.GET("/counterparties", func(c *gin.Context) {
		records, err := models.ListCounterparties(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": records})
	})
	api.GET("/counterparties/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		record, err := models.GetCounterparty(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.POST("/counterparties", func(c *gin.Context) {
		var input models.NewCounterparty
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.CreateCounterparty(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": record})
	})
	api.PUT("/counterparties/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewCounterparty
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.UpdateCounterparty(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.DELETE("/counterparties/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		if err := models.DeleteCounterparty(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "deleted": true}})
	})

	api.GET("/projects", func(c *gin.Context) {
		records, err := models.ListProjects(c.Request.Context(), queryInt(c, "company_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": records})
	})
	api.GET("/projects/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		record, err := models.GetProject(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.POST("/projects", func(c *gin.Context) {
		var input models.NewProject
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.CreateProject(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": record})
	})
	api.PUT("/projects/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewProject
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.UpdateProject(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.DELETE("/projects/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		if err := models.DeleteProject(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "deleted": true}})
	})
}

type settleEntryRequest struct {
	SettlementDate string `json:"settlement_date" binding:"required"`
}

type payInstallmentRequest struct {
	PaidDate string `json:"paid_date" binding:"required"`
}

func registerEntryRoutes(api *gin.RouterGroup) {
	api.GET("/entries", func(c *gin.Context) {
		records, err := models.ListEntries(c.Request.Context(),
			queryInt(c, "company_id"), queryInt(c, "project_id"),
			queryInt(c, "limit"), queryInt(c, "offset"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": records})
	})
	api.GET("/entries/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		record, err := models.GetEntry(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.POST("/entries", func(c *gin.Context) {
		var input models.NewEntry
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.CreateEntry(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": record})
	})
	api.PUT("/entries/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewEntry
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.UpdateEntry(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.POST("/entries/:id/settle", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var req settleEntryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, err)
			return
		}
		settlementDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.SettlementDate))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "settlement_date must be YYYY-MM-DD"})
			return
		}
		record, err := models.SettleEntry(c.Request.Context(), id, settlementDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.DELETE("/entries/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		if err := models.DeleteEntry(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "deleted": true}})
	})

	api.GET("/contracts", func(c *gin.Context) {
		records, err := models.ListRentalContracts(c.Request.Context(), queryInt(c, "company_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": records})
	})
	api.GET("/contracts/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		record, err := models.GetRentalContract(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.POST("/contracts", func(c *gin.Context) {
		var input models.NewRentalContract
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.CreateRentalContract(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": record})
	})
	api.POST("/contracts/installments/:id/pay", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var req payInstallmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, err)
			return
		}
		paidDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.PaidDate))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "paid_date must be YYYY-MM-DD"})
			return
		}
		record, err := models.PayInstallment(c.Request.Context(), id, paidDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.DELETE("/contracts/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		if err := models.DeleteRentalContract(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "deleted": true}})
	})
}
