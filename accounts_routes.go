package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soddigital/financeiro_backend/models"
	"github.com/soddigital/financeiro_backend/models/reports"
	"github.com/soddigital/financeiro_backend/utils"
)

func registerAccountRoutes(api *gin.RouterGroup) {
	// The four levels share one read endpoint: the frontend always wants
	// the whole chart to build its cascading selects.
	api.GET("/chart-of-accounts", func(c *gin.Context) {
		chart, err := models.GetChartOfAccounts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": chart})
	})

	api.POST("/account-types", func(c *gin.Context) {
		var input models.NewAccountType
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.CreateAccountType(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": record})
	})
	api.PUT("/account-types/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewAccountType
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.UpdateAccountType(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.DELETE("/account-types/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		if err := models.DeleteAccountType(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "deleted": true}})
	})

	api.POST("/account-groups", func(c *gin.Context) {
		var input models.NewAccountGroup
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.CreateAccountGroup(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": record})
	})
	api.PUT("/account-groups/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewAccountGroup
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.UpdateAccountGroup(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.DELETE("/account-groups/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		if err := models.DeleteAccountGroup(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "deleted": true}})
	})

	api.POST("/account-categories", func(c *gin.Context) {
		var input models.NewAccountCategory
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.CreateAccountCategory(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": record})
	})
	api.PUT("/account-categories/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewAccountCategory
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.UpdateAccountCategory(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.DELETE("/account-categories/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		if err := models.DeleteAccountCategory(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "deleted": true}})
	})

	api.POST("/account-subcategories", func(c *gin.Context) {
		var input models.NewAccountSubcategory
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.CreateAccountSubcategory(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": record})
	})
	api.PUT("/account-subcategories/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewAccountSubcategory
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		record, err := models.UpdateAccountSubcategory(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	})
	api.DELETE("/account-subcategories/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		if err := models.DeleteAccountSubcategory(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "deleted": true}})
	})
}

func dreFilterFromQuery(c *gin.Context) (reports.DREFilter, error) {
	filter := reports.DREFilter{
		Year:      queryInt(c, "year"),
		CompanyId: queryInt(c, "company_id"),
		ProjectId: queryInt(c, "project_id"),
	}
	if v := strings.TrimSpace(c.Query("start_date")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, utils.NewAppError(utils.KindValidation, "start_date must be YYYY-MM-DD")
		}
		filter.StartDate = &t
	}
	if v := strings.TrimSpace(c.Query("end_date")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, utils.NewAppError(utils.KindValidation, "end_date must be YYYY-MM-DD")
		}
		filter.EndDate = &t
	}
	return filter, nil
}

func registerReportRoutes(api *gin.RouterGroup) {
	api.GET("/reports/dre", func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "reports.dre")
		defer span.End()

		filter, err := dreFilterFromQuery(c)
		if err != nil {
			respondError(c, err)
			return
		}
		response, err := reports.GetDREReport(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": response})
	})

	api.GET("/reports/dre/export", func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "reports.dre.export")
		defer span.End()

		filter, err := dreFilterFromQuery(c)
		if err != nil {
			respondError(c, err)
			return
		}
		response, err := reports.GetDREReport(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		f, err := reports.BuildDREWorkbook(response)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=dre.xlsx")
		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write file"})
		}
	})
}
