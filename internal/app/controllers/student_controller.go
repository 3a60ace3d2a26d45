package controllers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/edutrack/adminportal/internal/app/models/dto"
	"github.com/edutrack/adminportal/internal/app/services"
	"github.com/edutrack/adminportal/internal/middleware"
	"github.com/edutrack/adminportal/internal/pkg/helpers"
	"github.com/gin-gonic/gin"
)

// defaultImportName is the file name assumed for JSON csvData payloads
const defaultImportName = "import.csv"

// StudentController handles student operations of one tenant
type StudentController struct {
	studentService   *services.StudentService
	importService    *services.ImportService
	duplicateService *services.DuplicateService
	maxUploadBytes   int64
}

// NewStudentController creates a new StudentController
func NewStudentController(
	studentService *services.StudentService,
	importService *services.ImportService,
	duplicateService *services.DuplicateService,
	maxUploadBytes int64,
) *StudentController {
	return &StudentController{
		studentService:   studentService,
		importService:    importService,
		duplicateService: duplicateService,
		maxUploadBytes:   maxUploadBytes,
	}
}

// CreateStudent adds one student under a newly allocated index number
// @Summary Create a student
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Param request body dto.CreateStudentRequest true "Student information"
// @Success 201 {object} dto.APIResponse{data=models.Student} "Student created"
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 404 {object} dto.ErrorResponse "Tenant not found"
// @Router /tenants/{tenantId}/students [post]
func (c *StudentController) CreateStudent(ctx *gin.Context) {
	var req dto.CreateStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		abortBadRequest(ctx, "Invalid student data", err.Error())
		return
	}

	student, err := c.studentService.CreateStudent(ctx.Request.Context(), ctx.Param("tenantId"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(student, "Student created successfully"))
}

// ListStudents lists the tenant's students by index number
// @Summary List students
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentListResponse} "Students retrieved"
// @Failure 404 {object} dto.ErrorResponse "Tenant not found"
// @Router /tenants/{tenantId}/students [get]
func (c *StudentController) ListStudents(ctx *gin.Context) {
	students, err := c.studentService.ListStudents(ctx.Request.Context(), ctx.Param("tenantId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.StudentListResponse{Students: students, Total: len(students)}
	if page, size, ok := helpers.ParsePaginationParams(ctx); ok {
		start, end := helpers.CalculateSliceIndices(page, size, len(students))
		info := helpers.NewPaginationInfo(int64(len(students)), page, size)
		resp.Students = students[start:end]
		resp.Pagination = &info
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp, ""))
}

// GetStudent retrieves one student
// @Summary Get a student
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} dto.APIResponse{data=models.Student} "Student retrieved"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /tenants/{tenantId}/students/{studentId} [get]
func (c *StudentController) GetStudent(ctx *gin.Context) {
	student, err := c.studentService.GetStudent(ctx.Request.Context(), ctx.Param("tenantId"), ctx.Param("studentId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(student, ""))
}

// DeleteStudent removes one student
// @Summary Delete a student
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} dto.APIResponse "Student deleted"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /tenants/{tenantId}/students/{studentId} [delete]
func (c *StudentController) DeleteStudent(ctx *gin.Context) {
	if err := c.studentService.DeleteStudent(ctx.Request.Context(), ctx.Param("tenantId"), ctx.Param("studentId")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil, "Student deleted successfully"))
}

// ImportStudents imports a CSV or XLSX table of students. The table comes
// either as a multipart "file" field or as JSON {"csvData": "..."}.
// @Summary Import students
// @Tags students
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Param request body dto.ImportStudentsRequest false "CSV text"
// @Param file formData file false "CSV or XLSX file"
// @Success 200 {object} dto.APIResponse{data=dto.ImportStudentsResponse} "Import finished"
// @Failure 400 {object} dto.ErrorResponse "File could not be parsed"
// @Failure 404 {object} dto.ErrorResponse "Tenant not found"
// @Failure 413 {object} dto.ErrorResponse "Upload too large"
// @Router /tenants/{tenantId}/students/import [post]
func (c *StudentController) ImportStudents(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUploadBytes)

	filename, data, ok := c.readImportPayload(ctx)
	if !ok {
		return
	}

	outcome, err := c.importService.ImportFile(ctx.Request.Context(), ctx.Param("tenantId"), filename, data)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	message := services.ImportSummary(outcome)
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.ImportStudentsResponse{
		Message:       message,
		ImportOutcome: outcome,
	}, message))
}

func (c *StudentController) readImportPayload(ctx *gin.Context) (string, []byte, bool) {
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		header, err := ctx.FormFile("file")
		if err != nil {
			if !middleware.AbortIfTooLarge(ctx, err) {
				abortBadRequest(ctx, "File is required", err.Error())
			}
			return "", nil, false
		}

		file, err := header.Open()
		if err != nil {
			abortBadRequest(ctx, "File could not be read", err.Error())
			return "", nil, false
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			abortBadRequest(ctx, "File could not be read", err.Error())
			return "", nil, false
		}
		return header.Filename, data, true
	}

	var req dto.ImportStudentsRequest
	if !middleware.BindJSON(ctx, &req) {
		return "", nil, false
	}
	return defaultImportName, []byte(req.CSVData), true
}

// FindDuplicates reports students sharing name, class, section and date of birth
// @Summary Find duplicate students
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Success 200 {object} dto.APIResponse{data=dto.DuplicateReportResponse} "Duplicate groups"
// @Failure 404 {object} dto.ErrorResponse "Tenant not found"
// @Router /tenants/{tenantId}/students/duplicates [get]
func (c *StudentController) FindDuplicates(ctx *gin.Context) {
	groups, err := c.duplicateService.FindDuplicateGroups(ctx.Request.Context(), ctx.Param("tenantId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.DuplicateReportResponse{
		Groups:     groups,
		TotalExtra: services.ExtraRecords(groups),
	}, ""))
}

// ExportStudents downloads the tenant's students as CSV
// @Summary Export students
// @Tags students
// @Produce text/csv
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Success 200 {file} file "CSV export"
// @Failure 404 {object} dto.ErrorResponse "Tenant not found"
// @Router /tenants/{tenantId}/students/export [get]
func (c *StudentController) ExportStudents(ctx *gin.Context) {
	tenantID := ctx.Param("tenantId")

	var buf bytes.Buffer
	if _, err := c.studentService.ExportStudentsCSV(ctx.Request.Context(), tenantID, &buf); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="students_%s.csv"`, tenantID))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
