package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/edutrack/adminportal/internal/app/models/dto"
	appServices "github.com/edutrack/adminportal/internal/app/services"
	"github.com/edutrack/adminportal/internal/pkg/apperrors"
	"github.com/edutrack/adminportal/internal/pkg/logger"
)

// DemoTenantEmail is the login of the demo tenant
const DemoTenantEmail = "demo@edutrack.local"

const demoPassword = "demo1234"

// demoStudents is a small import table exercising duplicates and the date formats
const demoStudents = `Full Name,Class,Section,Date of Birth,Sex,Parent/Guardian Name,Parent Phone Number,Subjects
Nimal Perera,Grade 10,A,05/15/2010,Male,Sunil Perera,0771234567,"Mathematics, Science"
Kavya Fernando,Grade 10,A,2010-08-02,Female,Ruwan Fernando,0712345678,"English, ICT"
Tharindu Silva,Grade 11,B,1/9/2009,Male,Kamal Silva,0759876543,Commerce
Nimal Perera,Grade 10,A,05/15/2010,Male,Sunil Perera,0771234567,"Mathematics, Science"
`

// CreateDemoData creates a demo tenant with a few students unless it already
// exists. Failures are collected and returned together.
func CreateDemoData(ctx context.Context, tenants *appServices.TenantService, imports *appServices.ImportService) error {
	logger.Info().Msg("Checking/Creating demo data...")

	existing, err := tenants.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("error listing tenants: %w", err)
	}
	for _, t := range existing {
		if t.Email == DemoTenantEmail {
			logger.Info().Str("tenantID", t.ID).Msg("Demo tenant already present")
			return nil
		}
	}

	tenant, err := tenants.CreateTenant(ctx, &dto.CreateTenantRequest{
		Email:       DemoTenantEmail,
		Password:    demoPassword,
		Name:        "Demo Admin",
		AcademyName: "EduTrack Demo Academy",
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrTenantEmailExists) {
			return nil
		}
		return fmt.Errorf("error creating demo tenant: %w", err)
	}

	var finalErr error
	outcome, err := imports.ImportFile(ctx, tenant.ID, "demo.csv", []byte(demoStudents))
	if err != nil {
		finalErr = errors.Join(finalErr, fmt.Errorf("error importing demo students: %w", err))
	} else {
		for _, rowErr := range outcome.Errors {
			finalErr = errors.Join(finalErr, fmt.Errorf("demo row %d: %s", rowErr.Row, rowErr.Error))
		}
		logger.Info().Str("tenantID", tenant.ID).Msg(appServices.ImportSummary(outcome))
	}

	return finalErr
}
