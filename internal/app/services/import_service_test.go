package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/edutrack/adminportal/internal/app/models"
	"github.com/edutrack/adminportal/internal/pkg/apperrors"
	"github.com/edutrack/adminportal/internal/pkg/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportFile_AssignsConsecutiveIndexNumbers(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv",
		csvData(validRow("Nimal Perera"), validRow("Kamal Silva"), validRow("Amal Fernando")))
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.Success)
	assert.Equal(t, 0, outcome.Failed)
	assert.Empty(t, outcome.Errors)
	require.Len(t, outcome.SuccessfulStudents, 3)
	assert.Equal(t, "MEC1001", outcome.SuccessfulStudents[0].IndexNumber)
	assert.Equal(t, "MEC1002", outcome.SuccessfulStudents[1].IndexNumber)
	assert.Equal(t, "MEC1003", outcome.SuccessfulStudents[2].IndexNumber)
	assert.Equal(t, 3.0, counterValue(t, f.metrics, "edutrack_import_rows_total", "success"))
}

func TestImportFile_ContinuesAfterExistingStudents(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "MEC1001", "Existing One")
	f.seed(t, "MEC1002", "Existing Two")

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv",
		csvData(validRow("Nimal Perera")))
	require.NoError(t, err)
	require.Len(t, outcome.SuccessfulStudents, 1)
	assert.Equal(t, "MEC1003", outcome.SuccessfulStudents[0].IndexNumber)
}

func TestImportFile_InvalidRowDoesNotConsumeIndex(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv", csvData(
		validRow("Nimal Perera"),
		`,Grade 10,A,05/15/2010,Male,Sunil Perera,0771234567,Mathematics,`,
		validRow("Kamal Silva"),
	))
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Success)
	assert.Equal(t, 1, outcome.Failed)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, 3, outcome.Errors[0].Row)
	assert.Equal(t, "Name is required", outcome.Errors[0].Error)
	assert.Equal(t, "Grade 10", outcome.Errors[0].Data["Class"])

	assert.Equal(t, []string{"MEC1001", "MEC1002"}, f.indexNumbers(t))
}

func TestImportFile_ReportsEveryViolation(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv", csvData(
		`Nimal Perera,Grade 10,,05/15/2010,male,,0771234567,,`,
	))
	require.NoError(t, err)

	require.Len(t, outcome.Errors, 1)
	assert.Equal(t,
		"Section is required, At least one subject is required, Valid sex (Male/Female) is required, Parent name is required",
		outcome.Errors[0].Error)
	assert.Equal(t, 2, outcome.Errors[0].Row)
}

func TestImportFile_DuplicateOfExistingStudent(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "MEC1001", "Nimal Perera")

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv",
		csvData(validRow("Nimal Perera")))
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Success)
	require.Len(t, outcome.SkippedDuplicates, 1)
	dup := outcome.SkippedDuplicates[0]
	assert.Equal(t, 2, dup.Row)
	assert.Equal(t, "Nimal Perera", dup.Name)
	assert.Equal(t, "Duplicate detected (original: MEC1001), assigned new index: MEC1002", dup.Reason)
	assert.Equal(t, 1.0, counterValue(t, f.metrics, "edutrack_import_duplicates_total"))
	assert.Equal(t, "Import completed: 1 succeeded, 0 failed, 1 duplicates assigned new index numbers", ImportSummary(outcome))
}

func TestImportFile_DuplicateWithinSameFile(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv",
		csvData(validRow("Nimal Perera"), validRow("Nimal Perera")))
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Success)
	require.Len(t, outcome.SkippedDuplicates, 1)
	assert.Equal(t, 3, outcome.SkippedDuplicates[0].Row)
	assert.Contains(t, outcome.SkippedDuplicates[0].Reason, "original: MEC1001")
	assert.Contains(t, outcome.SkippedDuplicates[0].Reason, "MEC1002")
}

func TestImportFile_IdentityMatchIsExact(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "MEC1001", "Nimal Perera")

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv", csvData(
		validRow("nimal perera"),
		`Nimal Perera,Grade 10,B,05/15/2010,Male,Sunil Perera,0771234567,Mathematics,`,
		`Nimal Perera,Grade 10,A,2010-05-16,Male,Sunil Perera,0771234567,Mathematics,`,
	))
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Success)
	assert.Empty(t, outcome.SkippedDuplicates)
}

func TestImportFile_MissingDateOfBirthDefaultsToToday(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv", csvData(
		`Nimal Perera,Grade 10,A,,Male,Sunil Perera,0771234567,Mathematics,`,
		`Kamal Silva,Grade 10,A,31/31/2010,Male,Sunil Perera,0771234567,Mathematics,`,
		`Amal Fernando,Grade 10,A,not-a-date,Male,Sunil Perera,0771234567,Mathematics,`,
	))
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.Success)
	assert.Empty(t, outcome.Errors)
	for _, st := range outcome.SuccessfulStudents {
		assert.Equal(t, models.DateOnly(fixedNow), st.DateOfBirth)
	}
	require.Len(t, outcome.Warnings, 3)
	assert.Equal(t, 2, outcome.Warnings[0].Row)
	assert.Equal(t, FieldDateOfBirth, outcome.Warnings[0].Field)
	assert.Equal(t, 3, outcome.Warnings[1].Row)
	assert.Contains(t, outcome.Warnings[1].Message, "31/31/2010")
	assert.Equal(t, 4, outcome.Warnings[2].Row)
	assert.Equal(t, FieldDateOfBirth, outcome.Warnings[2].Field)
	assert.Contains(t, outcome.Warnings[2].Message, "not-a-date")
}

func TestImportFile_AliasesAndDefaults(t *testing.T) {
	f := newFixture(t)
	data := "name,class,section,dob,sex,parentName,parentPhone,subjects,paymentType\n" +
		`Nimal Perera,Grade 10,A,2010-05-15,Female,Sunil Perera,0771234567,"Maths, ,Science",` + "\n"

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv", []byte(data))
	require.NoError(t, err)
	require.Len(t, outcome.SuccessfulStudents, 1)

	st := outcome.SuccessfulStudents[0]
	assert.Equal(t, "0771234567", st.WhatsappNumber)
	assert.Equal(t, models.PaymentTypeMonthly, st.PaymentType)
	assert.Equal(t, []string{"Maths", "Science"}, st.Subjects)
	assert.Equal(t, models.SexFemale, st.Sex)
	assert.True(t, st.IsActive)
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, st.ID, st.QRCodeData)
}

func TestImportFile_DriveLinkPhotoIsTransferred(t *testing.T) {
	f := newFixture(t)
	link := "https://drive.google.com/open?id=abc123XYZ"

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv", csvData(
		validRow("Nimal Perera")+link,
		validRow("Kamal Silva")+"https://example.com/photo.jpg",
	))
	require.NoError(t, err)
	require.Len(t, outcome.SuccessfulStudents, 2)

	require.Len(t, f.images.names, 1)
	assert.Equal(t, link, f.images.sources[0])
	assert.True(t, strings.HasPrefix(f.images.names[0], "profiles/students/student_"))
	assert.True(t, strings.HasSuffix(f.images.names[0], "_0.jpg"))
	assert.Equal(t, "https://cdn.test/"+f.images.names[0], outcome.SuccessfulStudents[0].PhotoURL)
	assert.Equal(t, "https://example.com/photo.jpg", outcome.SuccessfulStudents[1].PhotoURL)
	assert.Equal(t, 1.0, counterValue(t, f.metrics, "edutrack_photo_transfers_total", "transferred"))
}

func TestImportFile_PhotoFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.images.err = errors.New("download failed")

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv", csvData(
		validRow("Nimal Perera")+"https://drive.google.com/file/d/abc123XYZ/view",
	))
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Success)
	assert.Empty(t, outcome.SuccessfulStudents[0].PhotoURL)
	require.Len(t, outcome.Warnings, 1)
	assert.Equal(t, FieldPhotoURL, outcome.Warnings[0].Field)
	assert.Equal(t, 1.0, counterValue(t, f.metrics, "edutrack_photo_transfers_total", "failed"))
}

func TestImportFile_PersistFailureBecomesRowError(t *testing.T) {
	f := newFixture(t)
	f.students.failCreate["Broken Row"] = errStoreDown

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv", csvData(
		validRow("Nimal Perera"),
		validRow("Broken Row"),
		validRow("Kamal Silva"),
	))
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Success)
	assert.Equal(t, 1, outcome.Failed)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, 3, outcome.Errors[0].Row)
	assert.Equal(t, "Failed to save student: store unavailable", outcome.Errors[0].Error)

	// a failed insert consumes no index number
	assert.Equal(t, []string{"MEC1001", "MEC1002"}, f.indexNumbers(t))

	n, err := f.allocator.NextIndexNumber(context.Background(), f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1003, n)
}

func TestImportFile_FailureInTheMiddle(t *testing.T) {
	f := newFixture(t)
	f.students.failCreate["Row Four"] = errStoreDown

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv", csvData(
		validRow("Row Two"),
		validRow("Row Three"),
		validRow("Row Four"),
		validRow("Row Five"),
		validRow("Row Six"),
	))
	require.NoError(t, err)

	assert.Equal(t, 4, outcome.Success)
	assert.Equal(t, 1, outcome.Failed)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, 4, outcome.Errors[0].Row)
	assert.Equal(t, "Row Four", outcome.Errors[0].Data["Full Name"])

	names := make([]string, 0, len(outcome.SuccessfulStudents))
	for _, st := range outcome.SuccessfulStudents {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"Row Two", "Row Three", "Row Five", "Row Six"}, names)
	assert.Equal(t, []string{"MEC1001", "MEC1002", "MEC1003", "MEC1004"}, f.indexNumbers(t))
}

func TestImportFile_FinishesAfterCallerCancels(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.students.afterCreate = cancel

	outcome, err := f.imports.ImportFile(ctx, f.tenantID, "students.csv",
		csvData(validRow("Nimal Perera"), validRow("Kamal Silva"), validRow("Amal Fernando")))
	require.NoError(t, err)

	require.Error(t, ctx.Err())
	assert.Equal(t, 3, outcome.Success)
	assert.Empty(t, outcome.Errors)
	assert.Equal(t, []string{"MEC1001", "MEC1002", "MEC1003"}, f.indexNumbers(t))
}

func TestImportFile_ReimportSameRow(t *testing.T) {
	f := newFixture(t)
	data := csvData(`Alice,Grade 6,B,2010-01-01,Female,Mary,0712345678,English,`)

	first, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv", data)
	require.NoError(t, err)
	require.Len(t, first.SuccessfulStudents, 1)
	assert.Equal(t, "MEC1001", first.SuccessfulStudents[0].IndexNumber)
	assert.Empty(t, first.SkippedDuplicates)

	second, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv", data)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Success)
	require.Len(t, second.SuccessfulStudents, 1)
	assert.Equal(t, "MEC1002", second.SuccessfulStudents[0].IndexNumber)
	require.Len(t, second.SkippedDuplicates, 1)
	assert.Equal(t, "Alice", second.SkippedDuplicates[0].Name)
	assert.Contains(t, second.SkippedDuplicates[0].Reason, "MEC1001")
	assert.Contains(t, second.SkippedDuplicates[0].Reason, "MEC1002")

	assert.Len(t, f.indexNumbers(t), 2)
}

func TestImportFile_DuplicateCheckFailureBecomesRowError(t *testing.T) {
	f := newFixture(t)
	f.students.queryErr = errStoreDown

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv",
		csvData(validRow("Nimal Perera")))
	require.NoError(t, err)

	assert.Equal(t, 0, outcome.Success)
	require.Len(t, outcome.Errors, 1)
	assert.Contains(t, outcome.Errors[0].Error, "Duplicate check failed")
}

func TestImportFile_AllocationFailureBecomesRowError(t *testing.T) {
	f := newFixture(t)
	f.counter.failures = -1
	f.students.countErr = errStoreDown

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv",
		csvData(validRow("Nimal Perera")))
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Failed)
	require.Len(t, outcome.Errors, 1)
	assert.True(t, strings.HasPrefix(outcome.Errors[0].Error, "Index allocation failed"))
}

func TestImportFile_FallbackCollisionIsRetried(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "MEC1001", "Existing One")
	f.seed(t, "MEC1003", "Existing Two")
	f.counter.failures = 1

	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv",
		csvData(validRow("Nimal Perera")))
	require.NoError(t, err)

	require.Len(t, outcome.SuccessfulStudents, 1)
	assert.Equal(t, "MEC1004", outcome.SuccessfulStudents[0].IndexNumber)

	// the collided fallback attempt consumed nothing
	n, err := f.allocator.NextIndexNumber(context.Background(), f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1005, n)
}

func TestImportFile_StructuralErrorAbortsCall(t *testing.T) {
	f := newFixture(t)

	_, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv", []byte(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStructuralInput)
	assert.NotEmpty(t, apperrors.DetailsOf(err)["diagnostics"])

	_, err = f.imports.ImportFile(context.Background(), f.tenantID, "students.csv",
		[]byte(importHeader+"\n"+`"unterminated,Grade 10`+"\n"))
	assert.ErrorIs(t, err, apperrors.ErrStructuralInput)

	assert.Empty(t, f.indexNumbers(t))
}

func TestImportFile_UnknownTenant(t *testing.T) {
	f := newFixture(t)

	_, err := f.imports.ImportFile(context.Background(), "missing", "students.csv", csvData(validRow("Nimal Perera")))
	assert.ErrorIs(t, err, apperrors.ErrTenantNotFound)
}

func TestImportStudents_ParsedTable(t *testing.T) {
	f := newFixture(t)
	table := &tabular.Table{
		Headers: []string{"Full Name", "Class", "Section", "Date of Birth", "Sex", "Parent/Guardian Name", "Parent Phone Number", "Subjects"},
		Rows: []map[string]string{{
			"Full Name":            "Nimal Perera",
			"Class":                "Grade 10",
			"Section":              "A",
			"Date of Birth":        "5/15/2010",
			"Sex":                  "Male",
			"Parent/Guardian Name": "Sunil Perera",
			"Parent Phone Number":  "0771234567",
			"Subjects":             "Mathematics",
		}},
	}

	outcome, err := f.imports.ImportStudents(context.Background(), f.tenantID, table)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Success)
	assert.Equal(t, "Import completed: 1 succeeded, 0 failed", ImportSummary(outcome))
}

func TestImportFile_CountsMatchRows(t *testing.T) {
	f := newFixture(t)
	f.students.failCreate["Broken Row"] = errStoreDown

	rows := []string{
		validRow("Nimal Perera"),
		validRow("Nimal Perera"),
		validRow("Broken Row"),
		`,,,,,,,,`,
		validRow("Kamal Silva"),
	}
	outcome, err := f.imports.ImportFile(context.Background(), f.tenantID, "students.csv", csvData(rows...))
	require.NoError(t, err)

	assert.Equal(t, 4, outcome.Success+outcome.Failed, "blank rows are skipped by the parser")
	assert.Len(t, outcome.Errors, outcome.Failed)
	assert.Len(t, outcome.SuccessfulStudents, outcome.Success)
}
