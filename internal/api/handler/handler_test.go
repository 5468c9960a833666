package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms-core/internal/dto"
	"lms-core/internal/service"
	pkgerrors "lms-core/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock GradeService ──

type mockGradeService struct {
	breakdown *dto.GradeBreakdown
	err       error
}

func (m *mockGradeService) ComputeGrade(_ context.Context, _, _ string) (string, error) {
	if m.breakdown == nil {
		return "", m.err
	}
	return m.breakdown.Grade, m.err
}
func (m *mockGradeService) ComputeBreakdown(_ context.Context, _, _ string) (*dto.GradeBreakdown, error) {
	return m.breakdown, m.err
}

// ── Mock PropagationService ──

type mockPropagationService struct {
	grade     string
	oneErr    error
	report    *dto.PropagationReport
	allErr    error
	lastClass string
}

func (m *mockPropagationService) PropagateOne(_ context.Context, classID, _ string) (string, error) {
	m.lastClass = classID
	return m.grade, m.oneErr
}
func (m *mockPropagationService) PropagateAll(_ context.Context, classID string) (*dto.PropagationReport, error) {
	m.lastClass = classID
	return m.report, m.allErr
}
func (m *mockPropagationService) AfterSubmissionScored(_ context.Context, _, _ string) (string, error) {
	return m.grade, m.oneErr
}
func (m *mockPropagationService) AfterAssignmentCreated(_ context.Context, _ string) (*dto.PropagationReport, error) {
	return m.report, m.allErr
}

// ── Mock GPAService ──

type mockGPAService struct {
	gpa float64
	err error
}

func (m *mockGPAService) ComputeGPA(_ context.Context, _ string) (float64, error) {
	return m.gpa, m.err
}

// ── Mock OfferingService ──

type mockOfferingService struct {
	draft     *dto.OfferingDraft
	created   *dto.OfferingResponse
	err       error
	lastStart string
}

func (m *mockOfferingService) ValidateAndBuildOffering(_ context.Context, req *dto.OfferingRequest) (*dto.OfferingDraft, error) {
	m.lastStart = req.StartTime
	return m.draft, m.err
}
func (m *mockOfferingService) CreateOffering(_ context.Context, req *dto.OfferingRequest) (*dto.OfferingResponse, error) {
	m.lastStart = req.StartTime
	return m.created, m.err
}

// ── Mock CourseworkService ──

type mockCourseworkService struct {
	enrollment *dto.EnrollmentResponse
	category   *dto.CategoryResponse
	assignment *dto.AssignmentResponse
	submission *dto.SubmissionResponse
	score      *dto.ScoreResponse
	err        error
	lastScore  int
}

func (m *mockCourseworkService) Enroll(_ context.Context, _ string, _ *dto.EnrollRequest) (*dto.EnrollmentResponse, error) {
	return m.enrollment, m.err
}
func (m *mockCourseworkService) CreateCategory(_ context.Context, _ string, _ *dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	return m.category, m.err
}
func (m *mockCourseworkService) CreateAssignment(_ context.Context, _ string, _ *dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error) {
	return m.assignment, m.err
}
func (m *mockCourseworkService) Submit(_ context.Context, _ string, _ *dto.SubmitRequest) (*dto.SubmissionResponse, error) {
	return m.submission, m.err
}
func (m *mockCourseworkService) GradeSubmission(_ context.Context, _, _ string, score int) (*dto.ScoreResponse, error) {
	m.lastScore = score
	return m.score, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportGradebook(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details string          `json:"details"`
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func serve(t *testing.T, method, route, path string, body io.Reader, h gin.HandlerFunc) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	r := gin.New()
	r.Handle(method, route, h)

	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

const (
	testClassID      = "6f1c2a9e-3b4d-4e5f-8a7b-0c1d2e3f4a5b"
	testCategoryID   = "0b8e7d6c-5a4f-4321-9e8d-7c6b5a4f3e2d"
	testAssignmentID = "9a8b7c6d-1e2f-4a3b-8c4d-5e6f7a8b9c0d"
)

func validOfferingBody() dto.OfferingRequest {
	return dto.OfferingRequest{
		Subject:       "CS",
		Number:        3500,
		Season:        "fall",
		Year:          2024,
		StartTime:     "09:00",
		EndTime:       "10:00",
		Location:      "WEB L104",
		InstructorUID: "u9000001",
	}
}

// ═══════════════════════════════════════════════════════════
// GradeHandler Tests
// ═══════════════════════════════════════════════════════════

func TestGradeHandler_GetGrade_Success(t *testing.T) {
	grade := &mockGradeService{breakdown: &dto.GradeBreakdown{ClassID: "c1", StudentID: "u0000001", FinalPercent: 70, Grade: "C-"}}
	h := NewGradeHandler(grade, &mockPropagationService{}, &mockGPAService{})

	w, env := serve(t, http.MethodGet, "/classes/:id/students/:uid/grade", "/classes/"+testClassID+"/students/u0000001/grade", nil, h.GetGrade)

	assert.Equal(t, http.StatusOK, w.Code)
	var got dto.GradeBreakdown
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "C-", got.Grade)
	assert.InDelta(t, 70.0, got.FinalPercent, 1e-9)
}

func TestGradeHandler_GetGrade_StoreFailure(t *testing.T) {
	grade := &mockGradeService{err: fmt.Errorf("%w: boom", pkgerrors.ErrStoreFailure)}
	h := NewGradeHandler(grade, &mockPropagationService{}, &mockGPAService{})

	w, env := serve(t, http.MethodGet, "/classes/:id/students/:uid/grade", "/classes/"+testClassID+"/students/u0000001/grade", nil, h.GetGrade)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 50000, env.Code)
}

func TestGradeHandler_RecomputeStudent(t *testing.T) {
	cases := []struct {
		name     string
		mock     *mockPropagationService
		wantHTTP int
		wantCode int
	}{
		{"成功", &mockPropagationService{grade: "B+"}, http.StatusOK, 0},
		{"未选课", &mockPropagationService{oneErr: service.ErrEnrollmentNotFound}, http.StatusNotFound, 20001},
		{"版本冲突", &mockPropagationService{oneErr: pkgerrors.ErrOptimisticLock}, http.StatusConflict, 10409},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := NewGradeHandler(&mockGradeService{}, c.mock, &mockGPAService{})
			w, env := serve(t, http.MethodPost, "/classes/:id/students/:uid/grade/recompute",
				"/classes/"+testClassID+"/students/u0000001/grade/recompute", nil, h.RecomputeStudent)

			assert.Equal(t, c.wantHTTP, w.Code)
			assert.Equal(t, c.wantCode, env.Code)
		})
	}
}

func TestGradeHandler_RecomputeClass(t *testing.T) {
	prop := &mockPropagationService{report: &dto.PropagationReport{
		ClassID: "c1", Total: 3, Updated: 2,
		Failures: []dto.PropagationFailure{{StudentID: "u0000003", Error: "x"}},
	}}
	h := NewGradeHandler(&mockGradeService{}, prop, &mockGPAService{})

	w, env := serve(t, http.MethodPost, "/classes/:id/grades/recompute", "/classes/"+testClassID+"/grades/recompute", nil, h.RecomputeClass)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testClassID, prop.lastClass)
	var got dto.PropagationReport
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 3, got.Total)
	assert.Len(t, got.Failures, 1)
}

func TestGradeHandler_GetGPA(t *testing.T) {
	h := NewGradeHandler(&mockGradeService{}, &mockPropagationService{}, &mockGPAService{gpa: 3.67})

	w, env := serve(t, http.MethodGet, "/students/:uid/gpa", "/students/u0000001/gpa", nil, h.GetGPA)

	assert.Equal(t, http.StatusOK, w.Code)
	var got dto.GPAResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "u0000001", got.StudentID)
	assert.InDelta(t, 3.67, got.GPA, 1e-9)
}

// ═══════════════════════════════════════════════════════════
// OfferingHandler Tests
// ═══════════════════════════════════════════════════════════

func TestOfferingHandler_Validate_Success(t *testing.T) {
	mock := &mockOfferingService{draft: &dto.OfferingDraft{CourseID: "course-1", StartTime: "09:00:00", EndTime: "10:00:00"}}
	h := NewOfferingHandler(mock)

	w, env := serve(t, http.MethodPost, "/offerings/validate", "/offerings/validate", jsonBody(validOfferingBody()), h.ValidateOffering)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "09:00", mock.lastStart)
	var got dto.OfferingDraft
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "09:00:00", got.StartTime)
}

func TestOfferingHandler_Validate_BindingRules(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(r *dto.OfferingRequest)
	}{
		{"季节无效", func(r *dto.OfferingRequest) { r.Season = "Winter" }},
		{"时间格式无效", func(r *dto.OfferingRequest) { r.StartTime = "nine am" }},
		{"缺少地点", func(r *dto.OfferingRequest) { r.Location = "" }},
		{"教师 uid 长度", func(r *dto.OfferingRequest) { r.InstructorUID = "u1" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mock := &mockOfferingService{}
			h := NewOfferingHandler(mock)
			body := validOfferingBody()
			c.mutate(&body)

			w, env := serve(t, http.MethodPost, "/offerings/validate", "/offerings/validate", jsonBody(body), h.ValidateOffering)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, 10001, env.Code)
			assert.NotEmpty(t, env.Details)
			assert.Empty(t, mock.lastStart, "校验失败不应调用 Service")
		})
	}
}

func TestOfferingHandler_Validate_ServiceErrors(t *testing.T) {
	cases := []struct {
		err      error
		wantHTTP int
		wantCode int
	}{
		{service.ErrInvalidInterval, http.StatusBadRequest, 21002},
		{service.ErrCourseNotFound, http.StatusNotFound, 21004},
		{service.ErrDuplicateOffering, http.StatusConflict, 21005},
		{service.ErrLocationConflict, http.StatusConflict, 21006},
		{service.ErrInstructorNotFound, http.StatusUnprocessableEntity, 21007},
		{errors.New("unexpected"), http.StatusInternalServerError, 50000},
	}
	for _, c := range cases {
		h := NewOfferingHandler(&mockOfferingService{err: c.err})
		w, env := serve(t, http.MethodPost, "/offerings/validate", "/offerings/validate", jsonBody(validOfferingBody()), h.ValidateOffering)

		assert.Equal(t, c.wantHTTP, w.Code, c.err.Error())
		assert.Equal(t, c.wantCode, env.Code, c.err.Error())
	}
}

func TestOfferingHandler_Create_Success(t *testing.T) {
	mock := &mockOfferingService{created: &dto.OfferingResponse{ClassID: "class-1"}}
	h := NewOfferingHandler(mock)

	w, env := serve(t, http.MethodPost, "/offerings", "/offerings", jsonBody(validOfferingBody()), h.CreateOffering)

	assert.Equal(t, http.StatusCreated, w.Code)
	var got dto.OfferingResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "class-1", got.ClassID)
}

// ═══════════════════════════════════════════════════════════
// CourseworkHandler Tests
// ═══════════════════════════════════════════════════════════

func TestCourseworkHandler_Enroll(t *testing.T) {
	mock := &mockCourseworkService{enrollment: &dto.EnrollmentResponse{ClassID: "c1", StudentUID: "u0000001", Grade: "--"}}
	h := NewCourseworkHandler(mock)

	w, _ := serve(t, http.MethodPost, "/classes/:id/enrollments", "/classes/"+testClassID+"/enrollments",
		jsonBody(dto.EnrollRequest{StudentUID: "u0000001"}), h.Enroll)
	assert.Equal(t, http.StatusCreated, w.Code)

	mock.err = service.ErrAlreadyEnrolled
	w, env := serve(t, http.MethodPost, "/classes/:id/enrollments", "/classes/"+testClassID+"/enrollments",
		jsonBody(dto.EnrollRequest{StudentUID: "u0000001"}), h.Enroll)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 22007, env.Code)
}

func TestCourseworkHandler_CreateCategory_RequiresWeight(t *testing.T) {
	h := NewCourseworkHandler(&mockCourseworkService{})

	w, _ := serve(t, http.MethodPost, "/classes/:id/categories", "/classes/"+testClassID+"/categories",
		jsonBody(map[string]string{"name": "Exams"}), h.CreateCategory)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourseworkHandler_CreateAssignment(t *testing.T) {
	mock := &mockCourseworkService{assignment: &dto.AssignmentResponse{
		AssignmentID: "asg-1",
		Propagation:  &dto.PropagationReport{Total: 2, Updated: 2},
	}}
	h := NewCourseworkHandler(mock)

	w, env := serve(t, http.MethodPost, "/categories/:id/assignments", "/categories/"+testCategoryID+"/assignments",
		jsonBody(dto.CreateAssignmentRequest{Name: "Midterm"}), h.CreateAssignment)

	assert.Equal(t, http.StatusCreated, w.Code)
	var got dto.AssignmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.NotNil(t, got.Propagation)
	assert.Equal(t, 2, got.Propagation.Updated)
}

func TestCourseworkHandler_Submit_NotEnrolled(t *testing.T) {
	h := NewCourseworkHandler(&mockCourseworkService{err: service.ErrEnrollmentNotFound})

	w, env := serve(t, http.MethodPost, "/assignments/:id/submissions", "/assignments/"+testAssignmentID+"/submissions",
		jsonBody(dto.SubmitRequest{StudentUID: "u0000001", Contents: "x"}), h.Submit)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 22006, env.Code)
}

func TestCourseworkHandler_GradeSubmission(t *testing.T) {
	mock := &mockCourseworkService{score: &dto.ScoreResponse{Score: 70, Grade: "C-"}}
	h := NewCourseworkHandler(mock)

	w, env := serve(t, http.MethodPut, "/assignments/:id/submissions/:uid/score", "/assignments/"+testAssignmentID+"/submissions/u0000001/score",
		jsonBody(dto.ScoreRequest{Score: intPtr(70)}), h.GradeSubmission)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 70, mock.lastScore)
	var got dto.ScoreResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "C-", got.Grade)

	w, _ = serve(t, http.MethodPut, "/assignments/:id/submissions/:uid/score", "/assignments/"+testAssignmentID+"/submissions/u0000001/score",
		jsonBody(map[string]int{"score": -3}), h.GradeSubmission)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportGradebook_Success(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "成绩册_CS 3500 Fall 2024.xlsx"})

	w, _ := serve(t, http.MethodGet, "/classes/:id/gradebook", "/classes/"+testClassID+"/gradebook", nil, h.ExportGradebook)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "xlsx", w.Body.String())
}

func TestExportHandler_ExportGradebook_ClassNotFound(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrClassNotFound})

	w, env := serve(t, http.MethodGet, "/classes/:id/gradebook", "/classes/"+testClassID+"/gradebook", nil, h.ExportGradebook)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 23001, env.Code)
}

func intPtr(v int) *int { return &v }

// ── 路径参数校验 ──

func TestMalformedIDRejected(t *testing.T) {
	grade := NewGradeHandler(&mockGradeService{}, &mockPropagationService{}, &mockGPAService{})
	export := NewExportHandler(&mockExportService{})
	coursework := NewCourseworkHandler(&mockCourseworkService{})

	cases := []struct {
		name   string
		method string
		route  string
		path   string
		h      gin.HandlerFunc
	}{
		{"成绩", http.MethodGet, "/classes/:id/students/:uid/grade", "/classes/not-a-uuid/students/u0000001/grade", grade.GetGrade},
		{"全班重算", http.MethodPost, "/classes/:id/grades/recompute", "/classes/123/grades/recompute", grade.RecomputeClass},
		{"成绩册", http.MethodGet, "/classes/:id/gradebook", "/classes/c1/gradebook", export.ExportGradebook},
		{"作业提交", http.MethodPost, "/assignments/:id/submissions", "/assignments/asg-1/submissions", coursework.Submit},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w, env := serve(t, c.method, c.route, c.path, nil, c.h)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, 10001, env.Code)
		})
	}
}
