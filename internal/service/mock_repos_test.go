package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"lms-core/internal/model"
	"lms-core/internal/repository"
	pkgerrors "lms-core/pkg/errors"
)

// ── 共享内存存储 ──
// PropagateAll 并发访问，所有方法持锁

type mockStore struct {
	mu sync.Mutex

	users       map[string]*model.User
	courses     map[string]*model.Course
	offerings   map[string]*model.ClassOffering
	categories  map[string]*model.AssignmentCategory
	assignments map[string]*model.Assignment
	submissions map[string]*model.Submission // assignmentID/uid
	enrollments map[string]*model.Enrollment // classID/uid

	seq         int
	gradeWrites int

	// 故障注入
	listErr       error            // ListWithAssignments / ListStudentIDs / ListGradesByStudent
	updateErr     map[string]error // classID/uid → UpdateGrade 返回的错误
	conflictsLeft map[string]int   // classID/uid → 剩余强制版本冲突次数
}

func newMockStore() *mockStore {
	return &mockStore{
		users:         make(map[string]*model.User),
		courses:       make(map[string]*model.Course),
		offerings:     make(map[string]*model.ClassOffering),
		categories:    make(map[string]*model.AssignmentCategory),
		assignments:   make(map[string]*model.Assignment),
		submissions:   make(map[string]*model.Submission),
		enrollments:   make(map[string]*model.Enrollment),
		updateErr:     make(map[string]error),
		conflictsLeft: make(map[string]int),
	}
}

// newMockRepository 组装由 mockStore 支撑的 Repository，未绑定数据库连接
func newMockRepository() (*repository.Repository, *mockStore) {
	st := newMockStore()
	return &repository.Repository{
		User:          &mockUserRepo{st},
		Course:        &mockCourseRepo{st},
		ClassOffering: &mockClassOfferingRepo{st},
		Category:      &mockCategoryRepo{st},
		Assignment:    &mockAssignmentRepo{st},
		Submission:    &mockSubmissionRepo{st},
		Enrollment:    &mockEnrollmentRepo{st},
	}, st
}

func pairKey(a, b string) string { return a + "/" + b }

func intPtr(v int) *int { return &v }

func (st *mockStore) nextID(prefix string) string {
	st.seq++
	return fmt.Sprintf("%s-%03d", prefix, st.seq)
}

// ── 测试数据构造 ──

func (st *mockStore) addUser(uid, role string) {
	st.users[uid] = &model.User{UID: uid, FirstName: "F" + uid, LastName: "L" + uid, Role: role}
}

func (st *mockStore) addCourse(subject string, number int) string {
	id := st.nextID("course")
	st.courses[id] = &model.Course{CourseID: id, Subject: subject, Number: number, Name: fmt.Sprintf("%s %d", subject, number)}
	return id
}

func (st *mockStore) addOffering(courseID string, season model.Season, year int, location, start, end string) string {
	id := st.nextID("class")
	st.offerings[id] = &model.ClassOffering{
		ClassID: id, CourseID: courseID, Season: season, Year: year,
		Location: location, StartTime: start, EndTime: end, InstructorUID: "u9000001",
	}
	return id
}

func (st *mockStore) addCategory(classID, name string, weight int) string {
	id := st.nextID("cat")
	st.categories[id] = &model.AssignmentCategory{CategoryID: id, ClassID: classID, Name: name, Weight: weight}
	return id
}

func (st *mockStore) addAssignment(categoryID, name string, maxPoints *int) string {
	id := st.nextID("asg")
	st.assignments[id] = &model.Assignment{AssignmentID: id, CategoryID: categoryID, Name: name, MaxPoints: maxPoints}
	return id
}

func (st *mockStore) enroll(classID, uid string) {
	st.enrollments[pairKey(classID, uid)] = &model.Enrollment{
		StudentUID: uid, ClassID: classID, Grade: model.UngradedGrade,
	}
}

func (st *mockStore) setScore(assignmentID, uid string, score *int) {
	st.submissions[pairKey(assignmentID, uid)] = &model.Submission{
		AssignmentID: assignmentID, StudentUID: uid, SubmittedAt: time.Now(), Score: score,
	}
}

func (st *mockStore) gradeOf(classID, uid string) string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.enrollments[pairKey(classID, uid)].Grade
}

// ── Mock UserRepository ──

type mockUserRepo struct{ st *mockStore }

func (m *mockUserRepo) GetByUID(_ context.Context, uid string) (*model.User, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if u, ok := m.st.users[uid]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) FindInstructor(ctx context.Context, uid string) (*model.User, error) {
	u, err := m.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !u.IsInstructor() {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct{ st *mockStore }

func (m *mockCourseRepo) FindBySubjectAndNumber(_ context.Context, subject string, number int) (*model.Course, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, c := range m.st.courses {
		if c.Subject == subject && c.Number == number {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock ClassOfferingRepository ──

type mockClassOfferingRepo struct{ st *mockStore }

func (m *mockClassOfferingRepo) Create(_ context.Context, offering *model.ClassOffering) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if offering.ClassID == "" {
		offering.ClassID = m.st.nextID("class")
	}
	offering.CreatedAt = time.Now()
	cp := *offering
	m.st.offerings[offering.ClassID] = &cp
	return nil
}

func (m *mockClassOfferingRepo) GetByID(_ context.Context, id string) (*model.ClassOffering, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	o, ok := m.st.offerings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	if c, ok := m.st.courses[o.CourseID]; ok {
		course := *c
		cp.Course = &course
	}
	return &cp, nil
}

func (m *mockClassOfferingRepo) ListByCourseAndSemester(_ context.Context, courseID string, season model.Season, year int) ([]model.ClassOffering, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.ClassOffering
	for _, o := range m.st.offerings {
		if o.CourseID == courseID && o.Season == season && o.Year == year {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (m *mockClassOfferingRepo) ListByLocationAndSemester(_ context.Context, location string, season model.Season, year int) ([]model.ClassOffering, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.ClassOffering
	for _, o := range m.st.offerings {
		if o.Location == location && o.Season == season && o.Year == year {
			result = append(result, *o)
		}
	}
	return result, nil
}

// ── Mock AssignmentCategoryRepository ──

type mockCategoryRepo struct{ st *mockStore }

func (m *mockCategoryRepo) Create(_ context.Context, category *model.AssignmentCategory) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	category.CategoryID = m.st.nextID("cat")
	cp := *category
	m.st.categories[category.CategoryID] = &cp
	return nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id string) (*model.AssignmentCategory, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if c, ok := m.st.categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCategoryRepo) GetByClassAndName(_ context.Context, classID, name string) (*model.AssignmentCategory, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, c := range m.st.categories {
		if c.ClassID == classID && c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCategoryRepo) ListWithAssignments(_ context.Context, classID string) ([]model.AssignmentCategory, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if m.st.listErr != nil {
		return nil, m.st.listErr
	}
	var result []model.AssignmentCategory
	for _, c := range m.st.categories {
		if c.ClassID != classID {
			continue
		}
		cp := *c
		cp.Assignments = nil
		for _, a := range m.st.assignments {
			if a.CategoryID == c.CategoryID {
				cp.Assignments = append(cp.Assignments, *a)
			}
		}
		sort.Slice(cp.Assignments, func(i, j int) bool { return cp.Assignments[i].AssignmentID < cp.Assignments[j].AssignmentID })
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CategoryID < result[j].CategoryID })
	return result, nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct{ st *mockStore }

func (m *mockAssignmentRepo) Create(_ context.Context, assignment *model.Assignment) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	assignment.AssignmentID = m.st.nextID("asg")
	cp := *assignment
	m.st.assignments[assignment.AssignmentID] = &cp
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	a, ok := m.st.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	if c, ok := m.st.categories[a.CategoryID]; ok {
		cat := *c
		cp.Category = &cat
	}
	return &cp, nil
}

func (m *mockAssignmentRepo) GetByCategoryAndName(_ context.Context, categoryID, name string) (*model.Assignment, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, a := range m.st.assignments {
		if a.CategoryID == categoryID && a.Name == name {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock SubmissionRepository ──

type mockSubmissionRepo struct{ st *mockStore }

func (m *mockSubmissionRepo) Get(_ context.Context, assignmentID, studentUID string) (*model.Submission, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if s, ok := m.st.submissions[pairKey(assignmentID, studentUID)]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubmissionRepo) GetScore(ctx context.Context, assignmentID, studentUID string) (*int, error) {
	s, err := m.Get(ctx, assignmentID, studentUID)
	if err != nil {
		return nil, nil
	}
	return s.Score, nil
}

func (m *mockSubmissionRepo) SaveContents(_ context.Context, submission *model.Submission) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	key := pairKey(submission.AssignmentID, submission.StudentUID)
	if existing, ok := m.st.submissions[key]; ok {
		existing.Contents = submission.Contents
		existing.SubmittedAt = submission.SubmittedAt
		return nil
	}
	cp := *submission
	cp.Score = nil
	m.st.submissions[key] = &cp
	return nil
}

func (m *mockSubmissionRepo) UpdateScore(_ context.Context, assignmentID, studentUID string, score int) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	s, ok := m.st.submissions[pairKey(assignmentID, studentUID)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Score = &score
	return nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct{ st *mockStore }

func (m *mockEnrollmentRepo) Create(_ context.Context, enrollment *model.Enrollment) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	cp := *enrollment
	m.st.enrollments[pairKey(enrollment.ClassID, enrollment.StudentUID)] = &cp
	return nil
}

func (m *mockEnrollmentRepo) Get(_ context.Context, classID, studentUID string) (*model.Enrollment, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if e, ok := m.st.enrollments[pairKey(classID, studentUID)]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) ListByClass(_ context.Context, classID string) ([]model.Enrollment, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Enrollment
	for _, e := range m.st.enrollments {
		if e.ClassID == classID {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentUID < result[j].StudentUID })
	return result, nil
}

func (m *mockEnrollmentRepo) ListStudentIDs(ctx context.Context, classID string) ([]string, error) {
	m.st.mu.Lock()
	listErr := m.st.listErr
	m.st.mu.Unlock()
	if listErr != nil {
		return nil, listErr
	}
	enrollments, _ := m.ListByClass(ctx, classID)
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.StudentUID)
	}
	return ids, nil
}

func (m *mockEnrollmentRepo) ListGradesByStudent(_ context.Context, studentUID string) ([]string, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if m.st.listErr != nil {
		return nil, m.st.listErr
	}
	var grades []string
	for _, e := range m.st.enrollments {
		if e.StudentUID == studentUID {
			grades = append(grades, e.Grade)
		}
	}
	return grades, nil
}

func (m *mockEnrollmentRepo) UpdateGrade(_ context.Context, classID, studentUID, grade string, version int) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	key := pairKey(classID, studentUID)
	if err := m.st.updateErr[key]; err != nil {
		return err
	}
	e, ok := m.st.enrollments[key]
	if !ok {
		return pkgerrors.ErrOptimisticLock
	}
	// 模拟并发写入：先被别人改掉版本
	if m.st.conflictsLeft[key] > 0 {
		m.st.conflictsLeft[key]--
		e.Version++
	}
	if e.Version != version {
		return pkgerrors.ErrOptimisticLock
	}
	e.Grade = grade
	e.Version++
	m.st.gradeWrites++
	return nil
}

// ── Mock GPACache ──

type mockGPACache struct {
	mu      sync.Mutex
	entries map[string]float64
	gens    map[string]int64
	sets    int
	// beforeSet 在回填写入前执行，用于模拟计算期间发生的成绩写入
	beforeSet func(studentID string)
}

func newMockGPACache() *mockGPACache {
	return &mockGPACache{entries: make(map[string]float64), gens: make(map[string]int64)}
}

func (c *mockGPACache) GetGPA(_ context.Context, studentID string) (float64, bool, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[studentID]
	return v, ok, c.gens[studentID], nil
}

func (c *mockGPACache) SetGPA(_ context.Context, studentID string, gpa float64, gen int64, _ time.Duration) (bool, error) {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook(studentID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[studentID] != gen {
		return false, nil
	}
	c.entries[studentID] = gpa
	c.sets++
	return true, nil
}

func (c *mockGPACache) InvalidateGPA(_ context.Context, studentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[studentID]++
	delete(c.entries, studentID)
	return nil
}
