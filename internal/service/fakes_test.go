package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/bit-fotutors/classroom-api/internal/models"
	"github.com/bit-fotutors/classroom-api/internal/notify"
	"github.com/bit-fotutors/classroom-api/internal/repository"
)

// In-memory fakes shared by the service tests. They implement the same
// semantics the sqlx repositories promise, without a database.

type fakeTeacherRepo struct {
	teachers map[string]*models.Teacher
	payments map[string]*models.SaaSPayment
}

func newFakeTeacherRepo(teachers ...*models.Teacher) *fakeTeacherRepo {
	repo := &fakeTeacherRepo{
		teachers: make(map[string]*models.Teacher),
		payments: make(map[string]*models.SaaSPayment),
	}
	for _, t := range teachers {
		repo.teachers[t.ID] = t
	}
	return repo
}

func (f *fakeTeacherRepo) Create(_ context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = "teacher-generated"
	}
	f.teachers[teacher.ID] = teacher
	return nil
}

func (f *fakeTeacherRepo) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	if t, ok := f.teachers[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTeacherRepo) FindByExternalID(_ context.Context, externalID string) (*models.Teacher, error) {
	for _, t := range f.teachers {
		if t.ExternalID == externalID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTeacherRepo) CreateSaaSPayment(_ context.Context, payment *models.SaaSPayment) error {
	if payment.ID == "" {
		payment.ID = "pay-generated"
	}
	f.payments[payment.ProviderPaymentID] = payment
	return nil
}

func (f *fakeTeacherRepo) ConfirmSubscription(_ context.Context, providerPaymentID string, periodDays int, now time.Time) (*models.Teacher, error) {
	payment, ok := f.payments[providerPaymentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if payment.Status != models.SaaSPaymentPending {
		return nil, repository.ErrPaymentAlreadySettled
	}
	payment.Status = models.SaaSPaymentSucceeded

	teacher := f.teachers[payment.TeacherID]
	endDate := models.ExtendSubscription(teacher.SubscriptionEndDate, now, periodDays)
	teacher.SubscriptionPlan = models.PlanPro
	teacher.SubscriptionEndDate = &endDate
	copied := *teacher
	return &copied, nil
}

type fakeStudentRepo struct {
	students map[string]*models.Student
}

func newFakeStudentRepo(students ...*models.Student) *fakeStudentRepo {
	repo := &fakeStudentRepo{students: make(map[string]*models.Student)}
	for _, s := range students {
		repo.students[s.ID] = s
	}
	return repo
}

func (f *fakeStudentRepo) CreateWithQuota(ctx context.Context, student *models.Student, limit int) error {
	count, _ := f.CountByTeacher(ctx, student.TeacherID)
	if count >= limit {
		return repository.ErrQuotaExceeded
	}
	if student.ID == "" {
		student.ID = "student-generated"
	}
	f.students[student.ID] = student
	return nil
}

func (f *fakeStudentRepo) FindByID(_ context.Context, id string) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) FindByExternalID(_ context.Context, externalID string) (*models.Student, error) {
	for _, s := range f.students {
		if s.ExternalID != nil && *s.ExternalID == externalID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) ListByTeacher(_ context.Context, teacherID string) ([]models.Student, error) {
	out := make([]models.Student, 0)
	for _, s := range f.students {
		if s.TeacherID == teacherID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) CountByTeacher(_ context.Context, teacherID string) (int, error) {
	count := 0
	for _, s := range f.students {
		if s.TeacherID == teacherID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStudentRepo) AttachExternalID(_ context.Context, id, externalID string) error {
	s, ok := f.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.ExternalID = &externalID
	return nil
}

type fakeGroupRepo struct {
	groups  map[string]*models.Group
	members map[string][]string
	byID    func(id string) *models.Student
}

func newFakeGroupRepo(students *fakeStudentRepo, groups ...*models.Group) *fakeGroupRepo {
	repo := &fakeGroupRepo{
		groups:  make(map[string]*models.Group),
		members: make(map[string][]string),
	}
	for _, g := range groups {
		repo.groups[g.ID] = g
	}
	if students != nil {
		repo.byID = func(id string) *models.Student { return students.students[id] }
	}
	return repo
}

func (f *fakeGroupRepo) CreateWithQuota(_ context.Context, group *models.Group, limit int) error {
	count := 0
	for _, g := range f.groups {
		if g.TeacherID == group.TeacherID {
			count++
		}
	}
	if count >= limit {
		return repository.ErrQuotaExceeded
	}
	if group.ID == "" {
		group.ID = "group-generated"
	}
	f.groups[group.ID] = group
	return nil
}

func (f *fakeGroupRepo) FindByID(_ context.Context, id string) (*models.Group, error) {
	if g, ok := f.groups[id]; ok {
		copied := *g
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeGroupRepo) ListByTeacher(_ context.Context, teacherID string) ([]models.GroupDetail, error) {
	out := make([]models.GroupDetail, 0)
	for _, g := range f.groups {
		if g.TeacherID == teacherID {
			out = append(out, models.GroupDetail{Group: *g, MemberCount: len(f.members[g.ID])})
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) CountByTeacher(_ context.Context, teacherID string) (int, error) {
	count := 0
	for _, g := range f.groups {
		if g.TeacherID == teacherID {
			count++
		}
	}
	return count, nil
}

func (f *fakeGroupRepo) IsMember(_ context.Context, groupID, studentID string) (bool, error) {
	for _, id := range f.members[groupID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGroupRepo) AddMember(_ context.Context, groupID, studentID string) error {
	f.members[groupID] = append(f.members[groupID], studentID)
	return nil
}

func (f *fakeGroupRepo) RemoveMember(_ context.Context, groupID, studentID string) error {
	current := f.members[groupID]
	for i, id := range current {
		if id == studentID {
			f.members[groupID] = append(current[:i], current[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeGroupRepo) ListMembers(_ context.Context, groupID string) ([]models.Student, error) {
	out := make([]models.Student, 0)
	for _, id := range f.members[groupID] {
		if f.byID != nil {
			if s := f.byID(id); s != nil {
				out = append(out, *s)
				continue
			}
		}
		out = append(out, models.Student{ID: id})
	}
	return out, nil
}

type fakeHomeworkRepo struct {
	homeworks map[string]*models.Homework
}

func newFakeHomeworkRepo(homeworks ...*models.Homework) *fakeHomeworkRepo {
	repo := &fakeHomeworkRepo{homeworks: make(map[string]*models.Homework)}
	for _, h := range homeworks {
		repo.homeworks[h.ID] = h
	}
	return repo
}

func (f *fakeHomeworkRepo) Create(_ context.Context, homework *models.Homework) error {
	if homework.ID == "" {
		homework.ID = "hw-generated"
	}
	f.homeworks[homework.ID] = homework
	return nil
}

func (f *fakeHomeworkRepo) FindByID(_ context.Context, id string) (*models.Homework, error) {
	if h, ok := f.homeworks[id]; ok {
		copied := *h
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeHomeworkRepo) ListByTeacher(_ context.Context, teacherID string, libraryOnly bool) ([]models.Homework, error) {
	out := make([]models.Homework, 0)
	for _, h := range f.homeworks {
		if h.TeacherID != teacherID {
			continue
		}
		if libraryOnly && !h.SavedInLibrary {
			continue
		}
		out = append(out, *h)
	}
	return out, nil
}

type fakeAssignmentRepo struct {
	assignments map[string]*models.HomeworkAssignment
	fanOut      map[string][]string
	details     map[string]*models.AssignmentDetail
	board       []models.SubmissionStatusRow
	createErr   error
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{
		assignments: make(map[string]*models.HomeworkAssignment),
		fanOut:      make(map[string][]string),
		details:     make(map[string]*models.AssignmentDetail),
	}
}

func (f *fakeAssignmentRepo) CreateWithSubmissions(_ context.Context, assignment *models.HomeworkAssignment, studentIDs []string) error {
	if f.createErr != nil {
		return f.createErr
	}
	if assignment.ID == "" {
		assignment.ID = "assignment-generated"
	}
	f.assignments[assignment.ID] = assignment
	f.fanOut[assignment.ID] = studentIDs
	return nil
}

func (f *fakeAssignmentRepo) FindDetail(_ context.Context, id string) (*models.AssignmentDetail, error) {
	if d, ok := f.details[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAssignmentRepo) ListByTeacher(_ context.Context, teacherID string) ([]models.AssignmentDetail, error) {
	out := make([]models.AssignmentDetail, 0)
	for _, d := range f.details {
		if d.TeacherID == teacherID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) StatusBoard(_ context.Context, _ string) ([]models.SubmissionStatusRow, error) {
	return f.board, nil
}

type fakeSubmissionRepo struct {
	details map[string]*models.SubmissionDetail
	graded  map[string][]models.GradedEntry
}

func newFakeSubmissionRepo(details ...*models.SubmissionDetail) *fakeSubmissionRepo {
	repo := &fakeSubmissionRepo{
		details: make(map[string]*models.SubmissionDetail),
		graded:  make(map[string][]models.GradedEntry),
	}
	for _, d := range details {
		repo.details[d.ID] = d
	}
	return repo
}

func (f *fakeSubmissionRepo) FindDetail(_ context.Context, id string) (*models.SubmissionDetail, error) {
	if d, ok := f.details[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSubmissionRepo) MarkSubmitted(_ context.Context, id string, filePath *string, content *string, submittedAt time.Time) error {
	d, ok := f.details[id]
	if !ok {
		return sql.ErrNoRows
	}
	d.Status = models.SubmissionSubmitted
	d.FilePath = filePath
	d.Content = content
	d.SubmittedAt = &submittedAt
	return nil
}

func (f *fakeSubmissionRepo) SetGrade(_ context.Context, id string, score int, percent *int, comment *string) error {
	d, ok := f.details[id]
	if !ok {
		return sql.ErrNoRows
	}
	d.Status = models.SubmissionGraded
	d.ScoreValue = &score
	d.ScorePercent = percent
	d.TeacherComment = comment
	return nil
}

func (f *fakeSubmissionRepo) ListByStudent(_ context.Context, studentID string) ([]models.SubmissionDetail, error) {
	out := make([]models.SubmissionDetail, 0)
	for _, d := range f.details {
		if d.StudentID == studentID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) ListRecentGraded(_ context.Context, studentID string, _ int) ([]models.GradedEntry, error) {
	return f.graded[studentID], nil
}

type fakePaymentRepo struct {
	payments []models.StudentPayment
	balances map[string]int
}

func newFakePaymentRepo(balances map[string]int) *fakePaymentRepo {
	if balances == nil {
		balances = make(map[string]int)
	}
	return &fakePaymentRepo{balances: balances}
}

func (f *fakePaymentRepo) CreateStudentPayment(_ context.Context, payment *models.StudentPayment) (int, error) {
	if payment.ID == "" {
		payment.ID = "payment-generated"
	}
	f.payments = append(f.payments, *payment)
	f.balances[payment.StudentID] += payment.LessonsAdded
	return f.balances[payment.StudentID], nil
}

func (f *fakePaymentRepo) ListByTeacher(_ context.Context, teacherID string) ([]models.StudentPayment, error) {
	out := make([]models.StudentPayment, 0)
	for _, p := range f.payments {
		if p.TeacherID == teacherID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeParentRepo struct {
	parents  map[string]*models.Parent
	links    map[string][]string
	children map[string][]models.ChildOverview
}

func newFakeParentRepo(parents ...*models.Parent) *fakeParentRepo {
	repo := &fakeParentRepo{
		parents:  make(map[string]*models.Parent),
		links:    make(map[string][]string),
		children: make(map[string][]models.ChildOverview),
	}
	for _, p := range parents {
		repo.parents[p.ID] = p
	}
	return repo
}

func (f *fakeParentRepo) Create(_ context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = "parent-generated"
	}
	f.parents[parent.ID] = parent
	return nil
}

func (f *fakeParentRepo) FindByExternalID(_ context.Context, externalID string) (*models.Parent, error) {
	for _, p := range f.parents {
		if p.ExternalID == externalID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeParentRepo) LinkExists(_ context.Context, parentID, studentID string) (bool, error) {
	for _, id := range f.links[parentID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeParentRepo) CreateLink(_ context.Context, parentID, studentID string) error {
	f.links[parentID] = append(f.links[parentID], studentID)
	return nil
}

func (f *fakeParentRepo) ListChildren(_ context.Context, parentID string) ([]models.ChildOverview, error) {
	return f.children[parentID], nil
}

type fakeLessonRepo struct {
	lessons map[string]*models.Lesson
}

func newFakeLessonRepo(lessons ...*models.Lesson) *fakeLessonRepo {
	repo := &fakeLessonRepo{lessons: make(map[string]*models.Lesson)}
	for _, l := range lessons {
		repo.lessons[l.ID] = l
	}
	return repo
}

func (f *fakeLessonRepo) Create(_ context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = "lesson-generated"
	}
	f.lessons[lesson.ID] = lesson
	return nil
}

func (f *fakeLessonRepo) FindByID(_ context.Context, id string) (*models.Lesson, error) {
	if l, ok := f.lessons[id]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLessonRepo) ListUpcoming(_ context.Context, teacherID string, from time.Time) ([]models.Lesson, error) {
	out := make([]models.Lesson, 0)
	for _, l := range f.lessons {
		if l.TeacherID == teacherID && !l.StartTime.Before(from) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLessonRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.lessons[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.lessons, id)
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (f *fakeNotifier) Notify(msg notify.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakeNotifier) sent() []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notify.Message, len(f.messages))
	copy(out, f.messages)
	return out
}
