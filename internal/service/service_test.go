package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testgen_backend/internal/config"
	"testgen_backend/internal/model"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/testutil"
	"testgen_backend/internal/util"
	"testing"
	"time"

	"gorm.io/gorm"
)

type services struct {
	db          *gorm.DB
	audit       *AuditService
	auth        *AuthService
	users       *UserService
	roles       *RoleService
	groups      *GroupService
	documents   *DocumentService
	questions   *QuestionService
	moodle      *MoodleService
	tests       *TestService
	assignments *AssignmentService
	sessions    *SessionService
	stats       *StatsService
	seed        *SeedService
	storageDir  string
}

type failingQueue struct{}

func (failingQueue) Enqueue(ctx context.Context, task GenerationTask) error {
	return errors.New("broker down")
}

func newServices(t *testing.T, queue GenerationQueue) *services {
	t.Helper()
	db := testutil.DB(t)

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	testRepo := repository.NewTestRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	s := &services{db: db, storageDir: t.TempDir()}
	s.audit = NewAuditService(repository.NewAuditRepository(db))
	s.auth = NewAuthService(userRepo, util.PlainIssuer{})
	s.users = NewUserService(userRepo, roleRepo, groupRepo, s.audit)
	s.roles = NewRoleService(roleRepo, s.audit)
	s.groups = NewGroupService(groupRepo, userRepo, s.audit)
	storage := &StorageService{Provider: &LocalStorageProvider{Config: &config.StorageConfig{LocalPath: s.storageDir}}}
	s.documents = NewDocumentService(docRepo, storage, queue, s.audit, 1)
	s.questions = NewQuestionService(questionRepo, s.audit)
	s.moodle = NewMoodleService(questionRepo, s.audit)
	s.tests = NewTestService(testRepo, questionRepo, s.audit)
	s.assignments = NewAssignmentService(assignmentRepo, testRepo, userRepo, groupRepo, s.audit)
	s.sessions = NewSessionService(sessionRepo, testRepo, questionRepo, assignmentRepo, s.assignments, s.audit)
	s.stats = NewStatsService(repository.NewStatsRepository(db))
	s.seed = NewSeedService(s.users, s.roles, s.groups)
	return s
}

func caller(u *model.User, roles ...string) *util.CurrentUser {
	return &util.CurrentUser{ID: u.ID, Email: u.Email, Roles: roles}
}

func TestLoginAndAuthenticatePlain(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	user := testutil.SeedUser(t, s.db, "alice_smith@example.com", model.RoleStudent)

	res, err := s.auth.Login(ctx, "  alice_smith@example.com ")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.TokenType != "bearer" {
		t.Fatalf("expected bearer token type, got %s", res.TokenType)
	}
	if len(res.User.Roles) != 1 || res.User.Roles[0] != model.RoleStudent {
		t.Fatalf("unexpected roles %v", res.User.Roles)
	}

	current, err := s.auth.Authenticate(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if current.ID != user.ID || current.Email != user.Email {
		t.Fatalf("unexpected identity %+v", current)
	}

	if _, err := s.auth.Login(ctx, "nobody@example.com"); !errors.Is(err, util.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for unknown email, got %v", err)
	}
	forged := "user_" + "999" + "_alice_smith@example.com"
	if _, err := s.auth.Authenticate(ctx, forged); !errors.Is(err, util.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for unknown id, got %v", err)
	}
	mismatch := strings.Replace(res.AccessToken, "alice_smith", "bob", 1)
	if _, err := s.auth.Authenticate(ctx, mismatch); !errors.Is(err, util.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for email mismatch, got %v", err)
	}
}

func TestInactiveUserRejected(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	user := testutil.SeedUser(t, s.db, "carol@example.com")

	res, err := s.auth.Login(ctx, user.Email)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := s.users.SetActive(ctx, user.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := s.auth.Login(ctx, user.Email); !errors.Is(err, util.ErrUnauthenticated) {
		t.Fatalf("expected inactive login to fail, got %v", err)
	}
	if _, err := s.auth.Authenticate(ctx, res.AccessToken); !errors.Is(err, util.ErrUnauthenticated) {
		t.Fatalf("expected issued token to stop working, got %v", err)
	}
}

func TestAuthenticateJWT(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	s.auth.Issuer = NewCredentialIssuer(&config.AuthConfig{
		Scheme:     "jwt",
		Secret:     "0123456789abcdef0123456789abcdef",
		ExpireTime: time.Hour,
	})
	user := testutil.SeedUser(t, s.db, "dave@example.com", model.RoleTeacher)

	res, err := s.auth.Login(ctx, user.Email)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	current, err := s.auth.Authenticate(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !current.IsStaff() {
		t.Fatalf("teacher should be staff")
	}

	other := util.NewJWTIssuer("ffffffffffffffffffffffffffffffff", time.Hour)
	token, _ := other.Issue(user)
	if _, err := s.auth.Authenticate(ctx, token); !errors.Is(err, util.ErrUnauthenticated) {
		t.Fatalf("expected foreign signature to be rejected, got %v", err)
	}
	if _, err := s.auth.Authenticate(ctx, "user_1_dave@example.com"); !errors.Is(err, util.ErrUnauthenticated) {
		t.Fatalf("expected plain credential to be rejected in jwt mode, got %v", err)
	}
}

func TestCreateUserAssignsRoles(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()

	view, err := s.users.Create(ctx, &CreateUserRequest{
		Email: "erin@example.com", FullName: "Erin", Password: "secret1",
		Roles: []string{model.RoleTeacher},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(view.Roles) != 1 || view.Roles[0] != model.RoleTeacher {
		t.Fatalf("unexpected roles %v", view.Roles)
	}
	var stored model.User
	s.db.First(&stored, view.ID)
	if stored.PasswordHash == "" || stored.PasswordHash == "secret1" {
		t.Fatalf("password must be stored hashed")
	}

	_, err = s.users.Create(ctx, &CreateUserRequest{Email: "erin@example.com", FullName: "Erin", Password: "secret1"})
	if !errors.Is(err, util.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}
	_, err = s.users.Create(ctx, &CreateUserRequest{Email: "x@example.com", FullName: "X", Password: "secret1", Roles: []string{"wizard"}})
	if !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown role, got %v", err)
	}

	dup, err := s.users.Create(ctx, &CreateUserRequest{
		Email: "dup@example.com", FullName: "Dup", Password: "secret1",
		Roles: []string{model.RoleStudent, model.RoleStudent},
	})
	if err != nil {
		t.Fatalf("repeated role names should collapse: %v", err)
	}
	if len(dup.Roles) != 1 || dup.Roles[0] != model.RoleStudent {
		t.Fatalf("unexpected roles %v", dup.Roles)
	}
	var count int64
	s.db.Model(&model.UserRole{}).Where("user_id = ?", dup.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected one role row, got %d", count)
	}
}

func TestQuestionOptionValidation(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	teacher := testutil.SeedUser(t, s.db, "t@example.com", model.RoleTeacher)

	six := make([]AnswerOptionRequest, 6)
	for i := range six {
		six[i] = AnswerOptionRequest{AnswerText: "x"}
	}
	_, err := s.questions.Create(ctx, &QuestionRequest{QuestionText: "Q", AnswerOptions: six}, teacher.ID)
	if !errors.Is(err, util.ErrValidation) || !strings.Contains(err.Error(), util.ErrTooManyOptions.Error()) {
		t.Fatalf("expected too many options, got %v", err)
	}

	dup := []AnswerOptionRequest{{AnswerText: "a", OptionOrder: 2}, {AnswerText: "b", OptionOrder: 2}}
	if _, err := s.questions.Create(ctx, &QuestionRequest{QuestionText: "Q", AnswerOptions: dup}, teacher.ID); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected duplicate order rejected, got %v", err)
	}

	bad := "impossible"
	if _, err := s.questions.Create(ctx, &QuestionRequest{QuestionText: "Q", Difficulty: &bad}, teacher.ID); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected unknown difficulty rejected, got %v", err)
	}

	q, err := s.questions.Create(ctx, &QuestionRequest{
		QuestionText: "  2 + 2 = ?  ",
		AnswerOptions: []AnswerOptionRequest{
			{AnswerText: "3"},
			{AnswerText: "4", IsCorrect: true},
		},
	}, teacher.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if q.QuestionText != "2 + 2 = ?" {
		t.Fatalf("question text not trimmed: %q", q.QuestionText)
	}
	if q.AnswerOptions[0].OptionOrder != 1 || q.AnswerOptions[1].OptionOrder != 2 {
		t.Fatalf("options should be numbered by position")
	}
	if q.DefaultGrade != model.DefaultGrade || !q.ShuffleAnswers || q.IsApproved {
		t.Fatalf("unexpected defaults %+v", q)
	}
}

func TestApproveIsIdempotent(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	teacher := testutil.SeedUser(t, s.db, "t@example.com", model.RoleTeacher)
	other := testutil.SeedUser(t, s.db, "o@example.com", model.RoleTeacher)
	q := testutil.SeedQuestion(t, s.db, teacher.ID, 2, 1, false)

	approved, err := s.questions.Approve(ctx, q.ID, teacher.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !approved.IsApproved || approved.ApprovedBy == nil || *approved.ApprovedBy != teacher.ID {
		t.Fatalf("unexpected approval %+v", approved)
	}

	again, err := s.questions.Approve(ctx, q.ID, other.ID)
	if err != nil {
		t.Fatalf("approve again: %v", err)
	}
	if *again.ApprovedBy != teacher.ID {
		t.Fatalf("second approve should not change approver")
	}

	if _, err := s.questions.Approve(ctx, 9999, teacher.ID); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTestQuestionsHideAnswers(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	teacher := testutil.SeedUser(t, s.db, "t@example.com", model.RoleTeacher)
	q1 := testutil.SeedQuestion(t, s.db, teacher.ID, 3, 2, true)
	q2 := testutil.SeedQuestion(t, s.db, teacher.ID, 2, 1, true)

	view, err := s.tests.Create(ctx, &TestRequest{Title: "  Midterm "}, teacher.ID)
	if err != nil {
		t.Fatalf("create test: %v", err)
	}
	if view.Title != "Midterm" || view.PassingScore != model.DefaultPassingScore || !view.IsActive || view.ShowCorrectAnswers {
		t.Fatalf("unexpected defaults %+v", view.Test)
	}

	first, err := s.tests.AddQuestion(ctx, view.ID, &TestQuestionRequest{QuestionID: q1.ID})
	if err != nil {
		t.Fatalf("add q1: %v", err)
	}
	second, err := s.tests.AddQuestion(ctx, view.ID, &TestQuestionRequest{QuestionID: q2.ID})
	if err != nil {
		t.Fatalf("add q2: %v", err)
	}
	if first.QuestionOrder != 1 || second.QuestionOrder != 2 {
		t.Fatalf("expected appended order 1,2, got %d,%d", first.QuestionOrder, second.QuestionOrder)
	}
	if _, err := s.tests.AddQuestion(ctx, view.ID, &TestQuestionRequest{QuestionID: q1.ID}); !errors.Is(err, util.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate question, got %v", err)
	}

	qs, err := s.tests.Questions(ctx, view.ID)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if qs.TotalQuestions != 2 || qs.Questions[0].ID != q1.ID {
		t.Fatalf("unexpected composition %+v", qs)
	}
	for _, item := range qs.Questions {
		for _, a := range item.Answers {
			if a.IsCorrect != nil {
				t.Fatalf("correct answers must be hidden")
			}
		}
	}

	s.db.Model(&model.Test{}).Where("id = ?", view.ID).Update("show_correct_answers", true)
	qs, err = s.tests.Questions(ctx, view.ID)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if qs.Questions[0].Answers[1].IsCorrect == nil || !*qs.Questions[0].Answers[1].IsCorrect {
		t.Fatalf("correct answer should be shown")
	}

	if err := s.tests.RemoveQuestion(ctx, view.ID, q1.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.tests.RemoveQuestion(ctx, view.ID, q1.ID); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestAssignmentTargetsAndComplete(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	teacher := testutil.SeedUser(t, s.db, "t@example.com", model.RoleTeacher)
	member := testutil.SeedUser(t, s.db, "m@example.com", model.RoleStudent)
	outsider := testutil.SeedUser(t, s.db, "x@example.com", model.RoleStudent)
	group := testutil.SeedGroup(t, s.db, "class-a", member)
	test := testutil.SeedTest(t, s.db, teacher.ID)

	if _, err := s.assignments.Create(ctx, test.ID, &AssignmentRequest{}, teacher.ID); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected ErrValidation without a target, got %v", err)
	}
	missing := uint(9999)
	if _, err := s.assignments.Create(ctx, test.ID, &AssignmentRequest{UserID: &missing}, teacher.ID); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}

	a, err := s.assignments.Create(ctx, test.ID, &AssignmentRequest{GroupID: &group.ID}, teacher.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.AssignedBy == nil || *a.AssignedBy != teacher.ID {
		t.Fatalf("assigner not recorded")
	}

	mine, total, err := s.assignments.ListMine(ctx, member.ID, 100, 0)
	if err != nil || total != 1 || len(mine) != 1 {
		t.Fatalf("member should see the group assignment: %v %d", err, total)
	}
	if _, total, _ := s.assignments.ListMine(ctx, outsider.ID, 100, 0); total != 0 {
		t.Fatalf("outsider should see nothing, got %d", total)
	}

	if _, err := s.assignments.Complete(ctx, a.ID, caller(outsider, model.RoleStudent)); !errors.Is(err, util.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for outsider, got %v", err)
	}
	if _, err := s.assignments.Complete(ctx, a.ID, caller(member, model.RoleStudent)); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("member must not close a group assignment, got %v", err)
	}
	done, err := s.assignments.Complete(ctx, a.ID, caller(teacher, model.RoleTeacher))
	if err != nil || !done.IsCompleted {
		t.Fatalf("teacher complete: %v", err)
	}
	if _, err := s.assignments.Complete(ctx, a.ID, caller(teacher, model.RoleTeacher)); err != nil {
		t.Fatalf("complete twice should succeed: %v", err)
	}

	direct, err := s.assignments.Create(ctx, test.ID, &AssignmentRequest{UserID: &member.ID}, teacher.ID)
	if err != nil {
		t.Fatalf("create direct: %v", err)
	}
	done, err = s.assignments.Complete(ctx, direct.ID, caller(member, model.RoleStudent))
	if err != nil || !done.IsCompleted {
		t.Fatalf("assignee complete: %v", err)
	}
}

func TestGroupAssignmentCompletesPerMember(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	teacher := testutil.SeedUser(t, s.db, "t@example.com", model.RoleTeacher)
	alice := testutil.SeedUser(t, s.db, "alice@example.com", model.RoleStudent)
	bob := testutil.SeedUser(t, s.db, "bob@example.com", model.RoleStudent)
	group := testutil.SeedGroup(t, s.db, "class-b", alice, bob)
	q := testutil.SeedQuestion(t, s.db, teacher.ID, 3, 1, true)
	test := testutil.SeedTest(t, s.db, teacher.ID, q)

	a, err := s.assignments.Create(ctx, test.ID, &AssignmentRequest{GroupID: &group.ID}, teacher.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	session, err := s.sessions.Start(ctx, test.ID, alice.ID, &StartSessionRequest{AssignmentID: &a.ID})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.sessions.Complete(ctx, session.ID, alice.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	stored, err := s.assignments.AssignmentRepo.FindByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.IsCompleted {
		t.Fatalf("group assignment row must stay open after one member finishes")
	}

	mine, _, err := s.assignments.ListMine(ctx, alice.ID, 100, 0)
	if err != nil || len(mine) != 1 || !mine[0].IsCompleted {
		t.Fatalf("alice should see her assignment completed: %v %+v", err, mine)
	}
	theirs, _, err := s.assignments.ListMine(ctx, bob.ID, 100, 0)
	if err != nil || len(theirs) != 1 || theirs[0].IsCompleted {
		t.Fatalf("bob never started, assignment should be open: %v %+v", err, theirs)
	}
}

func TestSessionScoring(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	teacher := testutil.SeedUser(t, s.db, "t@example.com", model.RoleTeacher)
	student := testutil.SeedUser(t, s.db, "s@example.com", model.RoleStudent)
	q1 := testutil.SeedQuestion(t, s.db, teacher.ID, 3, 1, true)
	q2 := testutil.SeedQuestion(t, s.db, teacher.ID, 3, 2, true)
	test := testutil.SeedTest(t, s.db, teacher.ID, q1, q2)
	a, err := s.assignments.Create(ctx, test.ID, &AssignmentRequest{UserID: &student.ID}, teacher.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.sessions.now = func() time.Time { return start }
	session, err := s.sessions.Start(ctx, test.ID, student.ID, &StartSessionRequest{AssignmentID: &a.ID})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.Status != model.SessionInProgress || session.TotalQuestions != 2 {
		t.Fatalf("unexpected session %+v", session)
	}

	if _, err := s.sessions.Answer(ctx, session.ID, student.ID, &AnswerRequest{QuestionID: q1.ID, SelectedOptionID: testutil.CorrectOption(t, q1).ID}); err != nil {
		t.Fatalf("answer q1: %v", err)
	}
	ans, err := s.sessions.Answer(ctx, session.ID, student.ID, &AnswerRequest{QuestionID: q2.ID, SelectedOptionID: testutil.WrongOption(t, q2).ID})
	if err != nil {
		t.Fatalf("answer q2: %v", err)
	}
	if ans.IsCorrect {
		t.Fatalf("wrong option marked correct")
	}

	s.sessions.now = func() time.Time { return start.Add(90 * time.Second) }
	result, err := s.sessions.Complete(ctx, session.ID, student.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.Status != model.SessionCompleted || result.Score == nil || *result.Score != 50 {
		t.Fatalf("expected score 50, got %+v", result)
	}
	if result.CorrectAnswers != 1 || result.IsPassed == nil || *result.IsPassed {
		t.Fatalf("expected 1 correct and not passed, got %+v", result)
	}
	if result.TimeSpentSeconds == nil || *result.TimeSpentSeconds != 90 {
		t.Fatalf("expected 90 seconds spent, got %v", result.TimeSpentSeconds)
	}

	var stored model.TestAssignment
	s.db.First(&stored, a.ID)
	if !stored.IsCompleted {
		t.Fatalf("assignment should be completed")
	}

	if _, err := s.sessions.Complete(ctx, session.ID, student.ID); !errors.Is(err, util.ErrConflict) {
		t.Fatalf("expected ErrConflict on closed session, got %v", err)
	}
	_, err = s.sessions.Answer(ctx, session.ID, student.ID, &AnswerRequest{QuestionID: q2.ID, SelectedOptionID: testutil.CorrectOption(t, q2).ID})
	if !errors.Is(err, util.ErrConflict) {
		t.Fatalf("expected ErrConflict answering a closed session, got %v", err)
	}
}

func TestScoreWeightsPoints(t *testing.T) {
	composition := []model.TestQuestion{
		{QuestionID: 1, Points: 3},
		{QuestionID: 2, Points: 1},
	}
	answers := []model.UserAnswer{
		{QuestionID: 1, IsCorrect: true},
		{QuestionID: 2, IsCorrect: false},
		{QuestionID: 7, IsCorrect: true},
	}
	pct, correct := score(composition, answers)
	if pct != 75 || correct != 1 {
		t.Fatalf("expected 75%% with 1 correct, got %v%% with %d", pct, correct)
	}
	if pct, _ := score(nil, nil); pct != 0 {
		t.Fatalf("empty test should score 0, got %v", pct)
	}
}

func TestSessionAnswerValidation(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	teacher := testutil.SeedUser(t, s.db, "t@example.com", model.RoleTeacher)
	student := testutil.SeedUser(t, s.db, "s@example.com", model.RoleStudent)
	other := testutil.SeedUser(t, s.db, "o@example.com", model.RoleStudent)
	q1 := testutil.SeedQuestion(t, s.db, teacher.ID, 2, 1, true)
	q2 := testutil.SeedQuestion(t, s.db, teacher.ID, 2, 1, true)
	outside := testutil.SeedQuestion(t, s.db, teacher.ID, 2, 1, true)
	test := testutil.SeedTest(t, s.db, teacher.ID, q1, q2)

	session, err := s.sessions.Start(ctx, test.ID, student.ID, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = s.sessions.Answer(ctx, session.ID, student.ID, &AnswerRequest{QuestionID: outside.ID, SelectedOptionID: outside.AnswerOptions[0].ID})
	if !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected ErrValidation for question outside test, got %v", err)
	}
	_, err = s.sessions.Answer(ctx, session.ID, student.ID, &AnswerRequest{QuestionID: q1.ID, SelectedOptionID: q2.AnswerOptions[0].ID})
	if !errors.Is(err, util.ErrValidation) || !strings.Contains(err.Error(), util.ErrOptionMismatch.Error()) {
		t.Fatalf("expected option mismatch, got %v", err)
	}
	_, err = s.sessions.Answer(ctx, session.ID, other.ID, &AnswerRequest{QuestionID: q1.ID, SelectedOptionID: q1.AnswerOptions[0].ID})
	if !errors.Is(err, util.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another user, got %v", err)
	}

	req := &AnswerRequest{QuestionID: q1.ID, SelectedOptionID: q1.AnswerOptions[0].ID}
	if _, err := s.sessions.Answer(ctx, session.ID, student.ID, req); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := s.sessions.Answer(ctx, session.ID, student.ID, req); !errors.Is(err, util.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate answer, got %v", err)
	}

	if _, err := s.sessions.Get(ctx, session.ID, caller(other, model.RoleStudent)); !errors.Is(err, util.ErrForbidden) {
		t.Fatalf("expected ErrForbidden reading another user's session, got %v", err)
	}
	if _, err := s.sessions.Get(ctx, session.ID, caller(teacher, model.RoleTeacher)); err != nil {
		t.Fatalf("staff should read any session: %v", err)
	}

	abandoned, err := s.sessions.Abandon(ctx, session.ID, student.ID)
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if abandoned.Status != model.SessionAbandoned || abandoned.Score != nil {
		t.Fatalf("abandoned session should not be scored: %+v", abandoned)
	}
}

func TestSessionStartRules(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	teacher := testutil.SeedUser(t, s.db, "t@example.com", model.RoleTeacher)
	student := testutil.SeedUser(t, s.db, "s@example.com", model.RoleStudent)
	other := testutil.SeedUser(t, s.db, "o@example.com", model.RoleStudent)
	test := testutil.SeedTest(t, s.db, teacher.ID, testutil.SeedQuestion(t, s.db, teacher.ID, 2, 1, true))
	s.db.Model(&model.Test{}).Where("id = ?", test.ID).Update("max_attempts", 1)

	first, err := s.sessions.Start(ctx, test.ID, student.ID, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.sessions.Start(ctx, test.ID, student.ID, nil); !errors.Is(err, util.ErrConflict) {
		t.Fatalf("expected ErrConflict when attempts are exhausted, got %v", err)
	}
	if _, err := s.sessions.Abandon(ctx, first.ID, student.ID); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if _, err := s.sessions.Start(ctx, test.ID, student.ID, nil); err != nil {
		t.Fatalf("abandoned attempts should not count: %v", err)
	}

	a, err := s.assignments.Create(ctx, test.ID, &AssignmentRequest{UserID: &student.ID}, teacher.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := s.sessions.Start(ctx, test.ID, other.ID, &StartSessionRequest{AssignmentID: &a.ID}); !errors.Is(err, util.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for someone else's assignment, got %v", err)
	}

	deadline := time.Now().Add(-time.Hour)
	late, err := s.assignments.Create(ctx, test.ID, &AssignmentRequest{UserID: &other.ID, Deadline: &deadline}, teacher.ID)
	if err != nil {
		t.Fatalf("assign late: %v", err)
	}
	if _, err := s.sessions.Start(ctx, test.ID, other.ID, &StartSessionRequest{AssignmentID: &late.ID}); !errors.Is(err, util.ErrConflict) {
		t.Fatalf("expected ErrConflict after the deadline, got %v", err)
	}

	s.db.Model(&model.Test{}).Where("id = ?", test.ID).Update("is_active", false)
	if _, err := s.sessions.Start(ctx, test.ID, other.ID, nil); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected ErrValidation for inactive test, got %v", err)
	}
}

func TestDocumentUpload(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	teacher := testutil.SeedUser(t, s.db, "t@example.com", model.RoleTeacher)
	body := []byte("lecture notes")

	doc, err := s.documents.Upload(ctx, UploadInput{
		Filename: "notes.TXT", Size: int64(len(body)), MimeType: "text/plain",
		Body: bytes.NewReader(body), UploaderID: teacher.ID,
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.Status != model.DocumentPending || doc.ProcessedAt != nil {
		t.Fatalf("expected pending document, got %+v", doc.SourceDocument)
	}
	if !strings.HasPrefix(doc.URL, "/uploads/documents/") || !strings.HasSuffix(doc.FilePath, ".txt") {
		t.Fatalf("unexpected location %s %s", doc.URL, doc.FilePath)
	}
	stored, err := os.ReadFile(filepath.Join(s.storageDir, doc.FilePath))
	if err != nil || string(stored) != string(body) {
		t.Fatalf("file not stored: %v", err)
	}

	_, err = s.documents.Upload(ctx, UploadInput{Filename: "run.exe", Size: 1, Body: bytes.NewReader([]byte{0}), UploaderID: teacher.ID})
	if !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected ErrValidation for extension, got %v", err)
	}
	_, err = s.documents.Upload(ctx, UploadInput{Filename: "big.pdf", Size: 2 << 20, Body: bytes.NewReader(nil), UploaderID: teacher.ID})
	if !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected ErrValidation for size, got %v", err)
	}

	msg := "parser crashed"
	updated, err := s.documents.UpdateStatus(ctx, doc.ID, &DocumentStatusRequest{Status: "failed", ErrorMessage: &msg})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != model.DocumentFailed || updated.ProcessedAt == nil || *updated.ErrorMessage != msg {
		t.Fatalf("unexpected document %+v", updated.SourceDocument)
	}
	if _, err := s.documents.UpdateStatus(ctx, doc.ID, &DocumentStatusRequest{Status: "exploded"}); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown status, got %v", err)
	}

	if err := s.documents.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.storageDir, doc.FilePath)); !os.IsNotExist(err) {
		t.Fatalf("stored file should be removed")
	}
}

func TestDocumentUploadQueueFailure(t *testing.T) {
	s := newServices(t, failingQueue{})
	ctx := context.Background()
	teacher := testutil.SeedUser(t, s.db, "t@example.com", model.RoleTeacher)

	doc, err := s.documents.Upload(ctx, UploadInput{
		Filename: "slides.pdf", Size: 4, MimeType: "application/pdf",
		Body: strings.NewReader("%PDF"), UploaderID: teacher.ID,
	})
	if err != nil {
		t.Fatalf("upload should succeed when the queue fails: %v", err)
	}
	if doc.Status != model.DocumentFailed || doc.ErrorMessage == nil {
		t.Fatalf("expected failed document, got %+v", doc.SourceDocument)
	}

	got, err := s.documents.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.DocumentFailed || got.ProcessedAt == nil {
		t.Fatalf("failure not persisted: %+v", got.SourceDocument)
	}
}

const moodleSample = `<?xml version="1.0" encoding="UTF-8"?>
<quiz>
  <question type="category"><category><text>$course$/Default</text></category></question>
  <question type="multichoice">
    <name><text>Capital</text></name>
    <questiontext format="html"><text><![CDATA[<p>Capital of France?</p>]]></text></questiontext>
    <defaultgrade>2.0000000</defaultgrade>
    <penalty>0.5000000</penalty>
    <idnumber>42</idnumber>
    <single>true</single>
    <shuffleanswers>false</shuffleanswers>
    <answer fraction="0" format="html"><text>Berlin</text></answer>
    <answer fraction="100" format="html"><text>Paris</text></answer>
  </question>
  <question type="multichoice">
    <name><text>Multi</text></name>
    <questiontext format="html"><text>Pick two</text></questiontext>
    <single>false</single>
    <answer fraction="50"><text>a</text></answer>
    <answer fraction="50"><text>b</text></answer>
  </question>
</quiz>`

func TestMoodleImportExport(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	teacher := testutil.SeedUser(t, s.db, "t@example.com", model.RoleTeacher)

	imported, err := s.moodle.Import(ctx, strings.NewReader(moodleSample), teacher.ID)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(imported) != 1 {
		t.Fatalf("expected 1 imported question, got %d", len(imported))
	}
	q := imported[0]
	if q.ID == 0 || q.CreatorID != teacher.ID || q.IsApproved {
		t.Fatalf("unexpected question %+v", q)
	}

	var buf bytes.Buffer
	if err := s.moodle.Export(ctx, &buf, []uint{q.ID, 9999}); err != nil {
		t.Fatalf("export: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`<question type="multichoice">`, "Capital of France?", `fraction="100"`, "<idnumber>42</idnumber>"} {
		if !strings.Contains(out, want) {
			t.Fatalf("export missing %q:\n%s", want, out)
		}
	}

	if err := s.moodle.Export(ctx, &buf, []uint{9999}); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.moodle.Import(ctx, strings.NewReader("<quiz></quiz>"), teacher.ID); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty import, got %v", err)
	}
	if _, err := s.moodle.Import(ctx, strings.NewReader("not xml"), teacher.ID); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected ErrValidation for malformed xml, got %v", err)
	}

	buf.Reset()
	if err := s.moodle.ExportApproved(ctx, &buf); err != nil {
		t.Fatalf("export approved: %v", err)
	}
	if strings.Contains(buf.String(), "Capital of France?") {
		t.Fatalf("unapproved question should not be exported")
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	fixtures := `roles:
  - name: reviewer
    description: Reviews generated questions
users:
  - email: admin@example.com
    full_name: Admin
    password: changeme
    roles: [admin]
  - email: pupil@example.com
    full_name: Pupil
    password: changeme
    roles: [student]
groups:
  - name: class-a
    members: [pupil@example.com]
`
	if err := os.WriteFile(path, []byte(fixtures), 0o644); err != nil {
		t.Fatalf("write fixtures: %v", err)
	}
	f, err := LoadFixtures(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := s.seed.Apply(ctx, f); err != nil {
			t.Fatalf("apply #%d: %v", i+1, err)
		}
	}

	var users, groups, members, roles int64
	s.db.Model(&model.User{}).Count(&users)
	s.db.Model(&model.Group{}).Count(&groups)
	s.db.Model(&model.UserGroup{}).Count(&members)
	s.db.Model(&model.Role{}).Where("name = ?", "reviewer").Count(&roles)
	if users != 2 || groups != 1 || members != 1 || roles != 1 {
		t.Fatalf("unexpected counts users=%d groups=%d members=%d roles=%d", users, groups, members, roles)
	}
}

func TestAuditRecordsActor(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	teacher := testutil.SeedUser(t, s.db, "t@example.com", model.RoleTeacher)
	ctx := util.WithActor(context.Background(), teacher.ID)

	group, err := s.groups.Create(ctx, &GroupRequest{Name: "class-b"}, teacher.ID)
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	entries, total, err := s.audit.List(ctx, AuditQuery{Table: group.TableName(), RecordID: &group.ID}, 100, 0)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if total != 1 || entries[0].OperationType != model.AuditInsert {
		t.Fatalf("expected one insert entry, got %d", total)
	}
	if entries[0].UserID == nil || *entries[0].UserID != teacher.ID {
		t.Fatalf("actor not recorded")
	}
	if len(entries[0].OldValues) != 0 || !strings.Contains(string(entries[0].NewValues), "class-b") {
		t.Fatalf("unexpected snapshots old=%s new=%s", entries[0].OldValues, entries[0].NewValues)
	}

	if _, _, err := s.audit.List(ctx, AuditQuery{Operation: "TRUNCATE"}, 100, 0); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown operation, got %v", err)
	}
}

func TestStatsOverview(t *testing.T) {
	s := newServices(t, NoopGenerationQueue{})
	ctx := context.Background()
	teacher := testutil.SeedUser(t, s.db, "t@example.com", model.RoleTeacher)
	student := testutil.SeedUser(t, s.db, "s@example.com", model.RoleStudent)
	q := testutil.SeedQuestion(t, s.db, teacher.ID, 2, 1, true)
	testutil.SeedQuestion(t, s.db, teacher.ID, 2, 1, false)
	test := testutil.SeedTest(t, s.db, teacher.ID, q)
	if _, err := s.sessions.Start(ctx, test.ID, student.ID, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	o, err := s.stats.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if o.Users.Total != 2 || o.Questions.Total != 2 || o.Questions.Approved != 1 {
		t.Fatalf("unexpected overview %+v", o)
	}
	if o.Tests.Active != 1 || o.Sessions.InProgress != 1 || o.Sessions.Completed != 0 {
		t.Fatalf("unexpected overview %+v", o)
	}
	if len(o.Questions.ByDifficulty) != len(model.Difficulties) {
		t.Fatalf("every difficulty should be reported")
	}

	h, err := s.stats.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if h.Users != 2 || h.Tests != 1 {
		t.Fatalf("unexpected health %+v", h)
	}
}
