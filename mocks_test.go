package taskauth_test

import (
	"context"
	"database/sql"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	taskauth "github.com/goliatone/go-taskauth"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// recordingLogger captures log lines so tests can assert on activity
// without caring about formatting.
type recordingLogger struct {
	Debugs []string
	Infos  []string
	Warns  []string
	Errors []string
}

func (l *recordingLogger) Debug(format string, args ...any) { l.Debugs = append(l.Debugs, format) }
func (l *recordingLogger) Info(format string, args ...any)  { l.Infos = append(l.Infos, format) }
func (l *recordingLogger) Warn(format string, args ...any)  { l.Warns = append(l.Warns, format) }
func (l *recordingLogger) Error(format string, args ...any) { l.Errors = append(l.Errors, format) }

// stubUsers is an in memory Users implementation. Unimplemented methods
// panic through the embedded nil interface.
type stubUsers struct {
	taskauth.Users
	byIdentifier map[string]*taskauth.User
	byID         map[string]*taskauth.User
	getErr       error
}

func newStubUsers(users ...*taskauth.User) *stubUsers {
	s := &stubUsers{
		byIdentifier: map[string]*taskauth.User{},
		byID:         map[string]*taskauth.User{},
	}
	for _, user := range users {
		s.add(user)
	}
	return s
}

func (s *stubUsers) add(user *taskauth.User) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.byIdentifier[user.Email] = user
	s.byID[user.ID.String()] = user
}

func (s *stubUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*taskauth.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if user, ok := s.byIdentifier[identifier]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*taskauth.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubUsers) Create(ctx context.Context, record *taskauth.User, criteria ...repository.InsertCriteria) (*taskauth.User, error) {
	return s.CreateTx(ctx, nil, record, criteria...)
}

func (s *stubUsers) CreateTx(ctx context.Context, tx bun.IDB, record *taskauth.User, criteria ...repository.InsertCriteria) (*taskauth.User, error) {
	s.add(record)
	return record, nil
}

func (s *stubUsers) Register(ctx context.Context, user *taskauth.User) (*taskauth.User, error) {
	return s.RegisterTx(ctx, nil, user)
}

func (s *stubUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *taskauth.User) (*taskauth.User, error) {
	return s.CreateTx(ctx, tx, user)
}

func (s *stubUsers) UpdateVerifiedStatus(ctx context.Context, email string, verified bool) (bool, error) {
	return s.UpdateVerifiedStatusTx(ctx, nil, email, verified)
}

func (s *stubUsers) UpdateVerifiedStatusTx(ctx context.Context, tx bun.IDB, email string, verified bool) (bool, error) {
	user, ok := s.byIdentifier[email]
	if !ok {
		return false, nil
	}
	user.Verified = verified
	return true, nil
}

func (s *stubUsers) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return s.SetPasswordTx(ctx, nil, id, passwordHash)
}

func (s *stubUsers) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	user, ok := s.byID[id.String()]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash = passwordHash
	return nil
}

// stubTokens keeps singleton token records per user with the same field
// group semantics as the real repository.
type stubTokens struct {
	records map[uuid.UUID]*taskauth.TokenRecord
	saveErr error
	getErr  error
}

func newStubTokens() *stubTokens {
	return &stubTokens{records: map[uuid.UUID]*taskauth.TokenRecord{}}
}

func (s *stubTokens) record(userID uuid.UUID) *taskauth.TokenRecord {
	if record, ok := s.records[userID]; ok {
		return record
	}
	record := &taskauth.TokenRecord{UserID: userID}
	s.records[userID] = record
	return record
}

func (s *stubTokens) Get(ctx context.Context, userID uuid.UUID) (*taskauth.TokenRecord, error) {
	return s.GetTx(ctx, nil, userID)
}

func (s *stubTokens) GetTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*taskauth.TokenRecord, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if record, ok := s.records[userID]; ok {
		return record, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubTokens) SaveRefreshToken(ctx context.Context, userID uuid.UUID, token string) error {
	return s.SaveRefreshTokenTx(ctx, nil, userID, token)
}

func (s *stubTokens) SaveRefreshTokenTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.record(userID).RefreshToken = token
	return nil
}

func (s *stubTokens) SaveConfirmToken(ctx context.Context, userID uuid.UUID, token string) error {
	return s.SaveConfirmTokenTx(ctx, nil, userID, token)
}

func (s *stubTokens) SaveConfirmTokenTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.record(userID).ConfirmToken = token
	return nil
}

func (s *stubTokens) SaveVerificationCode(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error {
	return s.SaveVerificationCodeTx(ctx, nil, userID, code, expiresAt)
}

func (s *stubTokens) SaveVerificationCodeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, code string, expiresAt time.Time) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	record := s.record(userID)
	record.Code = code
	record.CodeExpiresAt = &expiresAt
	return nil
}

func (s *stubTokens) SaveResetToken(ctx context.Context, userID uuid.UUID, token string) error {
	return s.SaveResetTokenTx(ctx, nil, userID, token)
}

func (s *stubTokens) SaveResetTokenTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.record(userID).ResetToken = token
	return nil
}

func (s *stubTokens) SaveResetCode(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error {
	return s.SaveResetCodeTx(ctx, nil, userID, code, expiresAt)
}

func (s *stubTokens) SaveResetCodeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, code string, expiresAt time.Time) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	record := s.record(userID)
	record.ResetCode = code
	record.ResetExpires = &expiresAt
	return nil
}

func (s *stubTokens) DeleteRefreshToken(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.DeleteRefreshTokenTx(ctx, nil, userID)
}

func (s *stubTokens) DeleteRefreshTokenTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (bool, error) {
	record, ok := s.records[userID]
	if !ok {
		return false, nil
	}
	record.RefreshToken = ""
	return true, nil
}

// stubTasks is an in memory Tasks implementation.
type stubTasks struct {
	taskauth.Tasks
	byID    map[string]*taskauth.Task
	summary *taskauth.TaskSummary
	listErr error
}

func newStubTasks(tasks ...*taskauth.Task) *stubTasks {
	s := &stubTasks{byID: map[string]*taskauth.Task{}}
	for _, task := range tasks {
		s.add(task)
	}
	return s
}

func (s *stubTasks) add(task *taskauth.Task) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	s.byID[task.ID.String()] = task
}

func (s *stubTasks) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*taskauth.Task, error) {
	if task, ok := s.byID[id]; ok {
		return task, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubTasks) Create(ctx context.Context, record *taskauth.Task, criteria ...repository.InsertCriteria) (*taskauth.Task, error) {
	s.add(record)
	return record, nil
}

func (s *stubTasks) Update(ctx context.Context, record *taskauth.Task, criteria ...repository.UpdateCriteria) (*taskauth.Task, error) {
	s.byID[record.ID.String()] = record
	return record, nil
}

func (s *stubTasks) Delete(ctx context.Context, record *taskauth.Task) error {
	delete(s.byID, record.ID.String())
	return nil
}

func (s *stubTasks) ListByUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*taskauth.Task, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []*taskauth.Task{}
	for _, task := range s.byID {
		if task.UserID == userID {
			out = append(out, task)
		}
	}
	return out, nil
}

func (s *stubTasks) Summary(ctx context.Context, userID uuid.UUID, now time.Time) (*taskauth.TaskSummary, error) {
	if s.summary != nil {
		return s.summary, nil
	}
	summary := &taskauth.TaskSummary{}
	for _, task := range s.byID {
		if task.UserID != userID {
			continue
		}
		summary.Total++
		if task.Completed {
			summary.Completed++
		} else if task.Overdue(now) {
			summary.Overdue++
		}
	}
	summary.Remaining = summary.Total - summary.Completed
	return summary, nil
}

// stubRepo bundles the stubs behind the RepositoryManager interface.
type stubRepo struct {
	users  *stubUsers
	tokens *stubTokens
	tasks  *stubTasks
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:  newStubUsers(),
		tokens: newStubTokens(),
		tasks:  newStubTasks(),
	}
}

func (s *stubRepo) Validate() error { return nil }
func (s *stubRepo) MustValidate()   {}

func (s *stubRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (s *stubRepo) Users() taskauth.Users   { return s.users }
func (s *stubRepo) Tokens() taskauth.Tokens { return s.tokens }
func (s *stubRepo) Tasks() taskauth.Tasks   { return s.tasks }

// stubMailer records outbound codes and their accompanying tokens.
type stubMailer struct {
	verificationCodes map[string]string
	confirmTokens     map[string]string
	resetCodes        map[string]string
	resetTokens       map[string]string
	sendErr           error
}

var _ taskauth.Mailer = (*stubMailer)(nil)

func newStubMailer() *stubMailer {
	return &stubMailer{
		verificationCodes: map[string]string{},
		confirmTokens:     map[string]string{},
		resetCodes:        map[string]string{},
		resetTokens:       map[string]string{},
	}
}

func (s *stubMailer) SendVerificationCode(ctx context.Context, email, code, confirmToken string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.verificationCodes[email] = code
	s.confirmTokens[email] = confirmToken
	return nil
}

func (s *stubMailer) SendResetCode(ctx context.Context, email, code, resetToken string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.resetCodes[email] = code
	s.resetTokens[email] = resetToken
	return nil
}
