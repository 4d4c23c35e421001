package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/auth"
	"github.com/dmitrijs2005/accounts/internal/server/config"
	"github.com/dmitrijs2005/accounts/internal/server/media"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	usersrepo "github.com/dmitrijs2005/accounts/internal/server/repositories/users"
	walletsrepo "github.com/dmitrijs2005/accounts/internal/server/repositories/wallets"
	"golang.org/x/crypto/bcrypt"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) With(...any) logging.Logger            { return nopLogger{} }

// memUsers is an in-memory users.Repository enforcing the same unique
// fields as the schema.
type memUsers struct {
	mu         sync.Mutex
	rows       map[string]*models.User
	seq        int
	createErrs []error
	profileErr error
	creates    int
	verifies   int
	pwUpdates  int
}

func newMemUsers() *memUsers { return &memUsers{rows: map[string]*models.User{}} }

func clone(u *models.User) *models.User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &c
}

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creates++
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	for _, r := range m.rows {
		switch {
		case r.Email == u.Email:
			return nil, common.Conflict("email", nil)
		case r.UserName == u.UserName:
			return nil, common.Conflict("username", nil)
		case u.MobileNumber != 0 && r.MobileNumber == u.MobileNumber:
			return nil, common.Conflict("mobile_number", nil)
		case r.ReferralCode == u.ReferralCode:
			return nil, common.Conflict("referral_code", nil)
		}
	}

	m.seq++
	u.ID = fmt.Sprintf("u-%d", m.seq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.rows[u.ID] = clone(u)
	return u, nil
}

func (m *memUsers) find(pred func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if pred(r) {
			return clone(r), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return m.GetByID(ctx, id)
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memUsers) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ReferralCode == code })
}

func (m *memUsers) update(id string, fn func(*models.User) error) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if err := fn(r); err != nil {
		return nil, err
	}
	r.UpdatedAt = time.Now()
	return clone(r), nil
}

func (m *memUsers) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	_, err := m.update(id, func(u *models.User) error {
		m.pwUpdates++
		u.PasswordHash = hash
		return nil
	})
	return err
}

func (m *memUsers) UpdateAccount(ctx context.Context, id, firstName, lastName, email string) (*models.User, error) {
	return m.update(id, func(u *models.User) error {
		for _, r := range m.rows {
			if r.ID != id && r.Email == email {
				return common.Conflict("email", nil)
			}
		}
		u.FirstName, u.LastName, u.Email = firstName, lastName, email
		return nil
	})
}

func (m *memUsers) UpdateProfile(ctx context.Context, id, profileURL, profileID string) (*models.User, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.update(id, func(u *models.User) error {
		u.ProfileURL, u.ProfileID = profileURL, profileID
		return nil
	})
}

func (m *memUsers) SetEmailVerified(ctx context.Context, id string) error {
	_, err := m.update(id, func(u *models.User) error {
		m.verifies++
		u.IsEmailVerified = true
		return nil
	})
	return err
}

func (m *memUsers) SetActivated(ctx context.Context, id string, active bool) (*models.User, error) {
	return m.update(id, func(u *models.User) error {
		u.IsActivated = active
		return nil
	})
}

func (m *memUsers) set(t *testing.T, email string, fn func(*models.User)) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Email == email {
			fn(r)
			return
		}
	}
	t.Fatalf("no user %q", email)
}

type memWallets struct {
	mu        sync.Mutex
	rows      map[string]*models.Wallet
	createErr error
	creates   int
}

func newMemWallets() *memWallets { return &memWallets{rows: map[string]*models.Wallet{}} }

func (m *memWallets) Create(ctx context.Context, w *models.Wallet) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.rows[w.UserID]; ok {
		return nil, common.Conflict("user_id", nil)
	}
	for _, r := range m.rows {
		if r.WalletKey == w.WalletKey {
			return nil, common.Conflict("wallet_key", nil)
		}
	}
	w.ID = "w-" + w.UserID
	c := *w
	m.rows[w.UserID] = &c
	return w, nil
}

func (m *memWallets) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.rows[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *w
	return &c, nil
}

type fakeRepoManager struct {
	u *memUsers
	w *memWallets
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository         { return m.u }
func (m *fakeRepoManager) Wallets(db dbx.DBTX) walletsrepo.Repository     { return m.w }

type fakeMedia struct {
	uploads   []*media.Image
	deleted   []string
	uploadErr error
	deleteErr error
	seq       int
}

func (f *fakeMedia) Upload(ctx context.Context, img *media.Image) (*media.Object, error) {
	f.uploads = append(f.uploads, img)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.seq++
	id := fmt.Sprintf("profiles/img-%d.png", f.seq)
	return &media.Object{ID: id, URL: "http://cdn.local/" + id}, nil
}

func (f *fakeMedia) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type sentMail struct {
	email string
	token string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) SendVerification(ctx context.Context, email, token string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{email, token})
	return nil
}

type testEnv struct {
	svc     *AccountService
	users   *memUsers
	wallets *memWallets
	media   *fakeMedia
	mail    *fakeSender
	signer  *auth.Signer
	mock    sqlmock.Sqlmock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	e := &testEnv{
		users:   newMemUsers(),
		wallets: newMemWallets(),
		media:   &fakeMedia{},
		mail:    &fakeSender{},
		signer:  auth.NewSigner([]byte("k"), "accounts", 24*time.Hour),
		mock:    mock,
	}
	cfg := &config.Config{BcryptCost: bcrypt.MinCost}
	e.svc = NewAccountService(db, &fakeRepoManager{u: e.users, w: e.wallets}, e.signer, e.media, e.mail, cfg, nopLogger{})
	return e
}

func aliceInput() RegisterInput {
	return RegisterInput{
		FirstName:    "Alice",
		LastName:     "Smith",
		Email:        "a@x.com",
		MobileNumber: 5551234,
		UserName:     "alice",
		Password:     "Secr3t!",
	}
}

// registerActive registers in and marks the account verified and activated.
func (e *testEnv) registerActive(t *testing.T, in RegisterInput) *models.User {
	t.Helper()
	u, err := e.svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	e.users.set(t, u.Email, func(u *models.User) { u.IsEmailVerified, u.IsActivated = true, true })
	return u
}
