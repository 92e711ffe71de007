package accounts

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"testing"

	adminstore "github.com/dalemusser/contributor/internal/app/store/admins"
	vendorstore "github.com/dalemusser/contributor/internal/app/store/vendors"
	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/identity"
	"github.com/dalemusser/contributor/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdmins struct {
	mu   sync.Mutex
	byID map[string]models.Admin
}

func (f *fakeAdmins) Upsert(_ context.Context, a models.Admin) (models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.Role = models.RoleAdmin
	f.byID[a.ProviderID] = a
	return a, nil
}

func (f *fakeAdmins) GetByProviderID(_ context.Context, id string) (models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return models.Admin{}, adminstore.ErrNotFound
	}
	return a, nil
}

type fakeVendors struct {
	mu     sync.Mutex
	byCode map[string]models.Vendor
}

func (f *fakeVendors) Create(_ context.Context, v models.Vendor) (models.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byCode[v.VendorCode]; ok {
		return models.Vendor{}, vendorstore.ErrDuplicateCode
	}
	v.Role = models.RoleVendor
	f.byCode[v.VendorCode] = v
	return v, nil
}

func (f *fakeVendors) CreateMany(ctx context.Context, vs []models.Vendor) ([]models.Vendor, error) {
	out := make([]models.Vendor, 0, len(vs))
	for _, v := range vs {
		created, err := f.Create(ctx, v)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (f *fakeVendors) GetByCode(_ context.Context, code string) (models.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byCode[code]
	if !ok {
		return models.Vendor{}, vendorstore.ErrNotFound
	}
	return v, nil
}

func (f *fakeVendors) GetByProviderID(_ context.Context, id string) (models.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.byCode {
		if v.ProviderID != nil && *v.ProviderID == id {
			return v, nil
		}
	}
	return models.Vendor{}, vendorstore.ErrNotFound
}

func (f *fakeVendors) ExistingCodes(_ context.Context, codes []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range codes {
		if _, ok := f.byCode[c]; ok {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeVendors) List(context.Context) ([]models.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Vendor{}
	for _, v := range f.byCode {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VendorCode < out[j].VendorCode })
	return out, nil
}

func (f *fakeVendors) BindProvider(_ context.Context, code, providerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byCode[code]
	if !ok {
		return vendorstore.ErrNotFound
	}
	v.ProviderID = &providerID
	v.PasswordSet = true
	f.byCode[code] = v
	return nil
}

func (f *fakeVendors) Delete(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byCode[code]; !ok {
		return vendorstore.ErrNotFound
	}
	delete(f.byCode, code)
	return nil
}

type fixture struct {
	svc     *Service
	idp     *identity.Memory
	admins  *fakeAdmins
	vendors *fakeVendors
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		idp:     identity.NewMemory(),
		admins:  &fakeAdmins{byID: map[string]models.Admin{}},
		vendors: &fakeVendors{byCode: map[string]models.Vendor{}},
	}
	f.svc = New(cfg, f.idp, f.admins, f.vendors, nil)
	return f
}

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	require.Error(t, err)
	return apperr.KindOf(err)
}

func TestRegisterAdmin_OutsideDomainAlwaysForbidden(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	for _, pw := range []string{"", "short", "a-perfectly-good-password"} {
		_, err := f.svc.RegisterAdmin(ctx, RegisterAdminInput{Email: "mallory@example.com", Password: pw})
		assert.Equal(t, apperr.KindForbidden, kindOf(t, err), "password %q", pw)
	}
	_, err := f.idp.SignInWithPassword(ctx, "mallory@example.com", "a-perfectly-good-password")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials, "provider must not be contacted")
}

func TestRegisterAdmin_AllowAnyEmail(t *testing.T) {
	f := newFixture(Config{AllowAnyAdminEmail: true})
	a, err := f.svc.RegisterAdmin(context.Background(), RegisterAdminInput{Email: "dev@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", a.Email)
}

func TestRegisterAndLoginAdmin(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	a, err := f.svc.RegisterAdmin(ctx, RegisterAdminInput{Email: "Ann@TheContributor.org", Password: "secret1", Name: "  Ann  Lee "})
	require.NoError(t, err)
	assert.Equal(t, "ann@thecontributor.org", a.Email)
	assert.Equal(t, "Ann Lee", a.Name)
	assert.Equal(t, models.RoleAdmin, a.Role)

	// Re-registration with the same password refreshes the record.
	again, err := f.svc.RegisterAdmin(ctx, RegisterAdminInput{Email: "ann@thecontributor.org", Password: "secret1", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, a.ProviderID, again.ProviderID)

	_, err = f.svc.RegisterAdmin(ctx, RegisterAdminInput{Email: "ann@thecontributor.org", Password: "other-pw"})
	assert.Equal(t, apperr.KindConflict, kindOf(t, err))

	sess, err := f.svc.LoginAdmin(ctx, "ann@thecontributor.org", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)
	assert.Equal(t, a.ProviderID, sess.Admin.ProviderID)

	_, err = f.svc.LoginAdmin(ctx, "ann@thecontributor.org", "wrong")
	assert.Equal(t, apperr.KindUnauthenticated, kindOf(t, err))

	_, err = f.svc.LoginAdmin(ctx, "ann@elsewhere.org", "secret1")
	assert.Equal(t, apperr.KindForbidden, kindOf(t, err))

	got, err := f.svc.ResolveAdmin(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, a.ProviderID, got.ProviderID)
}

func TestLoginAdmin_NoLocalRecord(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()
	_, err := f.idp.SignUp(ctx, "bob@thecontributor.org", "secret1", nil)
	require.NoError(t, err)

	_, err = f.svc.LoginAdmin(ctx, "bob@thecontributor.org", "secret1")
	assert.Equal(t, apperr.KindNotFound, kindOf(t, err))
	assert.Equal(t, "Admin not found in database", apperr.Message(err))
}

func TestResolveAdmin(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	_, err := f.svc.ResolveAdmin(ctx, "")
	assert.Equal(t, apperr.KindUnauthenticated, kindOf(t, err))

	_, err = f.svc.ResolveAdmin(ctx, "not-a-token")
	assert.Equal(t, apperr.KindUnauthenticated, kindOf(t, err))

	_, err = f.idp.SignUp(ctx, "eve@gmail.com", "secret1", nil)
	require.NoError(t, err)
	sess, err := f.idp.SignInWithPassword(ctx, "eve@gmail.com", "secret1")
	require.NoError(t, err)
	_, err = f.svc.ResolveAdmin(ctx, sess.AccessToken)
	assert.Equal(t, apperr.KindForbidden, kindOf(t, err))

	_, err = f.idp.SignUp(ctx, "new@THECONTRIBUTOR.ORG", "secret1", nil)
	require.NoError(t, err)
	sess, err = f.idp.SignInWithPassword(ctx, "new@thecontributor.org", "secret1")
	require.NoError(t, err)
	_, err = f.svc.ResolveAdmin(ctx, sess.AccessToken)
	assert.Equal(t, apperr.KindNotFound, kindOf(t, err), "not yet registered")
}

func TestVendorLoginStateMachine(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()
	_, err := f.svc.CreateVendor(ctx, VendorInput{VendorID: "ab12", Name: "Acme Pantry"})
	require.NoError(t, err)

	res, err := f.svc.LoginVendor(ctx, "AB12", "")
	require.NoError(t, err)
	assert.True(t, res.PasswordRequired)
	assert.Equal(t, "Please set your password", res.Message)
	assert.Equal(t, "Acme Pantry", res.Name)
	assert.Empty(t, res.AccessToken)

	_, err = f.svc.LoginVendor(ctx, "AB12", "guess")
	assert.Equal(t, apperr.KindUnauthenticated, kindOf(t, err))
	assert.Equal(t, "Password not set. Please set your password first.", apperr.Message(err))

	_, err = f.svc.LoginVendor(ctx, "ZZ99", "")
	assert.Equal(t, apperr.KindNotFound, kindOf(t, err))

	set, err := f.svc.SetVendorPassword(ctx, "ab12", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "Password set successfully", set.Message)
	require.NotNil(t, set.User)
	assert.Equal(t, "AB12", set.User.VendorID)
	assert.Equal(t, models.RoleVendor, set.User.Role)
	assert.NotEmpty(t, set.AccessToken)

	v := f.vendors.byCode["AB12"]
	assert.True(t, v.PasswordSet)
	require.NotNil(t, v.ProviderID)
	assert.Equal(t, set.User.ID, *v.ProviderID)

	_, err = f.svc.SetVendorPassword(ctx, "AB12", "another1")
	assert.Equal(t, apperr.KindBadRequest, kindOf(t, err))
	assert.Equal(t, "Password already set. Use login instead.", apperr.Message(err))

	_, err = f.svc.LoginVendor(ctx, "AB12", "wrong-pw")
	assert.Equal(t, apperr.KindUnauthenticated, kindOf(t, err))
	assert.Equal(t, "Invalid Vendor ID or password", apperr.Message(err))

	ok, err := f.svc.LoginVendor(ctx, "AB12", "hunter22")
	require.NoError(t, err)
	assert.False(t, ok.PasswordRequired)

	me, err := f.svc.ResolveVendor(ctx, ok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "AB12", me.VendorCode)
}

func TestSetVendorPassword_ExistingProviderAccount(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()
	_, err := f.svc.CreateVendor(ctx, VendorInput{VendorID: "CD34", Name: "Beacon"})
	require.NoError(t, err)
	_, err = f.idp.SignUp(ctx, "vCD34@internal.contributor", "matching", nil)
	require.NoError(t, err)

	_, err = f.svc.SetVendorPassword(ctx, "CD34", "different")
	assert.Equal(t, apperr.KindConflictRequiresSupport, kindOf(t, err))
	assert.Equal(t, http.StatusBadRequest, apperr.Status(apperr.KindOf(err)))
	assert.False(t, f.vendors.byCode["CD34"].PasswordSet)

	res, err := f.svc.SetVendorPassword(ctx, "CD34", "matching")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.True(t, f.vendors.byCode["CD34"].PasswordSet)
}

func TestSetVendorPassword_TooShort(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()
	_, err := f.svc.CreateVendor(ctx, VendorInput{VendorID: "EF56", Name: "Harbor"})
	require.NoError(t, err)

	_, err = f.svc.SetVendorPassword(ctx, "EF56", "abc")
	assert.Equal(t, apperr.KindValidation, kindOf(t, err))
}

func TestCreateVendor(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	v, err := f.svc.CreateVendor(ctx, VendorInput{VendorID: " ab12 ", Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "AB12", v.VendorCode)
	assert.False(t, v.PasswordSet)
	assert.Nil(t, v.ProviderID)

	_, err = f.svc.CreateVendor(ctx, VendorInput{VendorID: "AB12", Name: "Again"})
	assert.Equal(t, apperr.KindConflict, kindOf(t, err))

	for _, code := range []string{"", "ABC", "ABCDE", "AB-1"} {
		_, err = f.svc.CreateVendor(ctx, VendorInput{VendorID: code, Name: "X"})
		assert.Equal(t, apperr.KindValidation, kindOf(t, err), "code %q", code)
	}
}

func TestCreateVendors_RejectsWholeBatch(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()
	_, err := f.svc.CreateVendor(ctx, VendorInput{VendorID: "AB12", Name: "Acme"})
	require.NoError(t, err)

	_, err = f.svc.CreateVendors(ctx, []VendorInput{{VendorID: "GH78", Name: "G"}, {VendorID: "gh78", Name: "H"}})
	assert.Equal(t, apperr.KindBadRequest, kindOf(t, err))
	assert.Equal(t, "Duplicate Vendor IDs in request", apperr.Message(err))

	_, err = f.svc.CreateVendors(ctx, []VendorInput{{VendorID: "GH78", Name: "G"}, {VendorID: "AB12", Name: "A"}})
	assert.Equal(t, apperr.KindConflict, kindOf(t, err))
	assert.Contains(t, apperr.Message(err), "AB12")

	all, _ := f.svc.ListVendors(ctx)
	assert.Len(t, all, 1, "nothing from a rejected batch is created")

	created, err := f.svc.CreateVendors(ctx, []VendorInput{{VendorID: "GH78", Name: "G"}, {VendorID: "JK90", Name: "J"}})
	require.NoError(t, err)
	assert.Len(t, created, 2)
}

type failingDelete struct {
	*identity.Memory
	calls int
}

func (f *failingDelete) DeleteUser(context.Context, string) error {
	f.calls++
	return errors.New("provider unavailable")
}

func TestDeleteVendor(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()
	_, err := f.svc.CreateVendor(ctx, VendorInput{VendorID: "AB12", Name: "Acme"})
	require.NoError(t, err)
	_, err = f.svc.SetVendorPassword(ctx, "AB12", "hunter22")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteVendor(ctx, "ab12"))
	_, err = f.idp.SignInWithPassword(ctx, "vAB12@internal.contributor", "hunter22")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials, "provider account removed")

	err = f.svc.DeleteVendor(ctx, "AB12")
	assert.Equal(t, apperr.KindNotFound, kindOf(t, err))
}

func TestDeleteVendor_ProviderFailureStillDeletesLocally(t *testing.T) {
	f := newFixture(Config{})
	idp := &failingDelete{Memory: f.idp}
	f.svc = New(Config{}, idp, f.admins, f.vendors, nil)
	ctx := context.Background()

	_, err := f.svc.CreateVendor(ctx, VendorInput{VendorID: "AB12", Name: "Acme"})
	require.NoError(t, err)
	_, err = f.svc.SetVendorPassword(ctx, "AB12", "hunter22")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteVendor(ctx, "AB12"))
	assert.Equal(t, 1, idp.calls)
	assert.Empty(t, f.vendors.byCode)
}
