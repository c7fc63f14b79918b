package sellers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoparts-backend/internal/parts"
	"github.com/angelmondragon/autoparts-backend/internal/users"
	"github.com/angelmondragon/autoparts-backend/pkg/auth"
	"github.com/angelmondragon/autoparts-backend/pkg/db"
	"github.com/angelmondragon/autoparts-backend/pkg/db/dbtest"
	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
	"github.com/angelmondragon/autoparts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
	"github.com/angelmondragon/autoparts-backend/pkg/pagination"
)

type sellerFixture struct {
	conn  *gorm.DB
	users *users.Repository
	svc   Service
}

func newSellerFixture(t *testing.T) sellerFixture {
	t.Helper()
	conn := dbtest.Open(t, dbtest.UsersTable, dbtest.SellersTable, dbtest.PartsTable)
	partsSvc, err := parts.NewService(parts.NewRepository(conn))
	require.NoError(t, err)
	usersRepo := users.NewRepository(conn)
	svc, err := NewService(NewRepository(conn), usersRepo, partsSvc, db.Wrap(conn))
	require.NoError(t, err)
	return sellerFixture{conn: conn, users: usersRepo, svc: svc}
}

func (f sellerFixture) customer(t *testing.T, email string) auth.Identity {
	t.Helper()
	user, err := f.users.Create(context.Background(), users.CreateUserDTO{
		Name:         "Ana",
		Email:        email,
		PasswordHash: "hash",
		Role:         enums.UserRoleCustomer,
	})
	require.NoError(t, err)
	return users.Identity(user)
}

func TestRegisterPromotesCustomer(t *testing.T) {
	f := newSellerFixture(t)
	ctx := context.Background()
	identity := f.customer(t, "ana@example.com")

	result, err := f.svc.Register(ctx, identity, RegisterInput{StoreName: " Ana Parts ", Email: "Shop@Example.com"})
	require.NoError(t, err)
	assert.False(t, result.AlreadySeller)
	require.NotNil(t, result.Seller)
	assert.Equal(t, "Ana Parts", result.Seller.StoreName)
	assert.Equal(t, "shop@example.com", result.Seller.Email)
	assert.Equal(t, enums.SellerStatusPending, result.Seller.Status)

	require.NotNil(t, result.User)
	assert.Equal(t, enums.UserRoleSeller, result.User.Role)
	require.NotNil(t, result.User.SellerID)
	assert.Equal(t, result.Seller.ID, *result.User.SellerID)
}

func TestRegisterTwiceReportsExistingSeller(t *testing.T) {
	f := newSellerFixture(t)
	ctx := context.Background()
	identity := f.customer(t, "ana@example.com")

	first, err := f.svc.Register(ctx, identity, RegisterInput{StoreName: "Ana Parts", Email: "shop@example.com"})
	require.NoError(t, err)

	second, err := f.svc.Register(ctx, identity, RegisterInput{StoreName: "Other", Email: "other@example.com"})
	require.NoError(t, err)
	assert.True(t, second.AlreadySeller)
	assert.Nil(t, second.User)
	assert.Equal(t, first.Seller.ID, second.Seller.ID)

	var count int64
	require.NoError(t, f.conn.Model(&models.Seller{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRegisterValidationAndConflicts(t *testing.T) {
	f := newSellerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, f.customer(t, "a@example.com"), RegisterInput{StoreName: " ", Email: "x@example.com"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Register(ctx, f.customer(t, "b@example.com"), RegisterInput{StoreName: "B", Email: "shared@example.com"})
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, f.customer(t, "c@example.com"), RegisterInput{StoreName: "C", Email: "SHARED@example.com"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = f.svc.Register(ctx, auth.Identity{ID: uuid.New()}, RegisterInput{StoreName: "Ghost", Email: "g@example.com"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestProfileCreatesDefaultStore(t *testing.T) {
	f := newSellerFixture(t)
	ctx := context.Background()
	identity := f.customer(t, "Ana@Example.com")

	profile, err := f.svc.Profile(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "My Store", profile.StoreName)
	assert.Equal(t, "ana@example.com", profile.Email)
	assert.Equal(t, enums.SellerStatusActive, profile.Status)

	user, err := f.users.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	require.NotNil(t, user.SellerID)
	assert.Equal(t, profile.ID, *user.SellerID)
	assert.Equal(t, enums.UserRoleCustomer, user.Role)

	again, err := f.svc.Profile(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)
}

func TestRegisterAfterProfileUpdatesStore(t *testing.T) {
	f := newSellerFixture(t)
	ctx := context.Background()
	identity := f.customer(t, "ana@example.com")

	profile, err := f.svc.Profile(ctx, identity)
	require.NoError(t, err)

	result, err := f.svc.Register(ctx, identity, RegisterInput{StoreName: "Ana Parts", Email: "shop@example.com"})
	require.NoError(t, err)
	assert.False(t, result.AlreadySeller)
	assert.Equal(t, profile.ID, result.Seller.ID)
	assert.Equal(t, enums.UserRoleSeller, result.User.Role)
	assert.Equal(t, "Ana Parts", result.Seller.StoreName)
	assert.Equal(t, "shop@example.com", result.Seller.Email)
	assert.Equal(t, enums.SellerStatusPending, result.Seller.Status)

	var stored models.Seller
	require.NoError(t, f.conn.First(&stored, "id = ?", profile.ID).Error)
	assert.Equal(t, "Ana Parts", stored.StoreName)
	assert.Equal(t, "shop@example.com", stored.Email)
	assert.Equal(t, enums.SellerStatusPending, stored.Status)

	var count int64
	require.NoError(t, f.conn.Model(&models.Seller{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestListPartsOwnership(t *testing.T) {
	f := newSellerFixture(t)
	ctx := context.Background()
	identity := f.customer(t, "ana@example.com")

	result, err := f.svc.Register(ctx, identity, RegisterInput{StoreName: "Ana Parts", Email: "shop@example.com"})
	require.NoError(t, err)
	sellerID := result.Seller.ID
	identity = users.Identity(result.User)

	require.NoError(t, f.conn.Create(&models.Part{
		SellerID:      &sellerID,
		Name:          "Brake pad",
		Description:   "Front axle",
		Category:      "Brakes",
		Brand:         "Bosch",
		PriceCents:    4599,
		StockQuantity: 3,
		IsActive:      true,
	}).Error)

	bySeller, err := f.svc.ListParts(ctx, identity, sellerID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, bySeller.Parts, 1)
	assert.Equal(t, "Brake pad", bySeller.Parts[0].Name)

	byUser, err := f.svc.ListParts(ctx, identity, identity.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, byUser.Parts, 1)

	_, err = f.svc.ListParts(ctx, identity, uuid.New(), pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	stranger := f.customer(t, "other@example.com")
	_, err = f.svc.ListParts(ctx, stranger, sellerID, pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	empty, err := f.svc.ListParts(ctx, stranger, stranger.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, empty.Parts)
}
