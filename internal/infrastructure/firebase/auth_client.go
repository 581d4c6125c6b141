package firebase

import (
	"context"
	"time"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"muzmates/internal/domain/entity"
)

type FirebaseAuthClient struct {
	client  *auth.Client
	toolkit *identitytoolkit.Service
}

// NewFirebaseAuthClient pairs the admin client with an Identity Toolkit client for the
// end-user flows (password sign-in, reset mail) the admin SDK does not cover.
func NewFirebaseAuthClient(ctx context.Context, client *auth.Client, apiKey string, opts ...option.ClientOption) (*FirebaseAuthClient, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	toolkit, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &FirebaseAuthClient{
		client:  client,
		toolkit: toolkit,
	}, nil
}

func (f *FirebaseAuthClient) CreateUser(ctx context.Context, email, password string) (*entity.Identity, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password)

	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return nil, wrapAuthError(err)
	}

	return toIdentity(user), nil
}

func (f *FirebaseAuthClient) DeleteUser(ctx context.Context, uid string) error {
	if err := f.client.DeleteUser(ctx, uid); err != nil {
		return wrapAuthError(err)
	}
	return nil
}

func (f *FirebaseAuthClient) GetUser(ctx context.Context, uid string) (*entity.Identity, error) {
	user, err := f.client.GetUser(ctx, uid)
	if err != nil {
		return nil, wrapAuthError(err)
	}
	return toIdentity(user), nil
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}

func (f *FirebaseAuthClient) SignInWithEmailPassword(ctx context.Context, email, password string) (string, *entity.AuthTokens, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}

	resp, err := f.toolkit.Relyingparty.VerifyPassword(req).Context(ctx).Do()
	if err != nil {
		return "", nil, wrapAuthError(err)
	}

	return resp.LocalId, &entity.AuthTokens{
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}, nil
}

func (f *FirebaseAuthClient) SendPasswordReset(ctx context.Context, email string) error {
	req := &identitytoolkit.Relyingparty{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}

	if _, err := f.toolkit.Relyingparty.GetOobConfirmationCode(req).Context(ctx).Do(); err != nil {
		return wrapAuthError(err)
	}
	return nil
}

// TestConnection lists a single page of users to prove the admin credentials work.
func (f *FirebaseAuthClient) TestConnection(ctx context.Context) error {
	_, err := f.client.Users(ctx, "").Next()
	if err == iterator.Done {
		return nil
	}
	return err
}

func toIdentity(user *auth.UserRecord) *entity.Identity {
	identity := &entity.Identity{
		ID:    user.UID,
		Email: user.Email,
	}
	if user.UserMetadata != nil && user.UserMetadata.CreationTimestamp > 0 {
		identity.CreatedAt = time.UnixMilli(user.UserMetadata.CreationTimestamp)
	}
	return identity
}
