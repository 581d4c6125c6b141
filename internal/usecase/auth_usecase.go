package usecase

import (
	"context"
	"strings"
	"time"

	"muzmates/internal/domain/entity"
	"muzmates/internal/domain/repository"
	"muzmates/pkg/errors"
	"muzmates/pkg/logger"
)

type AuthUseCase struct {
	firebaseAuth FirebaseAuthClient
	users        *UserUseCase
	userRepo     repository.UserProfileRepository
	listingRepo  repository.ListingRepository
	sessions     *SessionManager
	timeout      time.Duration
}

func NewAuthUseCase(
	firebaseAuth FirebaseAuthClient,
	users *UserUseCase,
	userRepo repository.UserProfileRepository,
	listingRepo repository.ListingRepository,
	sessions *SessionManager,
	timeout time.Duration,
) *AuthUseCase {
	return &AuthUseCase{
		firebaseAuth: firebaseAuth,
		users:        users,
		userRepo:     userRepo,
		listingRepo:  listingRepo,
		sessions:     sessions,
		timeout:      timeout,
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Gender    string
	Email     string
	Password  string
}

type AuthResult struct {
	Identity *entity.Identity    `json:"identity"`
	Profile  *entity.UserProfile `json:"profile,omitempty"`
	Tokens   *entity.AuthTokens  `json:"tokens,omitempty"`
}

// Register creates the identity and then its profile. If the profile write fails the
// identity is deleted again so no half-registered account remains.
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	profileInput := ProfileInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Gender:    input.Gender,
		Email:     input.Email,
	}
	if err := validateProfile(&profileInput); err != nil {
		return nil, err
	}
	if len(input.Password) < 6 {
		return nil, errors.Validation(msgWeakPassword)
	}

	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	identity, err := uc.firebaseAuth.CreateUser(ctx, profileInput.Email, input.Password)
	if err != nil {
		return nil, remoteError(err)
	}

	profile, err := uc.users.CreateProfile(ctx, identity.ID, profileInput)
	if err != nil {
		logger.Error("Profile write for %s failed, removing identity: %v", identity.ID, err)
		uc.compensate(ctx, identity.ID)
		return nil, err
	}

	result := &AuthResult{Identity: identity, Profile: profile}

	// The account exists at this point; a failed sign-in only means the client signs in itself.
	if _, tokens, err := uc.firebaseAuth.SignInWithEmailPassword(ctx, profileInput.Email, input.Password); err != nil {
		logger.Warn("Sign-in after registration of %s failed: %v", identity.ID, err)
	} else {
		result.Tokens = tokens
	}

	logger.Info("Registered %s", identity.ID)
	return result, nil
}

// compensate runs on its own deadline: the request context may already be spent.
func (uc *AuthUseCase) compensate(ctx context.Context, uid string) {
	ctx, cancel := withTimeout(context.WithoutCancel(ctx), uc.timeout)
	defer cancel()

	if err := uc.firebaseAuth.DeleteUser(ctx, uid); err != nil {
		logger.Error("Failed to remove identity %s after profile failure: %v", uid, err)
	}
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.Validation(msgFillAllFields)
	}

	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	uid, tokens, err := uc.firebaseAuth.SignInWithEmailPassword(ctx, email, password)
	if err != nil {
		return nil, remoteError(err)
	}

	result := &AuthResult{
		Identity: &entity.Identity{ID: uid, Email: email},
		Tokens:   tokens,
	}

	profile, err := uc.userRepo.GetByID(ctx, uid)
	switch {
	case err == nil:
		result.Profile = profile
	case errors.Is(err, "NOT_FOUND"):
	default:
		logger.Warn("Failed to load profile of %s at login: %v", uid, err)
	}

	return result, nil
}

// Logout moves every session of uid to signed-out, which also clears its draft.
func (uc *AuthUseCase) Logout(ctx context.Context, uid string) error {
	uc.sessions.SignOut(uid)
	return nil
}

func (uc *AuthUseCase) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return errors.Validation(msgInvalidEmail)
	}

	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	if err := uc.firebaseAuth.SendPasswordReset(ctx, email); err != nil {
		return remoteError(err)
	}
	return nil
}

// DeleteAccount re-checks the password, then removes the user's listings, the profile
// and the identity, in that order, and signs the user out everywhere.
func (uc *AuthUseCase) DeleteAccount(ctx context.Context, uid, password string) error {
	if password == "" {
		return errors.Validation("Please enter your password to delete your account.")
	}

	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	identity, err := uc.firebaseAuth.GetUser(ctx, uid)
	if err != nil {
		return remoteError(err)
	}
	signedInAs, _, err := uc.firebaseAuth.SignInWithEmailPassword(ctx, identity.Email, password)
	if err != nil {
		return remoteError(err)
	}
	if signedInAs != uid {
		return errors.Forbidden("Password does not belong to this account", nil)
	}

	deleted, err := uc.listingRepo.DeleteByOwner(ctx, uid)
	if err != nil {
		return remoteError(err)
	}

	if err := uc.userRepo.Delete(ctx, uid); err != nil {
		return remoteError(err)
	}

	if err := uc.firebaseAuth.DeleteUser(ctx, uid); err != nil {
		return remoteError(err)
	}

	uc.sessions.SignOut(uid)
	logger.Info("Deleted account %s with %d listing(s)", uid, deleted)
	return nil
}

// ResolveIdentity verifies an ID token and returns the identity it belongs to.
func (uc *AuthUseCase) ResolveIdentity(ctx context.Context, token string) (*entity.Identity, error) {
	ctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	uid, err := uc.firebaseAuth.VerifyToken(ctx, token)
	if err != nil {
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}

	identity, err := uc.firebaseAuth.GetUser(ctx, uid)
	if err != nil {
		return &entity.Identity{ID: uid}, nil
	}
	return identity, nil
}
