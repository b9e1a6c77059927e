package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/deojon/studio/internal/store"
	"github.com/deojon/studio/types"
)

const minIDLength = 4

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrInvalidCredentials is returned when a registered user supplies a
// wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LoginParams are the credentials of a login attempt.
type LoginParams struct {
	ID         string `json:"id"`
	Password   string `json:"password,omitempty"`
	RememberID bool   `json:"rememberId"`
}

// SignupParams are the fields of the registration form.
type SignupParams struct {
	ID            string `json:"id"`
	Password      string `json:"password,omitempty"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	DetailAddress string `json:"detailAddress"`
	Avatar        string `json:"avatar"`
}

// UpdateProfileParams carries a partial profile. Nil fields are left
// untouched.
type UpdateProfileParams struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Address         *string `json:"address,omitempty"`
	DetailAddress   *string `json:"detailAddress,omitempty"`
	Avatar          *string `json:"avatar,omitempty"`
	CurrentPassword string  `json:"currentPassword,omitempty"`
	NewPassword     string  `json:"newPassword,omitempty"`
}

// Mailer delivers account notifications.
type Mailer interface {
	SendEmail(to []string, subject, body string) error
}

// Account is a registered user with an optional bcrypt password hash.
type Account struct {
	User         types.User
	PasswordHash string
}

// EntityID returns the login id.
func (a Account) EntityID() string { return a.User.ID }

// AuthService resolves identities against the account directory.
// Ids that were never registered sign in as a generated member profile.
type AuthService struct {
	accounts *store.Collection[Account]
	mailer   Mailer
}

// NewAuthService constructs an AuthService. mailer may be nil, in which
// case temporary passwords are only logged as issued.
func NewAuthService(accounts *store.Collection[Account], mailer Mailer) *AuthService {
	return &AuthService{accounts: accounts, mailer: mailer}
}

// Authenticate returns the user for id. Registered accounts with a
// password require the matching password.
func (s *AuthService) Authenticate(ctx context.Context, id, password string) (types.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.User{}, fmt.Errorf("%w: id is required", ErrValidation)
	}

	account, err := s.accounts.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		return GeneratedUser(id), nil
	}
	if err != nil {
		return types.User{}, err
	}
	if account.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
			return types.User{}, ErrInvalidCredentials
		}
	}
	return account.User, nil
}

// Resolve returns the registered or generated profile of id.
func (s *AuthService) Resolve(id string) (types.User, error) {
	if strings.TrimSpace(id) == "" {
		return types.User{}, store.ErrNotFound
	}
	account, err := s.accounts.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		return GeneratedUser(id), nil
	}
	if err != nil {
		return types.User{}, err
	}
	return account.User, nil
}

// CheckIDAvailable reports whether id can be used for a new account.
func (s *AuthService) CheckIDAvailable(id string) error {
	id = strings.TrimSpace(id)
	if len(id) < minIDLength {
		return fmt.Errorf("%w: id must be at least %d characters", ErrIDUnavailable, minIDLength)
	}
	if _, err := s.accounts.Get(id); err == nil {
		return fmt.Errorf("%w: %s is already registered", ErrIDUnavailable, id)
	}
	return nil
}

// Register creates an account. It does not sign the user in.
func (s *AuthService) Register(ctx context.Context, params SignupParams) (types.User, error) {
	params.ID = strings.TrimSpace(params.ID)
	required := map[string]string{
		"id":      params.ID,
		"name":    params.Name,
		"email":   params.Email,
		"phone":   params.Phone,
		"address": params.Address,
		"avatar":  params.Avatar,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return types.User{}, fmt.Errorf("%w: %s is required", ErrValidation, field)
		}
	}
	if !emailPattern.MatchString(params.Email) {
		return types.User{}, fmt.Errorf("%w: email is malformed", ErrValidation)
	}
	if err := s.CheckIDAvailable(params.ID); err != nil {
		return types.User{}, err
	}

	account := Account{
		User: types.User{
			ID:            params.ID,
			Name:          strings.TrimSpace(params.Name),
			Email:         strings.TrimSpace(params.Email),
			Phone:         strings.TrimSpace(params.Phone),
			Address:       strings.TrimSpace(params.Address),
			DetailAddress: strings.TrimSpace(params.DetailAddress),
			Avatar:        strings.TrimSpace(params.Avatar),
			Role:          types.RoleUser,
		},
	}
	if params.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
		if err != nil {
			return types.User{}, fmt.Errorf("hash password: %w", err)
		}
		account.PasswordHash = string(hashed)
	}

	if err := s.accounts.Add(account); err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			return types.User{}, ErrIDUnavailable
		}
		return types.User{}, err
	}
	return account.User, nil
}

// UpdateProfile merges params into the profile of user and persists it.
// The id never changes. A new password needs the current one when a
// password is already set.
func (s *AuthService) UpdateProfile(ctx context.Context, user types.User, params UpdateProfileParams) (types.User, error) {
	if user.ID == "" {
		return types.User{}, ErrNoSession
	}
	if params.Email != nil && !emailPattern.MatchString(*params.Email) {
		return types.User{}, fmt.Errorf("%w: email is malformed", ErrValidation)
	}

	account, err := s.accounts.Get(user.ID)
	if errors.Is(err, store.ErrNotFound) {
		account = Account{User: user}
	} else if err != nil {
		return types.User{}, err
	}

	if params.NewPassword != "" {
		if account.PasswordHash != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(params.CurrentPassword)); err != nil {
				return types.User{}, ErrInvalidCredentials
			}
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(params.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return types.User{}, fmt.Errorf("hash password: %w", err)
		}
		account.PasswordHash = string(hashed)
	}
	account.User = applyProfile(account.User, params)

	s.accounts.Merge([]Account{account})
	return account.User, nil
}

// IssueTempPassword replaces the password of the account registered with
// email by a random one and mails it. The stored hash only changes once
// the mail has been handed to the mailer, so a failed send leaves the
// old password working.
func (s *AuthService) IssueTempPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return "", fmt.Errorf("%w: email is malformed", ErrValidation)
	}

	var found *Account
	for _, account := range s.accounts.List() {
		if strings.EqualFold(account.User.Email, email) {
			found = &account
			break
		}
	}
	if found == nil {
		return "", store.ErrNotFound
	}

	temp := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	hashed, err := bcrypt.GenerateFromPassword([]byte(temp), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	if s.mailer == nil {
		log.Printf("[auth] temporary password issued for %s (no mailer configured)", found.User.ID)
	} else {
		body := fmt.Sprintf("%s님, 임시 비밀번호는 %s 입니다. 로그인 후 비밀번호를 변경해주세요.", found.User.Name, temp)
		if err := s.mailer.SendEmail([]string{email}, "[Deojon Tech Studio] 임시 비밀번호 안내", body); err != nil {
			return "", fmt.Errorf("send temporary password: %w", err)
		}
	}

	_, err = s.accounts.Mutate(found.User.ID, func(current Account) (Account, error) {
		current.PasswordHash = string(hashed)
		return current, nil
	})
	if err != nil {
		return "", err
	}
	return temp, nil
}

// GeneratedUser builds the member profile used for ids that have no
// registered account.
func GeneratedUser(id string) types.User {
	return types.User{
		ID:      id,
		Name:    id + " 연구원",
		Email:   id + "@deojon.com",
		Phone:   "010-0000-0000",
		Address: "등록된 주소 없음",
		Avatar:  "https://picsum.photos/seed/" + id + "/100/100",
		Role:    types.RoleUser,
	}
}

func applyProfile(user types.User, params UpdateProfileParams) types.User {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&user.Name, params.Name)
	set(&user.Email, params.Email)
	set(&user.Phone, params.Phone)
	set(&user.Address, params.Address)
	set(&user.DetailAddress, params.DetailAddress)
	set(&user.Avatar, params.Avatar)
	return user
}
