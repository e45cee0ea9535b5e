package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Accounts verifies sign-in credentials.
type Accounts interface {
	Authenticate(ctx context.Context, email, password string) (Identity, error)
}

type account struct {
	identity Identity
	hash     []byte
}

// StaticAccounts is an Accounts backed by a fixed list loaded from
// configuration.
type StaticAccounts struct {
	accounts map[string]account

	// compared against when the email is unknown, at the highest cost of
	// the configured hashes so both paths take as long
	dummyHash []byte
}

var _ Accounts = (*StaticAccounts)(nil)

// ParseStaticAccounts builds accounts from "email:name:bcrypt-hash" entries.
// User ids are derived from the email so they are stable across restarts.
func ParseStaticAccounts(entries []string) (*StaticAccounts, error) {
	s := &StaticAccounts{accounts: make(map[string]account, len(entries))}
	maxCost := bcrypt.DefaultCost

	for i, entry := range entries {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("account %d: expected email:name:hash", i)
		}

		email := normalizeEmail(parts[0])
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("account %d: invalid email %q", i, parts[0])
		}

		hash := []byte(parts[2])
		cost, err := bcrypt.Cost(hash)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i, err)
		}
		maxCost = max(maxCost, cost)

		if _, ok := s.accounts[email]; ok {
			return nil, fmt.Errorf("account %d: duplicate email %q", i, email)
		}

		s.accounts[email] = account{
			identity: Identity{
				UserID: uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
				Email:  email,
				Name:   strings.TrimSpace(parts[1]),
			},
			hash: hash,
		}
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), maxCost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	s.dummyHash = dummy

	return s, nil
}

func (s *StaticAccounts) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}

	acc, ok := s.accounts[normalizeEmail(email)]
	if !ok {
		bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return Identity{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return acc.identity, nil
}

// Len returns the number of configured accounts.
func (s *StaticAccounts) Len() int {
	return len(s.accounts)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
