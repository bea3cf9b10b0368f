package application

import (
	"context"
	"errors"
	"expvar"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/mother-community/internal/domain/entity"
	repo "github.com/oksasatya/mother-community/internal/domain/repository"
)

var (
	deletionsTotal        = expvar.NewInt("account_deletions_total")
	deletionFailuresTotal = expvar.NewMap("account_deletion_failures_total")
)

// DeletionStep identifies a step of the account deletion sequence.
type DeletionStep int

const (
	StepChildren DeletionStep = iota + 1
	StepProfile
	StepAuthAccount
)

func (s DeletionStep) String() string {
	switch s {
	case StepChildren:
		return "children"
	case StepProfile:
		return "profile"
	case StepAuthAccount:
		return "auth account"
	}
	return fmt.Sprintf("step %d", int(s))
}

// DeletionError reports the step that failed. Steps before it have already
// been applied and are not undone.
type DeletionError struct {
	Step DeletionStep
	Err  error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("account deletion failed at step %d (%s): %v", int(e.Step), e.Step, e.Err)
}

func (e *DeletionError) Unwrap() error { return e.Err }

// DeletionStore is the part of the profile store the deletion touches.
type DeletionStore interface {
	GetByID(ctx context.Context, id string) (*entity.Profile, error)
	DeleteChildren(ctx context.Context, profileID string) error
	Delete(ctx context.Context, id string) error
}

// AccountRemover deletes authentication accounts with elevated rights.
type AccountRemover interface {
	DeleteUser(ctx context.Context, userID string) error
}

// AccountDeleter removes a member: children, then profile, then the auth
// account. It stops at the first failing step.
type AccountDeleter struct {
	Store    DeletionStore
	Accounts AccountRemover
	Users    repo.UserRepository
	Storage  repo.ObjectStorage
	Index    repo.ProfileIndex
	Cache    repo.DirectoryCache
	Notifier *Notifier
	Logger   *logrus.Logger
}

func NewAccountDeleter(store DeletionStore, accounts AccountRemover, users repo.UserRepository, logger *logrus.Logger) *AccountDeleter {
	return &AccountDeleter{Store: store, Accounts: accounts, Users: users, Logger: logger}
}

// DeleteAs deletes memberID on behalf of requesterID, who must be the member
// or hold the admin role.
func (d *AccountDeleter) DeleteAs(ctx context.Context, requesterID, memberID string) error {
	if memberID == "" {
		return ErrUserNotFound
	}
	if requesterID != memberID {
		if d.Users == nil {
			return ErrForbidden
		}
		u, err := d.Users.GetByID(ctx, requesterID)
		if err != nil || !u.HasRole(entity.RoleAdmin) {
			return ErrForbidden
		}
	}
	if d.Users != nil {
		if _, err := d.Users.GetByID(ctx, memberID); errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		} else if err != nil {
			return fmt.Errorf("look up member: %w", err)
		}
	}
	return d.Delete(ctx, memberID)
}

func (d *AccountDeleter) Delete(ctx context.Context, memberID string) error {
	// Looked up first for the clean-up work afterwards; a missing profile
	// does not stop the deletion.
	var (
		profile *entity.Profile
		email   string
	)
	if p, err := d.Store.GetByID(ctx, memberID); err == nil {
		profile, email = p, p.Email
	}
	if email == "" && d.Users != nil {
		if u, err := d.Users.GetByID(ctx, memberID); err == nil {
			email = u.Email
		}
	}

	steps := []struct {
		step DeletionStep
		run  func(context.Context, string) error
	}{
		{StepChildren, d.Store.DeleteChildren},
		{StepProfile, d.Store.Delete},
		{StepAuthAccount, d.Accounts.DeleteUser},
	}
	for _, s := range steps {
		if err := s.run(ctx, memberID); err != nil {
			deletionFailuresTotal.Add(s.step.String(), 1)
			if d.Logger != nil {
				d.Logger.WithError(err).WithFields(logrus.Fields{
					"member_id": memberID,
					"step":      int(s.step),
				}).Error("account deletion aborted")
			}
			return &DeletionError{Step: s.step, Err: err}
		}
	}
	deletionsTotal.Add(1)

	d.cleanup(ctx, memberID, profile, email)
	return nil
}

// cleanup is best-effort; the account is already gone.
func (d *AccountDeleter) cleanup(ctx context.Context, memberID string, p *entity.Profile, email string) {
	warn := func(err error, msg string) {
		if err != nil && d.Logger != nil {
			d.Logger.WithError(err).WithField("member_id", memberID).Warn(msg)
		}
	}
	if p != nil && p.AvatarURL != nil && d.Storage != nil {
		warn(d.Storage.Remove(ctx, *p.AvatarURL), "remove avatar failed")
	}
	if d.Index != nil {
		warn(d.Index.Remove(ctx, memberID), "remove from search index failed")
	}
	if d.Cache != nil {
		warn(d.Cache.Invalidate(ctx), "directory cache invalidate failed")
	}
	name := ""
	if p != nil {
		name = entity.Deref(p.FullName)
	}
	d.Notifier.AccountDeleted(ctx, email, name)
}

// DeletionStepOf returns the failing step of a deletion error, or 0.
func DeletionStepOf(err error) DeletionStep {
	var de *DeletionError
	if errors.As(err, &de) {
		return de.Step
	}
	return 0
}
